package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deskrelay/deskrelay/internal/channel"
	"github.com/deskrelay/deskrelay/internal/db/sqlc"
	"github.com/deskrelay/deskrelay/internal/dialog"
)

func TestPing(t *testing.T) {
	e := echo.New()
	NewPingHandler(slog.Default()).Register(e)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPathID(t *testing.T) {
	e := echo.New()

	cases := []struct {
		raw    string
		wantID int64
		wantOK bool
	}{
		{raw: "42", wantID: 42, wantOK: true},
		{raw: "0", wantOK: false},
		{raw: "-3", wantOK: false},
		{raw: "abc", wantOK: false},
		{raw: "", wantOK: false},
	}
	for _, tc := range cases {
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		c.SetParamNames("id")
		c.SetParamValues(tc.raw)

		id, err := pathID(c)
		if tc.wantOK {
			assert.NoError(t, err, tc.raw)
			assert.Equal(t, tc.wantID, id, tc.raw)
			continue
		}
		assert.Error(t, err, tc.raw)
	}
}

func TestQueryInt(t *testing.T) {
	e := echo.New()

	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=3", nil), httptest.NewRecorder())
	assert.Equal(t, 3, queryInt(c, "page", 1))
	assert.Equal(t, 20, queryInt(c, "per_page", 20))

	c = e.NewContext(httptest.NewRequest(http.MethodGet, "/?page=oops", nil), httptest.NewRecorder())
	assert.Equal(t, -1, queryInt(c, "page", 1), "garbage must not silently fall back")
}

func TestDialogErrorMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{err: dialog.ErrNotFound, want: http.StatusNotFound},
		{err: dialog.ErrClosed, want: http.StatusConflict},
		{err: dialog.ErrLockConflict, want: http.StatusConflict},
		{err: errors.New("boom"), want: http.StatusInternalServerError},
	}
	for _, tc := range cases {
		httpErr, ok := dialogError(tc.err, "failed").(*echo.HTTPError)
		require.True(t, ok)
		assert.Equal(t, tc.want, httpErr.Code, tc.err.Error())
	}
}

type syncingAdapter struct {
	ct     channel.ChannelType
	urls   []string
	active []bool
	err    error
}

func (a *syncingAdapter) Type() channel.ChannelType { return a.ct }
func (a *syncingAdapter) Normalize(body []byte) channel.IncomingMessage {
	return channel.Skipped(a.ct, channel.SkipEmptyUpdate)
}
func (a *syncingAdapter) Send(ctx context.Context, config []byte, msg channel.OutgoingMessage) (channel.SendResult, error) {
	return channel.SendResult{}, nil
}
func (a *syncingAdapter) SyncWebhook(ctx context.Context, config []byte, webhookURL string, active bool) error {
	a.urls = append(a.urls, webhookURL)
	a.active = append(a.active, active)
	return a.err
}

func TestChannelWebhookSync(t *testing.T) {
	adapter := &syncingAdapter{ct: channel.TypeTelegram}
	registry := channel.NewRegistry()
	registry.MustRegister(adapter)
	h := NewChannelsHandler(slog.Default(), nil, registry, "https://desk.example/")

	row := sqlc.BotChannel{ID: 3, BotID: 7, ChannelType: "telegram", Config: []byte(`{}`), IsActive: true}
	h.syncWebhook(context.Background(), row, true)
	h.syncWebhook(context.Background(), row, false)

	require.Equal(t, []string{
		"https://desk.example/bots/7/channels/webhooks/telegram/3",
		"https://desk.example/bots/7/channels/webhooks/telegram/3",
	}, adapter.urls)
	assert.Equal(t, []bool{true, false}, adapter.active)
}

func TestChannelWebhookSync_SkipsWithoutBaseURL(t *testing.T) {
	adapter := &syncingAdapter{ct: channel.TypeTelegram}
	registry := channel.NewRegistry()
	registry.MustRegister(adapter)
	h := NewChannelsHandler(slog.Default(), nil, registry, "")

	h.syncWebhook(context.Background(), sqlc.BotChannel{ID: 3, BotID: 7, ChannelType: "telegram"}, true)

	assert.Empty(t, adapter.urls)
}

func TestChannelWebhookSync_FailureDoesNotPanic(t *testing.T) {
	adapter := &syncingAdapter{ct: channel.TypeTelegram, err: errors.New("provider down")}
	registry := channel.NewRegistry()
	registry.MustRegister(adapter)
	h := NewChannelsHandler(slog.Default(), nil, registry, "https://desk.example")

	h.syncWebhook(context.Background(), sqlc.BotChannel{ID: 3, BotID: 7, ChannelType: "telegram", Config: []byte(`{}`)}, true)

	require.Len(t, adapter.urls, 1)
}
