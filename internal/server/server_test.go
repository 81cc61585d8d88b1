package server

import "testing"

func TestShouldSkipJWT(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want bool
	}{
		{path: "/ping", want: true},
		{path: "/auth/login", want: true},
		{path: "/auth/refresh", want: false},
		{path: "/bots/1/channels/webhooks/telegram/3", want: true},
		{path: "/bots/7/channels/webhooks/avito/9", want: true},
		{path: "/webchat/init", want: true},
		{path: "/webchat/1/messages", want: true},
		{path: "/ws/webchat/1/abc", want: true},
		{path: "/dialogs", want: false},
		{path: "/ws/admin", want: false},
		{path: "/bots/1/channels", want: false},
	}

	for _, tc := range cases {
		got := shouldSkipJWT(tc.path)
		if got != tc.want {
			t.Fatalf("path=%q want=%v got=%v", tc.path, tc.want, got)
		}
	}
}
