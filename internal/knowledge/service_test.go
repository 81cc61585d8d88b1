package knowledge

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/deskrelay/deskrelay/internal/ai"
	"github.com/deskrelay/deskrelay/internal/db/sqlc"
)

type fakeRow struct {
	scanFunc func(dest ...any) error
}

func (r fakeRow) Scan(dest ...any) error { return r.scanFunc(dest...) }

type fakeDBTX struct {
	queryRowFunc func(ctx context.Context, sql string, args ...any) pgx.Row
	execFunc     func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (f *fakeDBTX) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.execFunc == nil {
		return pgconn.CommandTag{}, nil
	}
	return f.execFunc(ctx, sql, args...)
}

func (f *fakeDBTX) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("unexpected query")
}

func (f *fakeDBTX) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return f.queryRowFunc(ctx, sql, args...)
}

type fakeStore struct {
	upsertErr  error
	upserted   []int64
	deleted    []int64
	botDeleted []int64
	passages   []ai.Passage
}

func (f *fakeStore) Upsert(ctx context.Context, botID, chunkID int64, vector []float32, content string) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = append(f.upserted, chunkID)
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, chunkID int64) error {
	f.deleted = append(f.deleted, chunkID)
	return nil
}

func (f *fakeStore) DeleteByBot(ctx context.Context, botID int64) error {
	f.botDeleted = append(f.botDeleted, botID)
	return nil
}

func (f *fakeStore) Search(ctx context.Context, botID int64, vector []float32, topK int, minScore float32) ([]ai.Passage, error) {
	return f.passages, nil
}

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return f.vector, f.err
}

func chunkRow(id, botID int64, content string) fakeRow {
	return fakeRow{scanFunc: func(dest ...any) error {
		*dest[0].(*int64) = id
		*dest[1].(*int64) = botID
		*dest[2].(*string) = content
		*dest[3].(*string) = ""
		*dest[4].(*pgtype.Timestamptz) = pgtype.Timestamptz{}
		return nil
	}}
}

func TestIngestStoresRowAndVector(t *testing.T) {
	dbtx := &fakeDBTX{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return chunkRow(11, 7, args[1].(string))
		},
	}
	store := &fakeStore{}
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	svc := NewService(slog.Default(), sqlc.New(dbtx), store, embedder)

	chunk, err := svc.Ingest(context.Background(), 7, "  refund policy  ", "faq.md")
	require.NoError(t, err)
	require.Equal(t, int64(11), chunk.ID)
	require.Equal(t, "refund policy", chunk.Content)
	require.Equal(t, 1, embedder.calls)
	require.Equal(t, []int64{11}, store.upserted)
}

func TestIngestRollsBackRowOnVectorFailure(t *testing.T) {
	var deletedArgs []any
	dbtx := &fakeDBTX{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return chunkRow(11, 7, args[1].(string))
		},
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			deletedArgs = args
			return pgconn.NewCommandTag("DELETE 1"), nil
		},
	}
	store := &fakeStore{upsertErr: errors.New("qdrant down")}
	svc := NewService(slog.Default(), sqlc.New(dbtx), store, &fakeEmbedder{vector: []float32{0.5}})

	_, err := svc.Ingest(context.Background(), 7, "text", "")
	require.Error(t, err)
	require.Equal(t, []any{int64(11), int64(7)}, deletedArgs, "orphaned row must be removed")
}

func TestIngestRejectsEmptyContent(t *testing.T) {
	embedder := &fakeEmbedder{}
	svc := NewService(slog.Default(), sqlc.New(&fakeDBTX{}), &fakeStore{}, embedder)

	_, err := svc.Ingest(context.Background(), 7, "   ", "")
	require.Error(t, err)
	require.Zero(t, embedder.calls)
}

func TestDeleteUnknownChunk(t *testing.T) {
	dbtx := &fakeDBTX{
		execFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			return pgconn.NewCommandTag("DELETE 0"), nil
		},
	}
	store := &fakeStore{}
	svc := NewService(slog.Default(), sqlc.New(dbtx), store, &fakeEmbedder{})

	err := svc.Delete(context.Background(), 7, 99)
	require.ErrorIs(t, err, ErrChunkNotFound)
	require.Empty(t, store.deleted, "vector deletion must not run for a missing row")
}

func TestHasKnowledge(t *testing.T) {
	count := int64(0)
	dbtx := &fakeDBTX{
		queryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return fakeRow{scanFunc: func(dest ...any) error {
				*dest[0].(*int64) = count
				return nil
			}}
		},
	}
	svc := NewService(slog.Default(), sqlc.New(dbtx), &fakeStore{}, &fakeEmbedder{})

	has, err := svc.HasKnowledge(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, has)

	count = 3
	has, err = svc.HasKnowledge(context.Background(), 7)
	require.NoError(t, err)
	require.True(t, has)
}
