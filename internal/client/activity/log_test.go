package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/chafidzadlan/anotherfile/internal/client/kvstore"
	"github.com/chafidzadlan/anotherfile/internal/client/models"
	"github.com/chafidzadlan/anotherfile/internal/logging"
	"github.com/stretchr/testify/require"
)

func newTestLog(t *testing.T) (*Log, *kvstore.MemoryStore, *time.Time) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	l := NewLog(store, logging.NewNopLogger())

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	return l, store, &now
}

func TestRecordDownload_NewRecord(t *testing.T) {
	l, _, now := newTestLog(t)
	ctx := context.Background()

	l.RecordDownload(ctx, "f1", "a.txt")

	rec, ok := l.Record(ctx, "f1")
	require.True(t, ok)
	require.Equal(t, models.Stamp(*now), rec.LastViewed)
	require.Equal(t, models.Stamp(*now), rec.LastDownloaded)
	require.Equal(t, 0, rec.ViewCount)
}

func TestRecordDownload_PreservesOtherFields(t *testing.T) {
	l, _, now := newTestLog(t)
	ctx := context.Background()

	l.MarkViewed(ctx, "f1")
	viewedAt := models.Stamp(*now)

	*now = now.Add(time.Hour)
	l.RecordDownload(ctx, "f1", "a.txt")

	rec, ok := l.Record(ctx, "f1")
	require.True(t, ok)
	require.Equal(t, viewedAt, rec.LastViewed, "LastViewed must be preserved")
	require.Equal(t, 1, rec.ViewCount, "ViewCount must be preserved")
	require.Equal(t, models.Stamp(*now), rec.LastDownloaded)
}

func TestRecordDownload_HistoryCapped(t *testing.T) {
	l, _, now := newTestLog(t)
	ctx := context.Background()

	for i := 0; i < 55; i++ {
		*now = now.Add(time.Minute)
		l.RecordDownload(ctx, fmt.Sprintf("f%d", i), fmt.Sprintf("file-%d.txt", i))
	}

	history := l.History(ctx)
	require.Len(t, history, HistoryCap)
	require.Equal(t, "f54", history[0].ID, "newest entry first")
	require.Equal(t, "f5", history[len(history)-1].ID, "oldest five evicted")
}

func TestMarkViewed_IncrementsCount(t *testing.T) {
	l, _, _ := newTestLog(t)
	ctx := context.Background()

	l.MarkViewed(ctx, "f1")
	l.MarkViewed(ctx, "f1")

	rec, ok := l.Record(ctx, "f1")
	require.True(t, ok)
	require.Equal(t, 2, rec.ViewCount)
}

func TestReconcile_FillsGapsWithNewestDate(t *testing.T) {
	l, store, now := newTestLog(t)
	ctx := context.Background()

	older := now.Add(-2 * time.Hour)
	newer := now.Add(-time.Hour)
	history := []models.DownloadHistoryEntry{
		{ID: "f1", Name: "a.txt", Date: newer},
		{ID: "f1", Name: "a.txt", Date: older},
		{ID: "f2", Name: "b.txt", Date: older},
	}
	data, err := json.Marshal(history)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, historyKey, data))

	l.Reconcile(ctx)

	rec, ok := l.Record(ctx, "f1")
	require.True(t, ok)
	got, ok := rec.LastDownloadedTime()
	require.True(t, ok)
	require.True(t, got.Equal(newer), "newest history date must win")

	rec2, ok := l.Record(ctx, "f2")
	require.True(t, ok)
	require.Empty(t, rec2.LastViewed)
	require.Equal(t, 0, rec2.ViewCount)
}

func TestReconcile_Idempotent(t *testing.T) {
	l, store, now := newTestLog(t)
	ctx := context.Background()

	l.RecordDownload(ctx, "f1", "a.txt")
	*now = now.Add(time.Minute)
	l.RecordDownload(ctx, "f2", "b.txt")

	l.Reconcile(ctx)
	first, err := store.Get(ctx, activityKey)
	require.NoError(t, err)

	l.Reconcile(ctx)
	second, err := store.Get(ctx, activityKey)
	require.NoError(t, err)

	require.JSONEq(t, string(first), string(second))
}

func TestRecordDownload_StorageFailureIsSwallowed(t *testing.T) {
	l, store, _ := newTestLog(t)
	store.SetErr = errors.New("quota exceeded")
	store.GetErr = errors.New("quota exceeded")

	require.NotPanics(t, func() {
		l.RecordDownload(context.Background(), "f1", "a.txt")
	})
}

func TestLoad_CorruptJSONIsIgnored(t *testing.T) {
	l, store, _ := newTestLog(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, historyKey, []byte(`{not json`)))

	require.NotPanics(t, func() {
		require.Empty(t, l.History(ctx))
	})
}
