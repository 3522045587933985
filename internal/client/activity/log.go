// Package activity keeps the best-effort usage history for files: a capped,
// newest-first download log and a per-file recency record. The data lives in
// the local key-value store and is never authoritative; storage failures
// degrade to a no-op with a logged warning.
package activity

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chafidzadlan/anotherfile/internal/client/kvstore"
	"github.com/chafidzadlan/anotherfile/internal/client/models"
	"github.com/chafidzadlan/anotherfile/internal/common"
	"github.com/chafidzadlan/anotherfile/internal/logging"
)

const (
	historyKey  = "downloadHistory"
	activityKey = "fileActivity"

	// HistoryCap is the maximum number of retained history entries; the
	// oldest are evicted first.
	HistoryCap = 50
)

type Log struct {
	store kvstore.Store
	log   logging.Logger
	now   func() time.Time
}

func NewLog(store kvstore.Store, log logging.Logger) *Log {
	return &Log{store: store, log: log, now: time.Now}
}

// RecordDownload prepends a history entry and upserts the activity record for
// fileID. Existing records keep every field except LastDownloaded; new records
// default LastViewed to now and ViewCount to zero. Never returns an error:
// this data is advisory and must not fail the download that produced it.
func (l *Log) RecordDownload(ctx context.Context, fileID, fileName string) {
	now := l.now()

	history := l.loadHistory(ctx)
	history = append([]models.DownloadHistoryEntry{{ID: fileID, Name: fileName, Date: now}}, history...)
	if len(history) > HistoryCap {
		history = history[:HistoryCap]
	}

	records := l.loadRecords(ctx)
	rec, ok := records[fileID]
	if !ok {
		rec = models.ActivityRecord{FileID: fileID, LastViewed: models.Stamp(now)}
	}
	rec.LastDownloaded = models.Stamp(now)
	records[fileID] = rec

	l.saveAll(ctx, map[string]any{historyKey: history, activityKey: records})
}

// MarkViewed stamps LastViewed and bumps the view counter for fileID.
func (l *Log) MarkViewed(ctx context.Context, fileID string) {
	now := l.now()

	records := l.loadRecords(ctx)
	rec, ok := records[fileID]
	if !ok {
		rec = models.ActivityRecord{FileID: fileID}
	}
	rec.LastViewed = models.Stamp(now)
	rec.ViewCount++
	records[fileID] = rec
	l.save(ctx, activityKey, records)
}

// History returns the download log, newest first.
func (l *Log) History(ctx context.Context) []models.DownloadHistoryEntry {
	return l.loadHistory(ctx)
}

// Record returns the activity record for fileID, if one exists.
func (l *Log) Record(ctx context.Context, fileID string) (models.ActivityRecord, bool) {
	records := l.loadRecords(ctx)
	rec, ok := records[fileID]
	return rec, ok
}

// Records returns the whole activity table keyed by file id.
func (l *Log) Records(ctx context.Context) map[string]models.ActivityRecord {
	return l.loadRecords(ctx)
}

// Reconcile replays the persisted download history into the activity table so
// that every file with history has a LastDownloaded stamp. The newest history
// date per file wins; replaying the same history twice changes nothing.
func (l *Log) Reconcile(ctx context.Context) {
	history := l.loadHistory(ctx)
	if len(history) == 0 {
		return
	}

	records := l.loadRecords(ctx)
	changed := false

	for _, entry := range history {
		rec, ok := records[entry.ID]
		if !ok {
			rec = models.ActivityRecord{FileID: entry.ID}
		}
		if existing, ok := rec.LastDownloadedTime(); ok && !entry.Date.After(existing) {
			continue
		}
		rec.LastDownloaded = models.Stamp(entry.Date)
		records[entry.ID] = rec
		changed = true
	}

	if changed {
		l.save(ctx, activityKey, records)
	}
}

func (l *Log) loadHistory(ctx context.Context) []models.DownloadHistoryEntry {
	var history []models.DownloadHistoryEntry
	l.load(ctx, historyKey, &history)
	return history
}

func (l *Log) loadRecords(ctx context.Context) map[string]models.ActivityRecord {
	records := make(map[string]models.ActivityRecord)
	l.load(ctx, activityKey, &records)
	return records
}

func (l *Log) load(ctx context.Context, key string, out any) {
	data, err := l.store.Get(ctx, key)
	if errors.Is(err, common.ErrNotFound) {
		return
	}
	if err != nil {
		l.log.Warn(ctx, "activity store read failed", "key", key, "error", err)
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		l.log.Warn(ctx, "activity state corrupt, ignoring", "key", key, "error", err)
	}
}

func (l *Log) save(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		l.log.Warn(ctx, "activity state marshal failed", "key", key, "error", err)
		return
	}
	if err := l.store.Set(ctx, key, data); err != nil {
		l.log.Warn(ctx, "activity store write failed", "key", key, "error", err)
	}
}

// saveAll persists related keys together, atomically when the store
// supports batch writes.
func (l *Log) saveAll(ctx context.Context, values map[string]any) {
	pairs := make(map[string][]byte, len(values))
	for key, v := range values {
		data, err := json.Marshal(v)
		if err != nil {
			l.log.Warn(ctx, "activity state marshal failed", "key", key, "error", err)
			return
		}
		pairs[key] = data
	}

	if bs, ok := l.store.(kvstore.BatchStore); ok {
		if err := bs.SetAll(ctx, pairs); err != nil {
			l.log.Warn(ctx, "activity store write failed", "error", err)
		}
		return
	}
	for key, data := range pairs {
		if err := l.store.Set(ctx, key, data); err != nil {
			l.log.Warn(ctx, "activity store write failed", "key", key, "error", err)
		}
	}
}
