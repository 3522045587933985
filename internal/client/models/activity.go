package models

import "time"

// ActivityRecord is the best-effort, locally persisted usage recency data for
// one file. It is a side table keyed by file id, not authoritative storage.
// Timestamps are RFC 3339 strings so the persisted layout round-trips through
// ordinary JSON; empty string means "never".
type ActivityRecord struct {
	FileID         string `json:"fileId"`
	LastViewed     string `json:"lastViewed"`
	LastDownloaded string `json:"lastDownloaded"`
	ViewCount      int    `json:"viewCount"`
}

// DownloadHistoryEntry is one line of the capped, newest-first download log.
type DownloadHistoryEntry struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
}

// LastViewedTime parses LastViewed; ok is false when the field is empty or
// malformed.
func (r ActivityRecord) LastViewedTime() (time.Time, bool) {
	return parseStamp(r.LastViewed)
}

// LastDownloadedTime parses LastDownloaded; ok is false when the field is
// empty or malformed.
func (r ActivityRecord) LastDownloadedTime() (time.Time, bool) {
	return parseStamp(r.LastDownloaded)
}

func parseStamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Stamp formats t the way activity records store timestamps.
func Stamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
