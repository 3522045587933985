// Package browser holds the drive's client-side view state: the cached file
// list, search and folder filters, the selection set, and the actions that
// hand work off to the transfer engine and delete coordinator.
package browser

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/chafidzadlan/anotherfile/internal/client/activity"
	"github.com/chafidzadlan/anotherfile/internal/client/deleter"
	"github.com/chafidzadlan/anotherfile/internal/client/models"
	"github.com/chafidzadlan/anotherfile/internal/client/notify"
	"github.com/chafidzadlan/anotherfile/internal/client/objectstore"
	"github.com/chafidzadlan/anotherfile/internal/client/repositories/files"
	"github.com/chafidzadlan/anotherfile/internal/client/transfer"
	"github.com/chafidzadlan/anotherfile/internal/common"
	"github.com/chafidzadlan/anotherfile/internal/logging"
)

// View selects which slice of the drive is shown.
type View string

const (
	ViewMyDrive   View = "my-drive"
	ViewImages    View = "images"
	ViewDocuments View = "documents"
	ViewRecent    View = "recent"
)

// RecentMode picks the timestamp the recent view filters on.
type RecentMode string

const (
	RecentAccessed   RecentMode = "accessed"
	RecentModified   RecentMode = "modified"
	RecentDownloaded RecentMode = "downloaded"
)

// Timeframe is the recency window of the recent view.
type Timeframe string

const (
	TimeframeDay   Timeframe = "day"
	TimeframeWeek  Timeframe = "week"
	TimeframeMonth Timeframe = "month"
)

func ParseView(s string) (View, error) {
	switch View(s) {
	case ViewMyDrive, ViewImages, ViewDocuments, ViewRecent:
		return View(s), nil
	}
	return "", fmt.Errorf("unknown folder view %q", s)
}

func ParseRecentMode(s string) (RecentMode, error) {
	switch RecentMode(s) {
	case RecentAccessed, RecentModified, RecentDownloaded:
		return RecentMode(s), nil
	}
	return "", fmt.Errorf("unknown recent mode %q", s)
}

func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case TimeframeDay, TimeframeWeek, TimeframeMonth:
		return Timeframe(s), nil
	}
	return "", fmt.Errorf("unknown timeframe %q", s)
}

// Downloader is the slice of the transfer engine the browser drives.
type Downloader interface {
	StartDownload(ctx context.Context, fileID, url, fileName string) error
	StartBulkDownload(ctx context.Context, items []transfer.BulkItem) error
}

// BatchDeleter runs gated two-phase delete batches.
type BatchDeleter interface {
	Delete(ctx context.Context, targets []models.FileRecord) (*deleter.Result, error)
}

type Browser struct {
	repo     files.Repository
	activity *activity.Log
	engine   Downloader
	deleter  BatchDeleter
	blobs    objectstore.Store
	notifier notify.Notifier
	log      logging.Logger

	ownerID       string
	maxUploadSize int64
	now           func() time.Time

	mu         sync.Mutex
	list       []*models.FileRecord
	search     string
	view       View
	recentMode RecentMode
	timeframe  Timeframe
	selected   map[string]struct{}
}

func New(repo files.Repository, act *activity.Log, engine Downloader, del BatchDeleter,
	blobs objectstore.Store, notifier notify.Notifier, log logging.Logger, ownerID string, maxUploadSize int64) *Browser {
	return &Browser{
		repo:          repo,
		activity:      act,
		engine:        engine,
		deleter:       del,
		blobs:         blobs,
		notifier:      notifier,
		log:           log,
		ownerID:       ownerID,
		maxUploadSize: maxUploadSize,
		now:           time.Now,
		view:          ViewMyDrive,
		recentMode:    RecentAccessed,
		timeframe:     TimeframeWeek,
		selected:      make(map[string]struct{}),
	}
}

// Refresh replaces the cached list with the owner's current rows.
func (b *Browser) Refresh(ctx context.Context) error {
	list, err := b.repo.ListByOwner(ctx, b.ownerID)
	if err != nil {
		return fmt.Errorf("failed to refresh file list: %w", err)
	}

	b.mu.Lock()
	b.list = list
	// Drop selections that no longer exist.
	known := make(map[string]struct{}, len(list))
	for _, f := range list {
		known[f.ID] = struct{}{}
	}
	for id := range b.selected {
		if _, ok := known[id]; !ok {
			delete(b.selected, id)
		}
	}
	b.mu.Unlock()
	return nil
}

func (b *Browser) SetSearch(q string) {
	b.mu.Lock()
	b.search = q
	b.mu.Unlock()
}

func (b *Browser) SetView(v View) {
	b.mu.Lock()
	b.view = v
	b.mu.Unlock()
}

func (b *Browser) SetRecent(mode RecentMode, tf Timeframe) {
	b.mu.Lock()
	b.view = ViewRecent
	b.recentMode = mode
	b.timeframe = tf
	b.mu.Unlock()
}

func (b *Browser) CurrentView() View {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// Visible applies the active filter and sort to the cached list.
func (b *Browser) Visible(ctx context.Context) []*models.FileRecord {
	b.mu.Lock()
	list := append([]*models.FileRecord(nil), b.list...)
	search := strings.ToLower(b.search)
	view := b.view
	mode := b.recentMode
	tf := b.timeframe
	b.mu.Unlock()

	var records map[string]models.ActivityRecord
	if view == ViewRecent {
		records = b.activity.Records(ctx)
	}
	cutoff := b.cutoff(tf)

	var out []*models.FileRecord
	for _, f := range list {
		if search != "" && !strings.Contains(strings.ToLower(f.Name), search) {
			continue
		}
		switch view {
		case ViewImages:
			if f.Type != models.FileTypeImage {
				continue
			}
		case ViewDocuments:
			if f.Type != models.FileTypeDocument {
				continue
			}
		case ViewRecent:
			if _, ok := b.recentTimestamp(f, records[f.ID], mode, cutoff); !ok {
				continue
			}
		}
		out = append(out, f)
	}

	if view == ViewRecent {
		sort.SliceStable(out, func(i, j int) bool {
			ti, _ := b.recentTimestamp(out[i], records[out[i].ID], mode, cutoff)
			tj, _ := b.recentTimestamp(out[j], records[out[j].ID], mode, cutoff)
			return ti.After(tj)
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}

func (b *Browser) cutoff(tf Timeframe) time.Time {
	now := b.now()
	switch tf {
	case TimeframeDay:
		return now.Add(-24 * time.Hour)
	case TimeframeWeek:
		return now.Add(-7 * 24 * time.Hour)
	case TimeframeMonth:
		return now.AddDate(0, -1, 0)
	}
	return now.Add(-7 * 24 * time.Hour)
}

// recentTimestamp returns the timestamp the recent view uses for f under
// mode, and whether it falls inside the window. Accessed mode falls back to
// creation time when no activity exists, and also matches on creation time
// within the window.
func (b *Browser) recentTimestamp(f *models.FileRecord, rec models.ActivityRecord, mode RecentMode, cutoff time.Time) (time.Time, bool) {
	switch mode {
	case RecentModified:
		return f.CreatedAt, !f.CreatedAt.Before(cutoff)
	case RecentDownloaded:
		if t, ok := rec.LastDownloadedTime(); ok {
			return t, !t.Before(cutoff)
		}
		return time.Time{}, false
	default: // accessed
		if t, ok := rec.LastViewedTime(); ok {
			if !t.Before(cutoff) {
				return t, true
			}
			if !f.CreatedAt.Before(cutoff) {
				return f.CreatedAt, true
			}
			return t, false
		}
		return f.CreatedAt, !f.CreatedAt.Before(cutoff)
	}
}

// ToggleSelect flips the selection state of id. Unknown ids are ignored.
func (b *Browser) ToggleSelect(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.find(id) == nil {
		return
	}
	if _, ok := b.selected[id]; ok {
		delete(b.selected, id)
	} else {
		b.selected[id] = struct{}{}
	}
}

// ToggleSelectAll selects every visible file, or clears the selection when
// everything visible is already selected.
func (b *Browser) ToggleSelectAll(ctx context.Context) {
	visible := b.Visible(ctx)

	b.mu.Lock()
	defer b.mu.Unlock()

	all := len(visible) > 0
	for _, f := range visible {
		if _, ok := b.selected[f.ID]; !ok {
			all = false
			break
		}
	}
	if all {
		b.selected = make(map[string]struct{})
		return
	}
	for _, f := range visible {
		b.selected[f.ID] = struct{}{}
	}
}

func (b *Browser) ClearSelection() {
	b.mu.Lock()
	b.selected = make(map[string]struct{})
	b.mu.Unlock()
}

// Selected returns the selected records in list order.
func (b *Browser) Selected() []models.FileRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.FileRecord
	for _, f := range b.list {
		if _, ok := b.selected[f.ID]; ok {
			out = append(out, *f)
		}
	}
	return out
}

func (b *Browser) IsSelected(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.selected[id]
	return ok
}

// Find returns the cached record for id.
func (b *Browser) Find(id string) (models.FileRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f := b.find(id); f != nil {
		return *f, true
	}
	return models.FileRecord{}, false
}

func (b *Browser) find(id string) *models.FileRecord {
	for _, f := range b.list {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// MarkViewed stamps the activity record for id and returns the record.
func (b *Browser) MarkViewed(ctx context.Context, id string) (models.FileRecord, error) {
	f, ok := b.Find(id)
	if !ok {
		return models.FileRecord{}, common.ErrNotFound
	}
	b.activity.MarkViewed(ctx, id)
	return f, nil
}

// Download starts a single download for id.
func (b *Browser) Download(ctx context.Context, id string) error {
	f, ok := b.Find(id)
	if !ok {
		return common.ErrNotFound
	}
	return b.engine.StartDownload(ctx, f.ID, f.URL, f.Name)
}

// DownloadSelected bulk-downloads the current selection.
func (b *Browser) DownloadSelected(ctx context.Context) error {
	selected := b.Selected()
	if len(selected) == 0 {
		return fmt.Errorf("%w: nothing selected", common.ErrEmptyArgument)
	}
	items := make([]transfer.BulkItem, 0, len(selected))
	for _, f := range selected {
		items = append(items, transfer.BulkItem{FileID: f.ID, URL: f.URL, FileName: f.Name})
	}
	return b.engine.StartBulkDownload(ctx, items)
}

// DeleteSelected hands the selection to the delete coordinator and evicts
// the fully removed ids from the cached list and the selection set.
func (b *Browser) DeleteSelected(ctx context.Context) (*deleter.Result, error) {
	selected := b.Selected()
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: nothing selected", common.ErrEmptyArgument)
	}

	res, err := b.deleter.Delete(ctx, selected)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	removed := make(map[string]struct{}, len(res.DeletedIDs))
	for _, id := range res.DeletedIDs {
		removed[id] = struct{}{}
		delete(b.selected, id)
	}
	kept := b.list[:0]
	for _, f := range b.list {
		if _, ok := removed[f.ID]; !ok {
			kept = append(kept, f)
		}
	}
	b.list = kept
	b.mu.Unlock()

	return res, nil
}

// UsedStorage sums the sizes of every cached file.
func (b *Browser) UsedStorage() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	var total int64
	for _, f := range b.list {
		total += f.Size
	}
	return total
}
