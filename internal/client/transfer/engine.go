// Package transfer implements the client-side download engine: streamed
// fetches with incremental progress, cooperative cancellation, bounded
// automatic retries and staggered bulk starts. The engine tracks one
// transient task per file id; terminal entries are cleaned up on a timer.
package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/chafidzadlan/anotherfile/internal/client/models"
	"github.com/chafidzadlan/anotherfile/internal/client/notify"
	"github.com/chafidzadlan/anotherfile/internal/client/saver"
	"github.com/chafidzadlan/anotherfile/internal/common"
	"github.com/chafidzadlan/anotherfile/internal/logging"
)

// afterFunc is a test seam for timer scheduling.
var afterFunc = time.AfterFunc

const readChunkSize = 32 * 1024

// ActivityRecorder receives successful download completions. Calls are
// fire-and-forget; the implementation must not fail the download.
type ActivityRecorder interface {
	RecordDownload(ctx context.Context, fileID, fileName string)
}

// Config holds the engine's timing policy. Zero fields fall back to defaults.
type Config struct {
	// RemoveDelay is how long a completed task entry stays visible.
	RemoveDelay time.Duration
	// RetryDelay is the pause before a failed transfer is retried.
	RetryDelay time.Duration
	// StaggerDelay spaces out the starts of a bulk download.
	StaggerDelay time.Duration
	// MaxAttempts caps total attempts per download; without the cap a dead
	// URL would retry forever.
	MaxAttempts int
}

func DefaultConfig() Config {
	return Config{
		RemoveDelay:  3 * time.Second,
		RetryDelay:   2 * time.Second,
		StaggerDelay: 500 * time.Millisecond,
		MaxAttempts:  3,
	}
}

// BulkItem identifies one file of a bulk download.
type BulkItem struct {
	FileID   string
	URL      string
	FileName string
}

type Engine struct {
	fetcher  Fetcher
	saver    saver.Saver
	recorder ActivityRecorder
	notifier notify.Notifier
	log      logging.Logger
	cfg      Config

	mu      sync.Mutex
	tasks   map[string]*models.DownloadTask
	cancels map[string]context.CancelFunc
	closed  bool
	wg      sync.WaitGroup

	// progressFn, when set, observes every progress update (tests).
	progressFn func(fileID string, pct int)
}

func NewEngine(fetcher Fetcher, sv saver.Saver, recorder ActivityRecorder, notifier notify.Notifier, log logging.Logger, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.RemoveDelay <= 0 {
		cfg.RemoveDelay = def.RemoveDelay
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.StaggerDelay <= 0 {
		cfg.StaggerDelay = def.StaggerDelay
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	return &Engine{
		fetcher:  fetcher,
		saver:    sv,
		recorder: recorder,
		notifier: notifier,
		log:      log,
		cfg:      cfg,
		tasks:    make(map[string]*models.DownloadTask),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// StartDownload begins fetching url on its own goroutine and tracks progress
// under fileID. Starting an id that is already active replaces the tracked
// task; the prior transfer is left running and its outcome is discarded by
// whichever update lands last.
func (e *Engine) StartDownload(ctx context.Context, fileID, url, fileName string) error {
	if fileID == "" || url == "" {
		return fmt.Errorf("%w: file id and url are required", common.ErrEmptyArgument)
	}
	return e.start(ctx, fileID, url, fileName, 1)
}

func (e *Engine) start(ctx context.Context, fileID, url, fileName string, attempt int) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return common.ErrEngineClosed
	}
	dctx, cancel := context.WithCancel(ctx)
	e.cancels[fileID] = cancel
	e.tasks[fileID] = &models.DownloadTask{FileID: fileID, FileName: fileName, Status: models.TaskDownloading}
	e.wg.Add(1)
	e.mu.Unlock()

	go e.run(ctx, dctx, fileID, url, fileName, attempt)
	return nil
}

func (e *Engine) run(pctx, ctx context.Context, fileID, url, fileName string, attempt int) {
	defer e.wg.Done()

	data, err := e.fetch(ctx, fileID, url)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			// Cancelled: the task entry is already gone (Cancel removes it);
			// make sure teardown-aborted transfers disappear too.
			e.removeTask(fileID)
			return
		}
		e.fail(pctx, fileID, url, fileName, attempt, err)
		return
	}

	if err := e.saver.Save(fileName, data); err != nil {
		e.fail(pctx, fileID, url, fileName, attempt, fmt.Errorf("save file: %w", err))
		return
	}

	e.updateTask(fileID, func(t *models.DownloadTask) {
		t.Status = models.TaskComplete
		t.Progress = 100
		t.Error = ""
	})

	afterFunc(e.cfg.RemoveDelay, func() {
		e.removeTask(fileID)
		e.releaseToken(fileID)
	})

	e.recorder.RecordDownload(context.WithoutCancel(ctx), fileID, fileName)
}

func (e *Engine) fetch(ctx context.Context, fileID, url string) ([]byte, error) {
	body, total, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	var received int64

	for {
		n, err := body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			received += int64(n)
			if total > 0 {
				pct := int(math.Floor(math.Min(float64(received)/float64(total), 1) * 100))
				e.setProgress(fileID, pct)
			}
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func (e *Engine) fail(pctx context.Context, fileID, url, fileName string, attempt int, cause error) {
	e.updateTask(fileID, func(t *models.DownloadTask) {
		t.Status = models.TaskError
		t.Error = cause.Error()
	})
	e.log.Error(pctx, "download failed", "file_id", fileID, "attempt", attempt, "error", cause)

	if attempt >= e.cfg.MaxAttempts {
		e.log.Warn(pctx, "giving up on download", "file_id", fileID, "attempts", attempt)
		return
	}

	afterFunc(e.cfg.RetryDelay, func() {
		// Retry only while the token is still registered, i.e. the user has
		// not cancelled and the engine has not been closed.
		if !e.tokenRegistered(fileID) {
			return
		}
		_ = e.start(pctx, fileID, url, fileName, attempt+1)
	})
}

// Cancel triggers the cancellation token for fileID, removes its task entry
// and notifies the user. It reports whether a token was registered.
func (e *Engine) Cancel(fileID string) bool {
	e.mu.Lock()
	cancel, ok := e.cancels[fileID]
	if ok {
		delete(e.cancels, fileID)
		delete(e.tasks, fileID)
	}
	e.mu.Unlock()

	if !ok {
		return false
	}
	cancel()
	e.notifier.Info("Download cancelled", "")
	return true
}

// StartBulkDownload starts every item, spacing the starts StaggerDelay apart.
// A single item starts immediately with no staggering.
func (e *Engine) StartBulkDownload(ctx context.Context, items []BulkItem) error {
	if len(items) == 0 {
		return nil
	}
	if len(items) == 1 {
		it := items[0]
		return e.StartDownload(ctx, it.FileID, it.URL, it.FileName)
	}

	for i, it := range items {
		delay := time.Duration(i) * e.cfg.StaggerDelay
		if delay == 0 {
			if err := e.StartDownload(ctx, it.FileID, it.URL, it.FileName); err != nil {
				return err
			}
			continue
		}
		it := it
		afterFunc(delay, func() {
			_ = e.StartDownload(ctx, it.FileID, it.URL, it.FileName)
		})
	}
	return nil
}

// Tasks returns a snapshot of the tracked tasks, ordered by file id.
func (e *Engine) Tasks() []models.DownloadTask {
	e.mu.Lock()
	out := make([]models.DownloadTask, 0, len(e.tasks))
	for _, t := range e.tasks {
		out = append(out, *t)
	}
	e.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].FileID < out[j].FileID })
	return out
}

// Task returns the tracked task for fileID, if any.
func (e *Engine) Task(fileID string) (models.DownloadTask, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tasks[fileID]
	if !ok {
		return models.DownloadTask{}, false
	}
	return *t, true
}

// Close aborts every in-flight transfer and waits for their goroutines to
// drain. The engine rejects new downloads afterwards.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	cancels := make([]context.CancelFunc, 0, len(e.cancels))
	for _, c := range e.cancels {
		cancels = append(cancels, c)
	}
	e.cancels = make(map[string]context.CancelFunc)
	e.mu.Unlock()

	for _, c := range cancels {
		c()
	}
	e.wg.Wait()
}

func (e *Engine) setProgress(fileID string, pct int) {
	e.mu.Lock()
	t, ok := e.tasks[fileID]
	if ok && t.Status == models.TaskDownloading && pct > t.Progress {
		t.Progress = pct
	} else {
		ok = false
	}
	fn := e.progressFn
	e.mu.Unlock()

	if ok && fn != nil {
		fn(fileID, pct)
	}
}

func (e *Engine) updateTask(fileID string, fn func(*models.DownloadTask)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.tasks[fileID]; ok {
		fn(t)
	}
}

func (e *Engine) removeTask(fileID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.tasks, fileID)
}

func (e *Engine) tokenRegistered(fileID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.cancels[fileID]
	return ok
}

func (e *Engine) releaseToken(fileID string) {
	e.mu.Lock()
	cancel, ok := e.cancels[fileID]
	if ok {
		delete(e.cancels, fileID)
	}
	e.mu.Unlock()
	if ok {
		cancel()
	}
}
