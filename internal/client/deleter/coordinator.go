// Package deleter runs the two-phase removal of drive files: blob first,
// metadata second. A metadata row is only removed once its blob is gone, so
// a failed blob delete never leaves an orphaned row pointing at nothing.
package deleter

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/chafidzadlan/anotherfile/internal/client/models"
	"github.com/chafidzadlan/anotherfile/internal/client/notify"
	"github.com/chafidzadlan/anotherfile/internal/client/objectstore"
	"github.com/chafidzadlan/anotherfile/internal/client/repositories/files"
	"github.com/chafidzadlan/anotherfile/internal/common"
	"github.com/chafidzadlan/anotherfile/internal/logging"
)

// Result summarizes one delete batch.
type Result struct {
	// DeletedIDs are the files fully removed (blob and metadata).
	DeletedIDs []string
	Succeeded  int
	Failed     int
}

type Coordinator struct {
	blobs    objectstore.Store
	repo     files.Repository
	notifier notify.Notifier
	log      logging.Logger

	busy atomic.Bool
}

func NewCoordinator(blobs objectstore.Store, repo files.Repository, notifier notify.Notifier, log logging.Logger) *Coordinator {
	return &Coordinator{blobs: blobs, repo: repo, notifier: notifier, log: log}
}

// Busy reports whether a delete batch is currently running.
func (c *Coordinator) Busy() bool {
	return c.busy.Load()
}

// Delete removes the given files one at a time. Each file's blob is deleted
// first; only when that succeeds is the metadata row removed. A failure on
// one file does not stop the batch. Only one batch may run at a time;
// a concurrent call gets ErrDeleteInProgress.
func (c *Coordinator) Delete(ctx context.Context, targets []models.FileRecord) (*Result, error) {
	if len(targets) == 0 {
		return &Result{}, nil
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, common.ErrDeleteInProgress
	}
	defer c.busy.Store(false)

	res := &Result{}
	for _, f := range targets {
		if err := c.deleteOne(ctx, f); err != nil {
			c.log.Error(ctx, "delete failed", "file_id", f.ID, "error", err)
			res.Failed++
			continue
		}
		res.DeletedIDs = append(res.DeletedIDs, f.ID)
		res.Succeeded++
	}

	c.notifyResult(res)
	return res, nil
}

func (c *Coordinator) deleteOne(ctx context.Context, f models.FileRecord) error {
	if err := c.blobs.Delete(ctx, f.Path); err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	if err := c.repo.DeleteByID(ctx, f.ID); err != nil {
		return fmt.Errorf("delete metadata: %w", err)
	}
	return nil
}

func (c *Coordinator) notifyResult(res *Result) {
	if res.Succeeded == 1 {
		c.notifier.Success("File deleted successfully", "")
	} else if res.Succeeded > 1 {
		c.notifier.Success(fmt.Sprintf("%d files deleted successfully", res.Succeeded), "")
	}
	if res.Failed > 0 {
		c.notifier.Error("Error", fmt.Sprintf("Failed to delete %d file(s)", res.Failed))
	}
}
