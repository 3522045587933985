// Package cli is the interactive shell of the drive client. It wires the
// configuration into the stores and components and runs a small command loop
// on stdin.
package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/chafidzadlan/anotherfile/internal/client/activity"
	"github.com/chafidzadlan/anotherfile/internal/client/browser"
	"github.com/chafidzadlan/anotherfile/internal/client/config"
	"github.com/chafidzadlan/anotherfile/internal/client/deleter"
	"github.com/chafidzadlan/anotherfile/internal/client/kvstore"
	"github.com/chafidzadlan/anotherfile/internal/client/models"
	"github.com/chafidzadlan/anotherfile/internal/client/notify"
	"github.com/chafidzadlan/anotherfile/internal/client/objectstore"
	"github.com/chafidzadlan/anotherfile/internal/client/repositories/files"
	"github.com/chafidzadlan/anotherfile/internal/client/saver"
	"github.com/chafidzadlan/anotherfile/internal/client/session"
	"github.com/chafidzadlan/anotherfile/internal/client/transfer"
	"github.com/chafidzadlan/anotherfile/internal/logging"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// taskEngine is the slice of the transfer engine the shell talks to directly.
type taskEngine interface {
	Cancel(fileID string) bool
	Tasks() []models.DownloadTask
	Close()
}

type App struct {
	config   *config.Config
	browser  *browser.Browser
	engine   taskEngine
	activity *activity.Log
	log      logging.Logger
	out      io.Writer

	metaDB  *sql.DB
	localDB *sql.DB
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	ownerID, err := resolveOwner(c)
	if err != nil {
		return nil, err
	}

	metaDB, err := sql.Open("pgx", c.MetadataDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	localDB, err := kvstore.InitDatabase(ctx, c.LocalStorePath)
	if err != nil {
		metaDB.Close()
		return nil, fmt.Errorf("failed to open local state store: %w", err)
	}

	sv, err := saver.NewDirSaver(c.DownloadDir)
	if err != nil {
		metaDB.Close()
		localDB.Close()
		return nil, fmt.Errorf("failed to prepare download directory: %w", err)
	}

	blobs, err := objectstore.NewS3Store(ctx, objectstore.S3Config{
		Endpoint:   c.S3Endpoint,
		Region:     c.S3Region,
		Bucket:     c.S3Bucket,
		AccessKey:  c.S3AccessKey,
		SecretKey:  c.S3SecretKey,
		PublicBase: c.S3PublicBase,
	})
	if err != nil {
		metaDB.Close()
		localDB.Close()
		return nil, fmt.Errorf("failed to set up blob storage: %w", err)
	}

	notifier := notify.NewConsoleNotifier()
	act := activity.NewLog(kvstore.NewSQLiteStore(localDB), log)
	act.Reconcile(ctx)

	engine := transfer.NewEngine(
		transfer.NewHTTPFetcher(c.RequestTimeout),
		sv, act, notifier, log,
		transfer.Config{
			RemoveDelay:  c.RemoveDelay,
			RetryDelay:   c.RetryDelay,
			StaggerDelay: c.StaggerDelay,
			MaxAttempts:  c.MaxAttempts,
		})

	repo := files.NewPostgresRepository(metaDB)
	del := deleter.NewCoordinator(blobs, repo, notifier, log)
	b := browser.New(repo, act, engine, del, blobs, notifier, log, ownerID, c.MaxUploadSize)

	return &App{
		config:   c,
		browser:  b,
		engine:   engine,
		activity: act,
		log:      log,
		out:      os.Stdout,
		metaDB:   metaDB,
		localDB:  localDB,
	}, nil
}

func resolveOwner(c *config.Config) (string, error) {
	if c.AccessToken != "" {
		sess, err := session.FromToken(c.AccessToken)
		if err != nil {
			return "", err
		}
		return sess.UserID, nil
	}
	if c.OwnerID != "" {
		return c.OwnerID, nil
	}
	return "", errors.New("no access token or owner id configured")
}

// Run loads the file list and enters the command loop. In-flight transfers
// are aborted on exit.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	if err := a.browser.Refresh(ctx); err != nil {
		a.log.Error(ctx, "initial refresh failed", "error", err)
		fmt.Fprintln(a.out, "Warning: could not load file list:", err)
	}
	a.Root(ctx)
}

func (a *App) Close() {
	a.engine.Close()
	if a.metaDB != nil {
		a.metaDB.Close()
	}
	if a.localDB != nil {
		a.localDB.Close()
	}
}
