package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/chafidzadlan/anotherfile/internal/client/browser"
	"github.com/chafidzadlan/anotherfile/internal/client/models"
)

func (a *App) list(ctx context.Context) {
	visible := a.browser.Visible(ctx)
	if len(visible) == 0 {
		fmt.Fprintln(a.out, "No files.")
		return
	}
	for _, f := range visible {
		mark := " "
		if a.browser.IsSelected(f.ID) {
			mark = "*"
		}
		folder := f.Folder
		if folder == "" {
			folder = "-"
		}
		fmt.Fprintf(a.out, "%s %s  %-30s %-10s %-8s %s  %s\n",
			mark, f.ID, f.Name, models.FormatSize(f.Size), f.Type, folder,
			f.CreatedAt.Format("2006-01-02 15:04"))
	}
}

func (a *App) refresh(ctx context.Context) {
	if err := a.browser.Refresh(ctx); err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	a.list(ctx)
}

func (a *App) search(ctx context.Context, args []string) {
	a.browser.SetSearch(strings.Join(args, " "))
	a.list(ctx)
}

func (a *App) folder(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: folder <my-drive|images|documents|recent>")
		return
	}
	v, err := browser.ParseView(args[0])
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	a.browser.SetView(v)
	a.list(ctx)
}

func (a *App) recent(ctx context.Context, args []string) {
	if len(args) != 2 {
		fmt.Fprintln(a.out, "Usage: recent <accessed|modified|downloaded> <day|week|month>")
		return
	}
	mode, err := browser.ParseRecentMode(args[0])
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	tf, err := browser.ParseTimeframe(args[1])
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	a.browser.SetRecent(mode, tf)
	a.list(ctx)
}

func (a *App) selectFile(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: select <id>")
		return
	}
	a.browser.ToggleSelect(args[0])
	fmt.Fprintf(a.out, "%d file(s) selected\n", len(a.browser.Selected()))
}

func (a *App) selectAll(ctx context.Context) {
	a.browser.ToggleSelectAll(ctx)
	fmt.Fprintf(a.out, "%d file(s) selected\n", len(a.browser.Selected()))
}

func (a *App) clearSelection() {
	a.browser.ClearSelection()
	fmt.Fprintln(a.out, "Selection cleared")
}

func (a *App) download(ctx context.Context, args []string) {
	var err error
	if len(args) == 1 {
		err = a.browser.Download(ctx, args[0])
	} else {
		err = a.browser.DownloadSelected(ctx)
	}
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintln(a.out, "Download started (see 'tasks')")
}

func (a *App) cancel(args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: cancel <id>")
		return
	}
	if !a.engine.Cancel(args[0]) {
		fmt.Fprintln(a.out, "No active download for", args[0])
	}
}

func (a *App) tasks() {
	tasks := a.engine.Tasks()
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No active downloads.")
		return
	}
	for _, t := range tasks {
		line := fmt.Sprintf("%s  %-30s %3d%%  %s", t.FileID, t.FileName, t.Progress, t.Status)
		if t.Error != "" {
			line += "  (" + t.Error + ")"
		}
		fmt.Fprintln(a.out, line)
	}
}

func (a *App) upload(ctx context.Context, args []string) {
	if len(args) < 1 || len(args) > 2 {
		fmt.Fprintln(a.out, "Usage: upload <path> [folder]")
		return
	}
	folder := ""
	if len(args) == 2 {
		folder = args[1]
	}
	rec, err := a.browser.Upload(ctx, args[0], folder)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintf(a.out, "Uploaded %s (%s) as %s\n", rec.Name, models.FormatSize(rec.Size), rec.ID)
}

func (a *App) deleteSelected(ctx context.Context) {
	res, err := a.browser.DeleteSelected(ctx)
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintf(a.out, "Deleted %d file(s), %d failed\n", res.Succeeded, res.Failed)
}

func (a *App) history(ctx context.Context) {
	entries := a.activity.History(ctx)
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No downloads yet.")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %-30s %s\n", e.ID, e.Name, e.Date.Format("2006-01-02 15:04:05"))
	}
}

func (a *App) view(ctx context.Context, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: view <id>")
		return
	}
	f, err := a.browser.MarkViewed(ctx, args[0])
	if err != nil {
		fmt.Fprintln(a.out, "Error:", err)
		return
	}
	fmt.Fprintln(a.out, "Name:   ", f.Name)
	fmt.Fprintln(a.out, "Size:   ", models.FormatSize(f.Size))
	fmt.Fprintln(a.out, "Type:   ", f.Type)
	fmt.Fprintln(a.out, "Folder: ", f.Folder)
	fmt.Fprintln(a.out, "URL:    ", f.URL)
	fmt.Fprintln(a.out, "Created:", f.CreatedAt.Format("2006-01-02 15:04:05"))
	if rec, ok := a.activity.Record(ctx, f.ID); ok {
		fmt.Fprintln(a.out, "Views:  ", rec.ViewCount)
		if t, ok := rec.LastDownloadedTime(); ok {
			fmt.Fprintln(a.out, "Last download:", t.Format("2006-01-02 15:04:05"))
		}
	}
}

func (a *App) usage() {
	fmt.Fprintln(a.out, "Used storage:", models.FormatSize(a.browser.UsedStorage()))
}
