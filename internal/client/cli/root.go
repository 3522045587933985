package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// Root runs the command loop until exit or EOF. Command errors are printed
// and never end the loop.
func (a *App) Root(ctx context.Context) {
	fmt.Fprintln(a.out, "Drive CLI (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Fprintf(a.out, "drive %s> ", string(a.browser.CurrentView()))
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		if quit := a.Dispatch(ctx, parts[0], parts[1:]); quit {
			return
		}
	}
}

// Dispatch executes one command and reports whether the loop should stop.
func (a *App) Dispatch(ctx context.Context, cmd string, args []string) bool {
	switch cmd {
	case "help":
		a.help()
	case "list":
		a.list(ctx)
	case "refresh":
		a.refresh(ctx)
	case "search":
		a.search(ctx, args)
	case "folder":
		a.folder(ctx, args)
	case "recent":
		a.recent(ctx, args)
	case "select":
		a.selectFile(args)
	case "all":
		a.selectAll(ctx)
	case "clear":
		a.clearSelection()
	case "download":
		a.download(ctx, args)
	case "cancel":
		a.cancel(args)
	case "tasks":
		a.tasks()
	case "upload":
		a.upload(ctx, args)
	case "delete":
		a.deleteSelected(ctx)
	case "history":
		a.history(ctx)
	case "view":
		a.view(ctx, args)
	case "usage":
		a.usage()
	case "exit", "quit":
		fmt.Fprintln(a.out, "Bye!")
		return true
	default:
		fmt.Fprintln(a.out, "Unknown command:", cmd)
	}
	return false
}

func (a *App) help() {
	fmt.Fprintln(a.out, "Available commands:")
	fmt.Fprintln(a.out, "  list                      show files in the current view")
	fmt.Fprintln(a.out, "  refresh                   reload the file list")
	fmt.Fprintln(a.out, "  search [text]             filter by name (empty clears)")
	fmt.Fprintln(a.out, "  folder <view>             my-drive | images | documents | recent")
	fmt.Fprintln(a.out, "  recent <mode> <window>    accessed|modified|downloaded day|week|month")
	fmt.Fprintln(a.out, "  select <id>               toggle selection")
	fmt.Fprintln(a.out, "  all                       select/deselect everything visible")
	fmt.Fprintln(a.out, "  clear                     clear the selection")
	fmt.Fprintln(a.out, "  download [id]             download one file or the selection")
	fmt.Fprintln(a.out, "  cancel <id>               cancel an in-flight download")
	fmt.Fprintln(a.out, "  tasks                     show download progress")
	fmt.Fprintln(a.out, "  upload <path> [folder]    upload a local file")
	fmt.Fprintln(a.out, "  delete                    delete the selected files")
	fmt.Fprintln(a.out, "  history                   show the download history")
	fmt.Fprintln(a.out, "  view <id>                 show file details")
	fmt.Fprintln(a.out, "  usage                     show used storage")
	fmt.Fprintln(a.out, "  exit")
}
