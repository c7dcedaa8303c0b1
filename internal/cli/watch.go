package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/check"
	"github.com/aidanlsb/proveit/internal/index"
	"github.com/aidanlsb/proveit/internal/ui"
	"github.com/aidanlsb/proveit/internal/watcher"
)

var (
	watchIndex bool
	watchDebug bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <file|dir>",
	Short: "Re-check files whenever they change",
	Long: `Watch a file or a directory tree and re-scan each wikitext file when it is
saved, reporting its references and any errors.

With --index the reference index is brought up to date first and kept in
sync while watching, so 'proveit search' always sees the latest text.

Press Ctrl+C to stop.

Examples:
  proveit watch article.wiki
  proveit watch ~/articles --index
  proveit watch ~/drafts --ext md`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	target, err := filepath.Abs(args[0])
	if err != nil {
		return handleError(ErrInvalidInput, err, "")
	}
	info, err := os.Stat(target)
	if err != nil {
		return handleError(ErrFileNotFound, err, "Check the path")
	}

	var db *index.Database
	if watchIndex {
		if !info.IsDir() {
			return handleErrorMsg(ErrInvalidInput, "--index needs a directory", "Watch the directory that holds the file")
		}
		var dbPath string
		db, dbPath, _, err = openIndex()
		if db == nil {
			return err
		}
		defer db.Close()

		lock, err := index.AcquireLock(dbPath)
		if err != nil {
			return handleError(ErrDatabaseLocked, err, "Another proveit process is using the index")
		}
		defer lock.Release()

		previous, _ := db.Root()
		res, err := db.Reindex(target, locator, index.ReindexOptions{Extensions: indexExtensions, Full: previous != "" && previous != target})
		if err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		if err := db.SetRoot(target); err != nil {
			return handleError(ErrDatabaseError, err, "")
		}
		if !jsonOutput {
			fmt.Println(ui.Infof("Index up to date: %s, %s",
				ui.Quantity(res.Indexed+res.Skipped, "file", "files"),
				ui.Quantity(res.References, "new reference", "new references")))
		}
	}

	validator := check.NewValidator(registry)
	w, err := watcher.New(watcher.Config{
		Root:       target,
		Database:   db,
		Locator:    locator,
		Extensions: indexExtensions,
		Debug:      watchDebug,
		OnChange:   func(ch watcher.Change) { reportChange(ch, validator) },
	})
	if err != nil {
		return handleError(ErrInvalidInput, err, "")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !jsonOutput {
		fmt.Printf("Watching %s %s\n", ui.FilePath(target), ui.Hint("(Ctrl+C to stop)"))
	}
	if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return handleError(ErrInternal, err, "")
	}
	return nil
}

// reportChange prints one line per processed file, or one JSON envelope.
func reportChange(ch watcher.Change, validator *check.Validator) {
	var issues []check.Issue
	if ch.Snapshot != nil {
		issues = validator.Validate(ch.Snapshot)
	}
	var errorCount int
	for _, issue := range issues {
		if issue.Level == check.LevelError {
			errorCount++
		}
	}

	if jsonOutput {
		data := map[string]any{
			"file":    ch.RelativePath,
			"removed": ch.Removed,
		}
		var warnings []Warning
		if ch.Snapshot != nil {
			data["references"] = len(ch.Snapshot.References)
			data["citations"] = len(ch.Snapshot.Citations)
			data["errors"] = errorCount
			data["warnings"] = len(issues) - errorCount
		}
		if ch.Err != nil {
			warnings = append(warnings, Warning{Code: WarnIndexUpdateFailed, Message: ch.Err.Error()})
		}
		outputSuccessWithWarnings(data, warnings, nil)
		return
	}

	switch {
	case ch.Removed:
		fmt.Println(ui.Infof("%s removed", ch.RelativePath))
	case ch.Snapshot == nil:
		fmt.Fprintln(stderr, ui.Warningf("%s: %v", ch.RelativePath, ch.Err))
		return
	default:
		line := fmt.Sprintf("%s %s", ch.RelativePath, ui.Count(len(ch.Snapshot.References), "reference", "references"))
		if len(issues) > 0 {
			fmt.Println(ui.Warningf("%s %s", line, ui.ErrorWarningCounts(errorCount, len(issues)-errorCount)))
		} else {
			fmt.Println(ui.Success(line))
		}
	}
	if ch.Err != nil {
		fmt.Fprintln(stderr, ui.Warningf("index not updated: %v", ch.Err))
	}
}

func init() {
	watchCmd.Flags().BoolVar(&watchIndex, "index", false, "Keep the reference index in sync")
	watchCmd.Flags().BoolVar(&watchDebug, "debug", false, "Print file events to stderr")
	watchCmd.Flags().StringSliceVar(&indexExtensions, "ext", nil, "File extensions to watch (default: wiki, wikitext, mediawiki, txt)")
	watchCmd.Flags().StringVar(&indexDBPath, "db", "", "Index database path (default: index_path from config)")
	rootCmd.AddCommand(watchCmd)
}
