package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/index"
	"github.com/aidanlsb/proveit/internal/ui"
)

var (
	indexDBPath     string
	indexFull       bool
	indexExtensions []string

	searchLimit    int
	searchTemplate string
	searchParam    string
)

// openIndex opens the configured index database. A nil database with a nil
// error means the error was printed as JSON.
func openIndex() (*index.Database, string, bool, error) {
	path := getConfig().ResolveIndexPath(indexDBPath)
	db, rebuilt, err := index.OpenWithRebuild(path)
	if err != nil {
		if errors.Is(err, index.ErrIndexLocked) {
			return nil, path, false, handleError(ErrDatabaseLocked, err, "Another proveit process is indexing; try again shortly")
		}
		return nil, path, false, handleError(ErrDatabaseError, fmt.Errorf("failed to open index %s: %w", path, err), "")
	}
	return db, path, rebuilt, nil
}

var indexCmd = &cobra.Command{
	Use:   "index <dir>",
	Short: "Index the references of every wikitext file under a directory",
	Long: `Scan every wikitext file under a directory and store its references in the
SQLite index used by 'proveit search'.

By default only files changed since the last run are scanned, and deleted
files are dropped from the index. --full rebuilds everything. Indexing a
different directory than last time always rebuilds.

Examples:
  proveit index ~/articles
  proveit index . --ext wiki --ext txt --full`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func runIndex(cmd *cobra.Command, args []string) error {
	root, err := filepath.Abs(args[0])
	if err != nil {
		return handleError(ErrInvalidInput, err, "")
	}

	db, dbPath, rebuilt, err := openIndex()
	if db == nil {
		return err
	}
	defer db.Close()

	lock, err := index.AcquireLock(dbPath)
	if err != nil {
		return handleError(ErrDatabaseLocked, err, "Another proveit process is indexing; try again shortly")
	}
	defer lock.Release()

	full := indexFull || rebuilt
	previous, err := db.Root()
	if err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	if previous != "" && previous != root {
		full = true
		if !jsonOutput {
			fmt.Println(ui.Infof("Index was built for %s; rebuilding for %s", previous, root))
		}
	} else if rebuilt && !jsonOutput {
		fmt.Println(ui.Info("Index schema was outdated; performing full reindex."))
	}

	if !jsonOutput {
		fmt.Printf("Indexing %s\n", ui.FilePath(root))
	}

	start := time.Now()
	res, err := db.Reindex(root, locator, index.ReindexOptions{Extensions: indexExtensions, Full: full})
	if err != nil {
		return handleError(ErrDatabaseError, err, "Try again with --full")
	}
	if err := db.SetRoot(root); err != nil {
		return handleError(ErrDatabaseError, err, "")
	}
	took := time.Since(start)

	if jsonOutput {
		outputSuccess(map[string]any{
			"root":   root,
			"index":  dbPath,
			"full":   full,
			"result": res,
		}, &Meta{Count: res.Indexed, TookMs: took.Milliseconds()})
		return nil
	}

	for _, fe := range res.Errors {
		fmt.Fprintln(stderr, ui.Warningf("%s: %s", fe.Path, fe.Err))
	}
	if len(res.Removed) > 0 {
		fmt.Println(ui.Infof("Removed %s from the index", ui.Quantity(len(res.Removed), "deleted file", "deleted files")))
	}
	fmt.Println(ui.Successf("Indexed %s, %s %s",
		ui.Quantity(res.Indexed, "file", "files"),
		ui.Quantity(res.References, "reference", "references"),
		ui.Hint(fmt.Sprintf("(%d unchanged, %dms)", res.Skipped, took.Milliseconds()))))
	return nil
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed references",
	Long: `Search the references stored by 'proveit index'.

The query matches labels, names, templates and parameter values, ranked by
relevance. It supports phrases ("origin of species"), OR, NOT and prefixes
(evol*). Without a query, --template and --param list matching references.

Examples:
  proveit search darwin
  proveit search '"origin of species"' --limit 5
  proveit search --template "cite web" --param website=Nature`,
	Args: cobra.ArbitraryArgs,
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.TrimSpace(strings.Join(args, " "))
	filter := index.RefFilter{}
	if searchTemplate != "" {
		canonical, _, err := resolveTemplate(searchTemplate)
		if err != nil {
			return handleError(ErrTemplateNotFound, err, "Run 'proveit templates' to see known templates")
		}
		filter.Template = canonical
	}
	if searchParam != "" {
		assigns, err := parseAssignments([]string{searchParam})
		if err != nil {
			return handleError(ErrInvalidInput, err, "Use --param key=value")
		}
		filter.Param, filter.Value = assigns[0].Key, assigns[0].Value
	}
	filtered := filter != (index.RefFilter{})
	if query == "" && !filtered {
		return handleErrorMsg(ErrMissingArgument, "give a query, --template or --param", "proveit search <query>")
	}

	db, _, _, err := openIndex()
	if db == nil {
		return err
	}
	defer db.Close()
	root, _ := db.Root()

	results, err := searchIndex(db, query, filter, filtered)
	if err != nil {
		return handleError(ErrDatabaseError, err, "Run 'proveit index <dir>' first")
	}

	stale := staleFiles(db, root, results)

	if jsonOutput {
		outputSuccess(map[string]any{
			"query":   query,
			"root":    root,
			"results": results,
			"stale":   stale,
		}, &Meta{Count: len(results)})
		return nil
	}

	if len(results) == 0 {
		fmt.Printf("No results found for: %s\n", describeSearch(query, filter))
		return nil
	}

	fmt.Printf("Found %s for: %s\n\n", ui.Quantity(len(results), "result", "results"), describeSearch(query, filter))
	for i, r := range results {
		path := r.FilePath
		if root != "" {
			path = filepath.Join(root, filepath.FromSlash(r.FilePath))
		}
		fmt.Printf("%d. %s %s\n", i+1, r.Label, ui.Hint(refLabelFor(r.RefResult)))
		fmt.Printf("   %s%s\n", ui.FilePath(path), ui.Offset(r.Offset))
		if r.Snippet != "" {
			fmt.Printf("   %s\n", ui.Hint(strings.Join(strings.Fields(r.Snippet), " ")))
		}
	}
	if len(stale) > 0 {
		fmt.Println()
		fmt.Println(ui.Warningf("%s changed since indexing; run 'proveit index %s'",
			ui.Quantity(len(stale), "file", "files"), root))
	}
	return nil
}

// staleFiles lists the result files modified or deleted after they were
// indexed.
func staleFiles(db *index.Database, root string, results []index.SearchResult) []string {
	stale := []string{}
	if root == "" {
		return stale
	}
	seen := make(map[string]bool)
	for _, r := range results {
		if seen[r.FilePath] {
			continue
		}
		seen[r.FilePath] = true
		if ok, err := db.IsFileStale(root, r.FilePath); err == nil && ok {
			stale = append(stale, r.FilePath)
		}
	}
	return stale
}

// searchIndex runs a full-text query, a filter, or both. With both, only
// ranked matches that also pass the filter are kept.
func searchIndex(db *index.Database, query string, filter index.RefFilter, filtered bool) ([]index.SearchResult, error) {
	if query == "" {
		rows, err := db.Refs(filter)
		if err != nil {
			return nil, err
		}
		if len(rows) > searchLimit && searchLimit > 0 {
			rows = rows[:searchLimit]
		}
		out := make([]index.SearchResult, len(rows))
		for i, r := range rows {
			out[i] = index.SearchResult{RefResult: r}
		}
		return out, nil
	}

	if !filtered {
		return db.Search(query, searchLimit)
	}
	allowed, err := db.Refs(filter)
	if err != nil {
		return nil, err
	}
	ids := make(map[int64]bool, len(allowed))
	for _, r := range allowed {
		ids[r.ID] = true
	}
	matches, err := db.Search(query, len(allowed)+1)
	if err != nil {
		return nil, err
	}
	var out []index.SearchResult
	for _, m := range matches {
		if ids[m.ID] && (searchLimit <= 0 || len(out) < searchLimit) {
			out = append(out, m)
		}
	}
	return out, nil
}

func refLabelFor(r index.RefResult) string {
	parts := []string{fmt.Sprintf("ref %d", r.Number)}
	if r.Name != "" {
		parts = append(parts, r.Name)
	}
	if r.Template != "" {
		parts = append(parts, r.Template)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func describeSearch(query string, f index.RefFilter) string {
	var parts []string
	if query != "" {
		parts = append(parts, query)
	}
	if f.Template != "" {
		parts = append(parts, "template "+f.Template)
	}
	if f.Param != "" {
		parts = append(parts, f.Param+"="+f.Value)
	}
	return strings.Join(parts, ", ")
}

func init() {
	indexCmd.Flags().StringVar(&indexDBPath, "db", "", "Index database path (default: index_path from config)")
	indexCmd.Flags().BoolVar(&indexFull, "full", false, "Rebuild the whole index")
	indexCmd.Flags().StringSliceVar(&indexExtensions, "ext", nil, "File extensions to index (default: wiki, wikitext, mediawiki, txt)")
	rootCmd.AddCommand(indexCmd)

	searchCmd.Flags().StringVar(&indexDBPath, "db", "", "Index database path (default: index_path from config)")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "Maximum number of results")
	searchCmd.Flags().StringVarP(&searchTemplate, "template", "t", "", "Only references using this template")
	searchCmd.Flags().StringVar(&searchParam, "param", "", "Only references with this parameter value (key=value)")
	rootCmd.AddCommand(searchCmd)
}
