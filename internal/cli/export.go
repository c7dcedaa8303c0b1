package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/atomicfile"
	"github.com/aidanlsb/proveit/internal/export"
	"github.com/aidanlsb/proveit/internal/ui"
)

var (
	exportFormat  string
	exportTitle   string
	exportAnchors bool
	exportSource  bool
	exportOutput  string
)

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the references of a file as a bibliography",
	Long: `Render every reference of a file as a bibliography.

Formats:
  markdown  one heading per reference with its fields (default)
  html      the markdown rendered to an HTML fragment
  term      styled for the terminal

Examples:
  proveit export article.wiki
  proveit export article.wiki --format html -o refs.html
  proveit export article.wiki --format term --title "Sources"
  proveit export article.wiki --source -o refs.md`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	doc, err := openDocumentOrFail(args[0])
	if doc == nil {
		return err
	}
	entries := export.Entries(doc.scan(), registry)

	title := exportTitle
	if title == "" {
		title = "References: " + strings.TrimSuffix(filepath.Base(doc.path), filepath.Ext(doc.path))
	}
	opts := export.Options{Title: title, Anchors: exportAnchors, Source: exportSource}

	var out string
	switch strings.ToLower(exportFormat) {
	case "markdown", "md":
		out = export.Markdown(entries, opts)
	case "html":
		out, err = export.HTML(entries, opts)
	case "term", "terminal":
		out, err = export.Terminal(entries, opts, ui.NewDisplayContext().TermWidth)
	default:
		return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("unknown format %q", exportFormat), "Use markdown, html or term")
	}
	if err != nil {
		return handleError(ErrInternal, err, "")
	}

	if exportOutput != "" {
		if err := atomicfile.WriteFile(exportOutput, []byte(out), 0o644); err != nil {
			return handleError(ErrFileWriteError, err, "")
		}
	}

	if jsonOutput {
		data := map[string]any{"file": doc.path, "format": exportFormat, "entries": entries}
		if exportOutput != "" {
			data["output"] = exportOutput
		} else {
			data["content"] = out
		}
		outputSuccess(data, &Meta{Count: len(entries), File: doc.path})
		return nil
	}

	if exportOutput != "" {
		fmt.Println(ui.Successf("Wrote %s to %s", ui.Quantity(len(entries), "reference", "references"), ui.FilePath(exportOutput)))
		return nil
	}
	fmt.Print(out)
	return nil
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Output format: markdown, html, term")
	exportCmd.Flags().StringVar(&exportTitle, "title", "", "Bibliography title (default: References: <file>)")
	exportCmd.Flags().BoolVar(&exportAnchors, "anchors", false, "Add {#ref-name} heading anchors to markdown")
	exportCmd.Flags().BoolVar(&exportSource, "source", false, "Include each reference's wikitext")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to this file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
