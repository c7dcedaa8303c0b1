package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/buffer"
	"github.com/aidanlsb/proveit/internal/edit"
	"github.com/aidanlsb/proveit/internal/ui"
)

var normalizeDryRun bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize <file>",
	Short: "Rewrite aliased parameter names to canonical ones",
	Long: `Rewrite every aliased template parameter (e.g. "author1" for "author")
to its canonical name, in all references of a file. Values, unknown
parameters and layout are left as they are.

Examples:
  proveit normalize article.wiki --dry-run
  proveit normalize article.wiki`,
	Args: cobra.ExactArgs(1),
	RunE: runNormalize,
}

func runNormalize(cmd *cobra.Command, args []string) error {
	doc, err := openDocumentOrFail(args[0])
	if doc == nil {
		return err
	}

	editor := doc.editor
	if normalizeDryRun {
		editor = edit.New(buffer.NewMemory(doc.buf.Text()), locator)
	}
	n, res, err := editor.NormalizeAll()
	if err != nil {
		return handleError(editErrorCode(err), err, editSuggestion(err))
	}

	if jsonOutput {
		outputSuccess(map[string]any{
			"file":    doc.path,
			"changed": n,
			"dry_run": normalizeDryRun,
			"edit":    res,
		}, &Meta{Count: n, File: doc.path})
		return nil
	}

	switch {
	case n == 0:
		fmt.Println(ui.Success("Nothing to normalize"))
	case normalizeDryRun:
		fmt.Printf("Would normalize %s in %s\n", ui.Quantity(n, "reference", "references"), ui.FilePath(doc.path))
		fmt.Println(ui.Hint(fmt.Sprintf("  %s: %d bytes would change", ui.Offset(res.Start), len(res.Removed))))
	default:
		fmt.Println(ui.Successf("Normalized %s in %s", ui.Quantity(n, "reference", "references"), ui.FilePath(doc.path)))
	}
	return nil
}

func init() {
	normalizeCmd.Flags().BoolVar(&normalizeDryRun, "dry-run", false, "Report what would change without writing")
	rootCmd.AddCommand(normalizeCmd)
}
