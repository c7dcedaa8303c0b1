package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/ui"
)

var removeCmd = &cobra.Command{
	Use:     "remove <file> <ref>",
	Aliases: []string{"rm"},
	Short:   "Delete a reference and its citations",
	Long: `Delete a reference together with every citation that reuses it, in one
write.

Examples:
  proveit remove article.wiki 4
  proveit rm article.wiki origin --json`,
	Args: cobra.ExactArgs(2),
	RunE: runRemove,
}

func runRemove(cmd *cobra.Command, args []string) error {
	doc, err := openDocumentOrFail(args[0])
	if doc == nil {
		return err
	}
	snap := doc.scan()
	r, n, err := findReferenceOrFail(snap, args[1])
	if r == nil {
		return err
	}

	res, err := doc.editor.Remove(r)
	if err != nil {
		return handleError(editErrorCode(err), err, editSuggestion(err))
	}

	if jsonOutput {
		outputSuccess(map[string]any{
			"file":      doc.path,
			"number":    n,
			"name":      r.Name,
			"citations": len(r.Citations),
			"edit":      res,
		}, &Meta{File: doc.path})
		return nil
	}

	fmt.Println(ui.Successf("Removed reference %s from %s", refLabel(n, r), ui.FilePath(doc.path)))
	if len(r.Citations) > 0 {
		fmt.Println(ui.Hint("  and " + ui.Quantity(len(r.Citations), "citation", "citations")))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(removeCmd)
}
