package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/edit"
	"github.com/aidanlsb/proveit/internal/refs"
	"github.com/aidanlsb/proveit/internal/ui"
)

var (
	citeAt    int
	citeTo    int
	citeAfter string
	citeName  string
)

var citeCmd = &cobra.Command{
	Use:   "cite <file> <ref>",
	Short: "Reuse a reference at another position",
	Long: `Insert a citation (<ref name="..." />) of an existing reference.

The citation replaces the text between --at and --to (byte offsets), or goes
right after another reference with --after, or at the end of the file. A
reference without a name is named first, in the same write: with --name, or
with a name derived from its label.

Examples:
  proveit cite article.wiki origin --at 1042
  proveit cite article.wiki 3 --after 5
  proveit cite article.wiki 3 --at 200 --name darwin1859`,
	Args: cobra.ExactArgs(2),
	RunE: runCite,
}

func runCite(cmd *cobra.Command, args []string) error {
	doc, err := openDocumentOrFail(args[0])
	if doc == nil {
		return err
	}
	snap := doc.scan()
	r, n, err := findReferenceOrFail(snap, args[1])
	if r == nil {
		return err
	}

	start, end, err := cursor(snap, citeAt, citeTo, citeAfter)
	if err != nil {
		return handleError(ErrOutOfRange, err, "Offsets are byte positions within the file")
	}
	name := strings.TrimSpace(citeName)
	if r.Name == "" {
		if err := checkNameFree(snap, r, name); err != nil {
			return handleError(ErrInvalidInput, err, "Pick another name")
		}
	}
	doc.buf.Select(start, end)

	wasNamed := r.Name != ""
	res, err := doc.editor.Cite(r, edit.CiteOptions{Name: name, AutoName: true})
	if err != nil {
		return handleError(editErrorCode(err), err, editSuggestion(err))
	}

	if jsonOutput {
		outputSuccess(map[string]any{
			"file":   doc.path,
			"number": n,
			"name":   res.Name,
			"named":  !wasNamed,
			"edit":   res,
		}, &Meta{File: doc.path})
		return nil
	}

	if !wasNamed {
		fmt.Println(ui.Successf("Named reference %d %q", n, res.Name))
	}
	fmt.Println(ui.Successf("Cited %s at %s in %s", res.Name, ui.Offset(start), ui.FilePath(doc.path)))
	return nil
}

// cursor turns --at/--to/--after into a selection. --after places the cursor
// right after the given reference.
func cursor(snap *refs.Snapshot, at, to int, after string) (int, int, error) {
	if after != "" {
		r, _, err := findReference(snap, after)
		if err != nil {
			return 0, 0, err
		}
		end := r.Span().End()
		return end, end, nil
	}
	return selectRange(snap.Text, at, to)
}

func addCursorFlags(cmd *cobra.Command, at, to *int, after *string) {
	cmd.Flags().IntVar(at, "at", -1, "Byte offset to insert at (default: end of file)")
	cmd.Flags().IntVar(to, "to", -1, "End of the byte range to replace (default: same as --at)")
	cmd.Flags().StringVar(after, "after", "", "Insert right after this reference (number or name)")
}

func init() {
	addCursorFlags(citeCmd, &citeAt, &citeTo, &citeAfter)
	citeCmd.Flags().StringVar(&citeName, "name", "", "Name to give the reference if it has none")
	rootCmd.AddCommand(citeCmd)
}
