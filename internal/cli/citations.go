package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/ui"
)

var citationsOrphans bool

type citationView struct {
	Name   string `json:"name"`
	Group  string `json:"group,omitempty"`
	Offset int    `json:"offset"`
	// Ref is the number of the reference the citation reuses, 0 for none.
	Ref int `json:"ref"`
}

var citationsCmd = &cobra.Command{
	Use:   "citations <file>",
	Short: "List the citations (<ref name=... />) in a file",
	Long: `List every self-closing citation with its byte offset and the reference
it reuses. A citation whose name matches no reference is an orphan.

Examples:
  proveit citations article.wiki
  proveit citations article.wiki --orphans --json`,
	Args: cobra.ExactArgs(1),
	RunE: runCitations,
}

func runCitations(cmd *cobra.Command, args []string) error {
	doc, err := openDocumentOrFail(args[0])
	if doc == nil {
		return err
	}
	snap := doc.scan()

	views := make([]citationView, 0, len(snap.Citations))
	for _, c := range snap.Citations {
		v := citationView{Name: c.Name, Group: c.Group, Offset: c.Span().Start}
		if r, ok := snap.ByName(c.Name); ok {
			v.Ref = numberOf(snap, r)
		}
		if citationsOrphans && v.Ref != 0 {
			continue
		}
		views = append(views, v)
	}

	if jsonOutput {
		outputSuccess(map[string]any{
			"file":      doc.path,
			"citations": views,
		}, &Meta{Count: len(views), File: doc.path})
		return nil
	}

	if len(views) == 0 {
		if citationsOrphans {
			fmt.Println(ui.Success("No orphan citations"))
		} else {
			fmt.Printf("No citations in %s\n", ui.FilePath(doc.path))
		}
		return nil
	}

	t := ui.NewTable(3)
	t.SetMaxWidth(ui.NewDisplayContext().TermWidth)
	for _, v := range views {
		target := ui.Warning("orphan")
		if v.Ref != 0 {
			target = ui.Hint(fmt.Sprintf("→ %d", v.Ref))
		}
		name := v.Name
		if name == "" {
			name = ui.Hint("(no name)")
		}
		if v.Group != "" {
			name += ui.Hint(" [" + v.Group + "]")
		}
		t.AddRow(ui.Offset(v.Offset), name, target)
	}
	fmt.Printf("%s %s\n\n", ui.FilePath(doc.path), ui.Count(len(views), "citation", "citations"))
	fmt.Print(t.String())
	return nil
}

func init() {
	citationsCmd.Flags().BoolVar(&citationsOrphans, "orphans", false, "Only citations that match no reference")
	rootCmd.AddCommand(citationsCmd)
}
