package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/export"
	"github.com/aidanlsb/proveit/internal/ui"
)

var (
	listTemplate string
	listUnnamed  bool
)

var listCmd = &cobra.Command{
	Use:     "list <file>",
	Aliases: []string{"ls"},
	Short:   "List the references in a file",
	Long: `List every <ref>...</ref> reference in a file in document order, with its
number, name, template, label and how many citations reuse it.

Examples:
  proveit list article.wiki
  proveit list article.wiki --template "cite web"
  proveit list article.wiki --unnamed --json`,
	Args: cobra.ExactArgs(1),
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	doc, err := openDocumentOrFail(args[0])
	if doc == nil {
		return err
	}
	snap := doc.scan()

	var filterTemplate string
	if listTemplate != "" {
		filterTemplate, _, err = resolveTemplate(listTemplate)
		if err != nil {
			return handleError(ErrTemplateNotFound, err, "Run 'proveit templates' to see known templates")
		}
	}

	views := make([]refView, 0, len(snap.References))
	for i, r := range snap.References {
		if listUnnamed && r.Name != "" {
			continue
		}
		if filterTemplate != "" && (r.Template == nil || r.Template.Name != filterTemplate) {
			continue
		}
		views = append(views, viewOf(snap, r, i+1))
	}

	if jsonOutput {
		outputSuccess(map[string]any{
			"file":       doc.path,
			"references": views,
			"citations":  len(snap.Citations),
		}, &Meta{Count: len(views), File: doc.path})
		return nil
	}

	if len(views) == 0 {
		fmt.Printf("No references in %s\n", ui.FilePath(doc.path))
		return nil
	}

	fmt.Printf("%s %s\n\n", ui.FilePath(doc.path), ui.Count(len(views), "reference", "references"))
	fmt.Print(renderRefTable(views, ui.NewDisplayContext().TermWidth))
	return nil
}

func renderRefTable(views []refView, width int) string {
	numWidth := len(strconv.Itoa(views[len(views)-1].Number))
	t := ui.NewTable(5)
	t.SetMaxWidth(width)
	for _, v := range views {
		t.AddRow(
			ui.RefNum(v.Number, numWidth),
			nameCell(v.Entry),
			templateCell(v.Entry),
			citationsCell(v.Citations),
			v.Label,
		)
	}
	return t.String()
}

func nameCell(e export.Entry) string {
	name := e.Name
	if name == "" {
		name = ui.Hint("-")
	}
	if e.Group != "" {
		name += ui.Hint(" [" + e.Group + "]")
	}
	return name
}

func templateCell(e export.Entry) string {
	if e.Template == "" {
		return ui.Hint("text")
	}
	return ui.TemplateName(e.Template)
}

func citationsCell(n int) string {
	if n == 0 {
		return ""
	}
	return ui.Hint("×" + strconv.Itoa(n+1))
}

func init() {
	listCmd.Flags().StringVarP(&listTemplate, "template", "t", "", "Only references using this template (name or alias)")
	listCmd.Flags().BoolVar(&listUnnamed, "unnamed", false, "Only references without a name")
	rootCmd.AddCommand(listCmd)
}

