package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/export"
	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
	"github.com/aidanlsb/proveit/internal/ui"
)

var (
	showSource bool
	showFields bool
	showLang   string
)

// now is replaced in tests.
var now = time.Now

var showCmd = &cobra.Command{
	Use:   "show <file> <ref>",
	Short: "Show one reference",
	Long: `Show one reference, addressed by number or name.

By default the reference is rendered like a bibliography entry. --source
prints the wikitext exactly as it appears in the file; --fields lists the
template's parameters the way an edit form would, in canonical order with
labels, flags and placeholders.

Examples:
  proveit show article.wiki 3
  proveit show article.wiki origin --source
  proveit show article.wiki origin --fields --json`,
	Args: cobra.ExactArgs(2),
	RunE: runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	doc, err := openDocumentOrFail(args[0])
	if doc == nil {
		return err
	}
	snap := doc.scan()
	r, n, err := findReferenceOrFail(snap, args[1])
	if r == nil {
		return err
	}
	view := viewOf(snap, r, n)

	var fields []template.Field
	if r.Template != nil {
		fields = fieldsOf(r.Template)
	}

	if jsonOutput {
		data := map[string]any{"reference": view}
		if showFields {
			data["fields"] = fields
		}
		outputSuccess(data, &Meta{File: doc.path})
		return nil
	}

	switch {
	case showSource:
		fmt.Println(view.Source)
	case showFields:
		if r.Template == nil {
			return handleErrorMsg(ErrRefNotTemplate,
				fmt.Sprintf("reference %s is free text and has no template fields", refLabel(n, r)),
				"Use --source to see its content")
		}
		fmt.Printf("%s %s\n\n", ui.TemplateName(r.Template.Name), ui.Hint("reference "+refLabel(n, r)))
		fmt.Print(renderFields(fields, ui.NewDisplayContext().TermWidth))
	default:
		entries := []export.Entry{view.Entry}
		opts := export.Options{Title: "Reference " + refLabel(n, r), Source: true}
		dc := ui.NewDisplayContext()
		if !dc.IsTTY {
			fmt.Print(export.Markdown(entries, opts))
			return nil
		}
		out, err := export.Terminal(entries, opts, dc.TermWidth)
		if err != nil {
			return handleError(ErrInternal, err, "")
		}
		fmt.Print(out)
		fmt.Println(ui.Hint(fmt.Sprintf("%s %s", doc.path, ui.Offset(view.Offset))))
	}
	return nil
}

func renderFields(fields []template.Field, width int) string {
	t := ui.NewTable(4)
	t.SetMaxWidth(width)
	for _, f := range fields {
		value := f.Value
		if value == "" && f.Placeholder != "" {
			value = ui.Hint(f.Placeholder)
		}
		t.AddRow(f.Label, ui.Hint(f.Name), fieldFlags(f), value)
	}
	return t.String()
}

func fieldFlags(f template.Field) string {
	switch {
	case !f.Registered:
		return ui.Warning("unknown")
	case f.Deprecated:
		return ui.Warning("deprecated")
	case f.Required:
		return "required"
	case f.Suggested:
		return ui.Hint("suggested")
	case f.Textarea:
		return ui.Hint("multi-line")
	}
	return ""
}

// newFields lists the fields of an empty template, for building a new
// reference.
func newFields(name string, meta *templatedata.Metadata) []template.Field {
	return template.New(name, meta.Format()).Fields(meta, showLang, now())
}

func init() {
	showCmd.Flags().BoolVar(&showSource, "source", false, "Print the reference's wikitext")
	showCmd.Flags().BoolVar(&showFields, "fields", false, "List template fields with labels and flags")
	showCmd.Flags().StringVar(&showLang, "lang", "en", "Language for field labels")
	rootCmd.AddCommand(showCmd)
}
