package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
	"github.com/aidanlsb/proveit/internal/ui"
)

var templatesLimit int

type templateSummary struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Format      string   `json:"format"`
	Params      int      `json:"params"`
	Aliases     []string `json:"aliases,omitempty"`
}

var templatesCmd = &cobra.Command{
	Use:   "templates [name]",
	Short: "List known citation templates",
	Long: `List the templates proveit has metadata for.

With a name or alias, show that template's fields in canonical order. A name
that matches nothing lists the closest known names.

Examples:
  proveit templates
  proveit templates "cite web"
  proveit templates citeweb --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runTemplates,
}

func runTemplates(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return listTemplates()
	}

	query := args[0]
	canonical, ok := registry.Resolve(query)
	if !ok {
		suggestions := registry.Suggest(query, templatesLimit)
		if len(suggestions) == 0 {
			return handleErrorMsg(ErrTemplateNotFound, fmt.Sprintf("no template matches %q", query), "Run 'proveit templates' to see known templates")
		}
		if jsonOutput {
			outputSuccess(map[string]any{"query": query, "suggestions": suggestions}, &Meta{Count: len(suggestions)})
			return nil
		}
		fmt.Printf("No template named %q. Did you mean:\n", query)
		for _, s := range suggestions {
			fmt.Printf("  %s\n", ui.TemplateName(s))
		}
		return nil
	}

	meta, _ := registry.Lookup(canonical)
	fields := newFields(canonical, meta)
	summary := summarize(canonical, meta)

	if jsonOutput {
		outputSuccess(map[string]any{"template": summary, "fields": fields}, nil)
		return nil
	}

	fmt.Println(ui.Header(canonical))
	if summary.Description != "" {
		fmt.Println(summary.Description)
	}
	details := []string{"format " + summary.Format}
	if len(summary.Aliases) > 0 {
		details = append(details, "aliases "+strings.Join(summary.Aliases, ", "))
	}
	fmt.Println(ui.Hint(strings.Join(details, " · ")))
	fmt.Println()
	fmt.Print(renderFields(fields, ui.NewDisplayContext().TermWidth))
	return nil
}

func listTemplates() error {
	titles := registry.Titles()
	summaries := make([]templateSummary, 0, len(titles))
	for _, title := range titles {
		meta, _ := registry.Lookup(title)
		summaries = append(summaries, summarize(title, meta))
	}

	if jsonOutput {
		outputSuccess(map[string]any{"templates": summaries}, &Meta{Count: len(summaries)})
		return nil
	}

	if len(summaries) == 0 {
		fmt.Println("No templates loaded")
		return nil
	}
	t := ui.NewTable(3)
	t.SetMaxWidth(ui.NewDisplayContext().TermWidth)
	for _, s := range summaries {
		t.AddRow(ui.TemplateName(s.Name), ui.Hint(ui.Quantity(s.Params, "param", "params")), s.Description)
	}
	fmt.Print(t.String())
	return nil
}

func summarize(title string, meta *templatedata.Metadata) templateSummary {
	s := templateSummary{
		Name:    title,
		Format:  string(meta.Format()),
		Aliases: registry.AliasesOf(title),
	}
	if meta != nil {
		s.Description = meta.Description.In(showLang)
		s.Params = meta.Params.Len()
	}
	return s
}

// fieldsOf is the form view of an existing template reference.
func fieldsOf(t *template.Template) []template.Field {
	meta, _ := registry.Lookup(t.Name)
	return t.Fields(meta, showLang, now())
}

func init() {
	templatesCmd.Flags().IntVar(&templatesLimit, "limit", 5, "Maximum suggestions for an unknown name")
	rootCmd.AddCommand(templatesCmd)
}
