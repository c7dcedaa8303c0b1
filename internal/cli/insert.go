package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/refs"
	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
	"github.com/aidanlsb/proveit/internal/ui"
)

var (
	insertTemplate string
	insertContent  string
	insertName     string
	insertGroup    string
	insertAt       int
	insertTo       int
	insertAfter    string
)

var insertCmd = &cobra.Command{
	Use:   "insert <file> [key=value...]",
	Short: "Add a new reference",
	Long: `Build a new reference from a template and its parameters and insert it.

The template defaults to default_template from the config. Parameters are
written in the template's canonical order and layout. With --content and no
template the reference holds free text; with both, the text comes before the
template.

The reference replaces the text between --at and --to (byte offsets), or goes
right after another reference with --after, or at the end of the file.

Examples:
  proveit insert article.wiki -t "cite web" url=https://example.org title=Example --at 812
  proveit insert article.wiki -t "Cite book" last=Darwin title="On the Origin of Species" --name origin
  proveit insert article.wiki --content "Personal communication, 2019." --after 3`,
	Args: cobra.MinimumNArgs(1),
	RunE: runInsert,
}

func runInsert(cmd *cobra.Command, args []string) error {
	assigns, err := parseAssignments(args[1:])
	if err != nil {
		return handleError(ErrInvalidInput, err, "Use key=value, e.g. title=Example")
	}

	tplName := strings.TrimSpace(insertTemplate)
	if tplName == "" && !cmd.Flags().Changed("content") {
		tplName = strings.TrimSpace(getConfig().DefaultTemplate)
	}
	if tplName == "" && insertContent == "" {
		return handleErrorMsg(ErrMissingArgument, "nothing to insert: give --template or --content",
			"Set default_template with 'proveit config set default_template \"Cite web\"'")
	}
	if tplName == "" && len(assigns) > 0 {
		return handleErrorMsg(ErrInvalidInput, "parameters need a template", "Pass --template")
	}

	doc, err := openDocumentOrFail(args[0])
	if doc == nil {
		return err
	}
	snap := doc.scan()

	name := strings.TrimSpace(insertName)
	if _, taken := snap.ByName(name); name != "" && taken {
		return handleErrorMsg(ErrInvalidInput, fmt.Sprintf("name %q is already used", name), "Pick another name or cite the existing reference")
	}
	start, end, err := cursor(snap, insertAt, insertTo, insertAfter)
	if err != nil {
		return handleError(ErrOutOfRange, err, "Offsets are byte positions within the file")
	}

	var tpl *template.Template
	var warnings []Warning
	if tplName != "" {
		canonical, meta, err := resolveTemplate(tplName)
		if err != nil {
			return handleError(ErrTemplateNotFound, err, "Run 'proveit templates' to see known templates")
		}
		tpl, warnings = buildTemplate(canonical, meta, assigns)
	}

	r := refs.NewReference(name, strings.TrimSpace(insertGroup), insertContent, tpl)
	doc.buf.Select(start, end)
	res, err := doc.editor.Insert(r)
	if err != nil {
		return handleError(editErrorCode(err), err, editSuggestion(err))
	}

	if jsonOutput {
		outputSuccessWithWarnings(map[string]any{
			"file": doc.path,
			"name": r.Name,
			"edit": res,
		}, warnings, &Meta{File: doc.path})
		return nil
	}

	printWarnings(warnings)
	fmt.Println(ui.Successf("Inserted reference at %s in %s", ui.Offset(res.Start), ui.FilePath(doc.path)))
	fmt.Println(ui.Hint("  " + r.String()))
	return nil
}

// buildTemplate creates a template from assignments and renders it in its
// canonical layout. It warns about unknown parameters and about required
// ones left empty.
func buildTemplate(name string, meta *templatedata.Metadata, assigns []assignment) (*template.Template, []Warning) {
	format := formatFor(meta)
	t := template.New(name, format)
	warnings := applyAssignments(t, meta, assigns, "")

	built := template.Parse(t.Rebuild(format, meta.ParamOrder()))
	built.Name = name
	built.Format = format

	for _, key := range meta.ParamOrder() {
		p, _ := meta.Params.Get(key)
		if !p.Required {
			continue
		}
		if v, _ := built.Params.Get(key); v == "" {
			warnings = append(warnings, Warning{
				Code:    WarnMissingRequired,
				Message: fmt.Sprintf("%s requires %q", name, key),
			})
		}
	}
	return built, warnings
}

func init() {
	insertCmd.Flags().StringVarP(&insertTemplate, "template", "t", "", "Template to use (default: default_template from config)")
	insertCmd.Flags().StringVar(&insertContent, "content", "", "Free text for the reference")
	insertCmd.Flags().StringVar(&insertName, "name", "", "Name for the new reference")
	insertCmd.Flags().StringVar(&insertGroup, "group", "", "Group for the new reference")
	addCursorFlags(insertCmd, &insertAt, &insertTo, &insertAfter)
	rootCmd.AddCommand(insertCmd)
}
