package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/refs"
	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
	"github.com/aidanlsb/proveit/internal/ui"
)

var (
	setName      string
	setGroup     string
	setTemplate  string
	setContent   string
	setReformat  bool
	setNormalize bool
)

var setCmd = &cobra.Command{
	Use:   "set <file> <ref> [key=value...]",
	Short: "Change a reference's parameters, name or group",
	Long: `Change a reference in place, addressed by number or name.

Parameters are given as key=value. Aliases are accepted and written to the
parameter as it already appears; "key=" deletes the parameter. Deleting a
positional parameter ("2=") renumbers the positional parameters after it, and
a warning says so. Only the edited bytes change unless --reformat is given,
which rewrites the template in its canonical layout.

Renaming a reference with --name also renames every citation that reuses it.

Examples:
  proveit set article.wiki 3 title="On the Origin of Species" year=1859
  proveit set article.wiki origin access-date=
  proveit set article.wiki 2 --name darwin1859
  proveit set article.wiki 2 --template "Cite book" --reformat`,
	Args: cobra.MinimumNArgs(2),
	RunE: runSet,
}

func runSet(cmd *cobra.Command, args []string) error {
	assigns, err := parseAssignments(args[2:])
	if err != nil {
		return handleError(ErrInvalidInput, err, "Use key=value, e.g. title=Example")
	}

	doc, err := openDocumentOrFail(args[0])
	if doc == nil {
		return err
	}
	snap := doc.scan()
	r, n, err := findReferenceOrFail(snap, args[1])
	if r == nil {
		return err
	}

	if cmd.Flags().Changed("content") {
		r.Content = setContent
		r.Template = nil
		if tpl, ok := locator.Locate(setContent); ok {
			r.Template = tpl
		}
	}

	needsTemplate := len(assigns) > 0 || setTemplate != "" || setReformat || setNormalize
	if needsTemplate && r.Template == nil {
		return handleErrorMsg(ErrRefNotTemplate,
			fmt.Sprintf("reference %s is free text and has no template parameters", refLabel(n, r)),
			"Use --content to replace its text")
	}

	var warnings []Warning
	if r.Template != nil {
		if setTemplate != "" {
			canonical, _, err := resolveTemplate(setTemplate)
			if err != nil {
				return handleError(ErrTemplateNotFound, err, "Run 'proveit templates' to see known templates")
			}
			r.Template.Rename(canonical)
		}
		meta, _ := registry.Lookup(r.Template.Name)

		warnings = append(warnings, applyAssignments(r.Template, meta, assigns, refLabel(n, r))...)
		if setNormalize {
			r.Template.Normalize(meta)
		}
		if setReformat {
			reformat(r, meta)
		}
	}

	if cmd.Flags().Changed("name") {
		name := strings.TrimSpace(setName)
		if err := checkNameFree(snap, r, name); err != nil {
			return handleError(ErrInvalidInput, err, "Pick another name")
		}
		r.Name = name
	}
	if cmd.Flags().Changed("group") {
		r.Group = strings.TrimSpace(setGroup)
	}

	return writeReference(doc, r, n, warnings)
}

var renameCmd = &cobra.Command{
	Use:   "rename <file> <ref> <new-name>",
	Short: "Rename a reference and every citation of it",
	Long: `Rename a reference. Citations that reuse the reference by name are
renamed in the same write.

Examples:
  proveit rename article.wiki 2 darwin1859
  proveit rename article.wiki origin origin-of-species`,
	Args: cobra.ExactArgs(3),
	RunE: runRename,
}

func runRename(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[2])
	if name == "" {
		return handleErrorMsg(ErrMissingArgument, "new name is empty", "Use 'proveit set <file> <ref> --name \"\"' to remove a name")
	}

	doc, err := openDocumentOrFail(args[0])
	if doc == nil {
		return err
	}
	snap := doc.scan()
	r, n, err := findReferenceOrFail(snap, args[1])
	if r == nil {
		return err
	}
	if err := checkNameFree(snap, r, name); err != nil {
		return handleError(ErrInvalidInput, err, "Pick another name")
	}
	r.Name = name
	return writeReference(doc, r, n, nil)
}

// applyAssignments sets or deletes template parameters. An alias updates the
// parameter as written when present; otherwise the canonical name is used.
// It returns a warning for every key the template does not register.
func applyAssignments(t *template.Template, meta *templatedata.Metadata, assigns []assignment, ref string) []Warning {
	var warnings []Warning
	for _, a := range assigns {
		key := a.Key
		canonical, registered := meta.Canonical(key)
		if registered && !t.Params.Has(key) {
			key = canonical
		}
		if !registered && meta != nil {
			warnings = append(warnings, Warning{
				Code:    WarnUnknownParam,
				Message: fmt.Sprintf("%s does not define parameter %q", t.Name, a.Key),
				Ref:     ref,
			})
		}
		if registered && a.Value != "" {
			if p, ok := meta.Params.Get(canonical); ok && bool(p.Deprecated) {
				warnings = append(warnings, Warning{
					Code:    WarnDeprecatedParam,
					Message: fmt.Sprintf("%s parameter %q is deprecated", t.Name, canonical),
					Ref:     ref,
				})
			}
		}
		if a.Value == "" {
			if shiftsPositionals(&t.Params, key) {
				warnings = append(warnings, Warning{
					Code:    WarnPositionalShift,
					Message: fmt.Sprintf("deleting positional parameter %s renumbers the ones after it", key),
					Ref:     ref,
				})
			}
			t.Params.Delete(key)
			continue
		}
		t.Params.Set(key, a.Value)
	}
	return warnings
}

// shiftsPositionals reports whether deleting key would move a later
// positional parameter into its slot.
func shiftsPositionals(ps *template.Params, key string) bool {
	n, err := strconv.Atoi(key)
	if err != nil || n <= 0 || !ps.Has(key) {
		return false
	}
	for _, k := range ps.Keys() {
		if k.IsPositional() && k.Pos > n {
			return true
		}
	}
	return false
}

// reformat replaces the reference's template with its canonical rebuild.
// Text around the template is kept.
func reformat(r *refs.Reference, meta *templatedata.Metadata) {
	rebuilt := r.Template.Rebuild(formatFor(meta), meta.ParamOrder())
	content := r.RenderedContent()
	r.Content = strings.Replace(content, r.Template.String(), rebuilt, 1)

	name := r.Template.Name
	r.Template = template.Parse(rebuilt)
	r.Template.Name = name
}

// checkNameFree rejects a name another reference already uses.
func checkNameFree(snap *refs.Snapshot, r *refs.Reference, name string) error {
	if name == "" || name == r.Name {
		return nil
	}
	if other, ok := snap.ByName(name); ok && other != r {
		return fmt.Errorf("name %q is already used by reference %d", name, numberOf(snap, other))
	}
	return nil
}

// writeReference writes r back through the editor and reports the result.
func writeReference(doc *document, r *refs.Reference, n int, warnings []Warning) error {
	if !r.Modified() {
		if jsonOutput {
			outputSuccessWithWarnings(map[string]any{
				"file":    doc.path,
				"number":  n,
				"changed": false,
			}, warnings, &Meta{File: doc.path})
			return nil
		}
		printWarnings(warnings)
		fmt.Println(ui.Info("Nothing to change"))
		return nil
	}

	res, err := doc.editor.Update(r)
	if err != nil {
		return handleError(editErrorCode(err), err, editSuggestion(err))
	}

	if jsonOutput {
		outputSuccessWithWarnings(map[string]any{
			"file":    doc.path,
			"number":  n,
			"changed": true,
			"edit":    res,
		}, warnings, &Meta{File: doc.path})
		return nil
	}

	printWarnings(warnings)
	fmt.Println(ui.Successf("Updated reference %s in %s", refLabel(n, r), ui.FilePath(doc.path)))
	if cited := len(r.Citations); cited > 0 && r.Name != r.OriginalName() {
		fmt.Println(ui.Hint(fmt.Sprintf("  renamed %s", ui.Quantity(cited, "citation", "citations"))))
	}
	return nil
}

// printWarnings writes warnings to stderr in text mode.
func printWarnings(warnings []Warning) {
	for _, w := range warnings {
		fmt.Fprintln(stderr, ui.Warning(w.Message))
	}
}

// editSuggestion is the hint shown for a failed edit.
func editSuggestion(err error) string {
	switch editErrorCode(err) {
	case ErrTextChanged:
		return "The file changed while proveit was editing it; run the command again"
	case ErrRefNotFound:
		return "Run 'proveit list <file>' and try again"
	case ErrRefUnnamed:
		return "Give the reference a name with --name"
	case ErrOverlap:
		return "Choose a position outside the reference"
	case ErrOutOfRange:
		return "Offsets are byte positions within the file"
	}
	return ""
}

func init() {
	setCmd.Flags().StringVar(&setName, "name", "", "Rename the reference (empty removes the name)")
	setCmd.Flags().StringVar(&setGroup, "group", "", "Set the reference group (empty removes it)")
	setCmd.Flags().StringVarP(&setTemplate, "template", "t", "", "Change the template (name or alias)")
	setCmd.Flags().StringVar(&setContent, "content", "", "Replace the whole content between the tags")
	setCmd.Flags().BoolVar(&setReformat, "reformat", false, "Rewrite the template in its canonical layout and order")
	setCmd.Flags().BoolVar(&setNormalize, "normalize", false, "Rewrite aliased parameter names to canonical ones")
	rootCmd.AddCommand(setCmd)
	rootCmd.AddCommand(renameCmd)
}
