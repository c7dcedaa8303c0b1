package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/check"
	"github.com/aidanlsb/proveit/internal/ui"
)

var checkStrict bool

type issueView struct {
	File    string `json:"file"`
	Level   string `json:"level"`
	Type    string `json:"type"`
	Ref     int    `json:"ref,omitempty"`
	Name    string `json:"name,omitempty"`
	Param   string `json:"param,omitempty"`
	Offset  int    `json:"offset"`
	Message string `json:"message"`
}

var checkCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Validate the references in files",
	Long: `Checks references and citations for errors and warnings.

Errors: citations that match no reference, citations without a name, empty
references, one name defined twice with different content.
Warnings: missing required parameters, deprecated or unknown parameters,
parameters given twice, templates without metadata.

Exits with status 1 when errors are found (or warnings, with --strict).

Examples:
  proveit check article.wiki
  proveit check *.wiki --strict --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	validator := check.NewValidator(registry)

	var views []issueView
	var errorCount, warningCount int
	for _, path := range args {
		doc, err := openDocumentOrFail(path)
		if doc == nil {
			return err
		}
		for _, issue := range validator.Validate(doc.scan()) {
			if issue.Level == check.LevelError {
				errorCount++
			} else {
				warningCount++
			}
			views = append(views, issueView{
				File:    path,
				Level:   issue.Level.String(),
				Type:    string(issue.Type),
				Ref:     issue.Ref,
				Name:    issue.Name,
				Param:   issue.Param,
				Offset:  issue.Offset,
				Message: issue.Message,
			})
		}
	}

	failed := errorCount > 0 || (checkStrict && warningCount > 0)

	if jsonOutput {
		outputSuccess(map[string]any{
			"issues":   views,
			"errors":   errorCount,
			"warnings": warningCount,
			"passed":   !failed,
		}, &Meta{Count: len(views)})
	} else {
		for _, v := range views {
			where := v.File + ":" + ui.Offset(v.Offset)
			if v.Ref > 0 {
				where += ui.Hint(fmt.Sprintf(" ref %d", v.Ref))
			}
			if v.Level == check.LevelError.String() {
				fmt.Printf("%s  %s\n", ui.Error(v.Message), where)
			} else {
				fmt.Printf("%s  %s\n", ui.Warning(v.Message), where)
			}
		}
		if len(views) == 0 {
			fmt.Println(ui.Successf("No issues found in %s", ui.Quantity(len(args), "file", "files")))
		} else {
			fmt.Printf("\nFound issues %s in %s\n", ui.ErrorWarningCounts(errorCount, warningCount), ui.Quantity(len(args), "file", "files"))
		}
	}

	if failed {
		cmd.SilenceErrors = true
		return fmt.Errorf("check failed")
	}
	return nil
}

func init() {
	checkCmd.Flags().BoolVar(&checkStrict, "strict", false, "Treat warnings as errors")
	rootCmd.AddCommand(checkCmd)
}
