// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/config"
	"github.com/aidanlsb/proveit/internal/template"
	"github.com/aidanlsb/proveit/internal/templatedata"
	"github.com/aidanlsb/proveit/internal/ui"
)

var (
	// Global flags
	configPath    string
	templatesFlag string

	// Resolved values
	resolvedConfigPath string
	cfg                *config.Config
	registry           *templatedata.Registry
	locator            *template.Locator

	// stderr receives warnings and diagnostics; tests replace it.
	stderr io.Writer = os.Stderr
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "proveit",
	Short: "proveit - inspect and edit wikitext references",
	Long: `proveit finds the <ref> references and citation templates in wikitext,
lists and checks them, and edits them in place without disturbing the rest of
the text.

References are addressed by their number in document order (1, 2, ...) or by
their name.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		switch cmd.Name() {
		case "completion", "help", "version":
			return nil
		}
		if cmd.Parent() != nil {
			switch cmd.Parent().Name() {
			case "completion", "config":
				// config subcommands must work with a broken config file.
				return nil
			}
		}
		if err := setup(); err != nil {
			if jsonOutput {
				// The JSON error envelope has been printed; keep cobra quiet
				// and stop before the command runs.
				cmd.Root().SilenceErrors = true
			}
			return err
		}
		return nil
	},
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&templatesFlag, "templates", "", "TemplateData file (YAML or JSON) to use instead of the configured one")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for scripts and editors)")
}

// setup loads the config and the template registry.
func setup() error {
	var err error
	cfg, resolvedConfigPath, err = loadGlobalConfigWithPath()
	if err != nil {
		return reportError(ErrConfigInvalid, fmt.Errorf("failed to load config: %w", err), "Run 'proveit config path' to find the file")
	}
	ui.ConfigureTheme(cfg.UI.Accent)
	ui.ConfigureMarkdownCodeTheme(cfg.UI.CodeTheme)

	catalog := templatedata.Defaults()
	if path := cfg.ResolveTemplatesFile(templatesFlag); path != "" {
		catalog, err = templatedata.LoadFile(path)
		if err != nil {
			return reportError(ErrTemplatesInvalid, err, "Check the templates file or remove templates_file from config")
		}
	}
	registry = catalog.Registry().Merge(cfg.Redirects)
	locator = template.NewLocator(registry)
	return nil
}

// getConfig returns the loaded config.
func getConfig() *config.Config {
	if cfg == nil {
		return &config.Config{}
	}
	return cfg
}

// getConfigPath returns the resolved global config path.
func getConfigPath() string {
	if resolvedConfigPath != "" {
		return resolvedConfigPath
	}
	if strings.TrimSpace(configPath) != "" {
		return config.ExpandPath(configPath)
	}
	return config.DefaultPath()
}

func loadGlobalConfigWithPath() (*config.Config, string, error) {
	if strings.TrimSpace(configPath) != "" {
		path := config.ExpandPath(configPath)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return &config.Config{}, path, nil
		}
		loaded, err := config.LoadFrom(path)
		if err != nil {
			return nil, "", err
		}
		return loaded, path, nil
	}

	loaded, err := config.Load()
	if err != nil {
		return nil, "", err
	}
	return loaded, config.DefaultPath(), nil
}
