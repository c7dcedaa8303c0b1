package cli

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/proveit/internal/config"
	"github.com/aidanlsb/proveit/internal/ui"
)

// loadConfigAllowMissing loads the config file for the config commands,
// reporting whether it exists.
func loadConfigAllowMissing() (*config.Config, string, bool, error) {
	path := getConfigPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return &config.Config{}, path, false, nil
	}
	loaded, err := config.LoadFrom(path)
	if err != nil {
		return nil, path, true, err
	}
	return loaded, path, true, nil
}

func configData(c *config.Config, path string, exists bool) map[string]interface{} {
	redirects := make(map[string]string, len(c.Redirects))
	for alias, target := range c.Redirects {
		redirects[alias] = target
	}
	return map[string]interface{}{
		"config_path":      path,
		"exists":           exists,
		"templates_file":   strings.TrimSpace(c.TemplatesFile),
		"default_template": strings.TrimSpace(c.DefaultTemplate),
		"index_path":       c.ResolveIndexPath(""),
		"format":           strings.TrimSpace(c.Format),
		"redirects":        redirects,
		"ui": map[string]interface{}{
			"accent":     strings.TrimSpace(c.UI.Accent),
			"code_theme": strings.TrimSpace(c.UI.CodeTheme),
		},
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the proveit config file",
	Long: `Manage the global config file (config.toml).

Run 'proveit config path' to see where it lives; --config points elsewhere.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a commented default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := getConfigPath()
		created, err := config.CreateDefaultAt(path)
		if err != nil {
			return handleError(ErrFileWriteError, err, "")
		}

		if isJSONOutput() {
			outputSuccess(map[string]interface{}{
				"config_path": path,
				"created":     created,
			}, nil)
			return nil
		}
		if !created {
			fmt.Printf("Config file already exists: %s\n", ui.FilePath(path))
			return nil
		}
		fmt.Println(ui.Successf("Created %s", ui.FilePath(path)))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := getConfigPath()
		if isJSONOutput() {
			_, statErr := os.Stat(path)
			outputSuccess(map[string]interface{}{
				"config_path": path,
				"exists":      statErr == nil,
			}, nil)
			return nil
		}
		fmt.Println(path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current config",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	c, path, exists, err := loadConfigAllowMissing()
	if err != nil {
		return handleError(ErrConfigInvalid, err, "Fix the file or run 'proveit config set'")
	}

	if isJSONOutput() {
		outputSuccess(configData(c, path, exists), nil)
		return nil
	}

	if !exists {
		fmt.Printf("Config file does not exist: %s\n", path)
		fmt.Println("Run 'proveit config init' to create it.")
		return nil
	}

	fmt.Printf("config: %s\n", path)
	if v := strings.TrimSpace(c.TemplatesFile); v != "" {
		fmt.Printf("templates_file: %s\n", v)
	}
	if v := strings.TrimSpace(c.DefaultTemplate); v != "" {
		fmt.Printf("default_template: %s\n", v)
	}
	fmt.Printf("index_path: %s\n", c.ResolveIndexPath(""))
	if v := strings.TrimSpace(c.Format); v != "" {
		fmt.Printf("format: %s\n", v)
	}
	if v := strings.TrimSpace(c.UI.Accent); v != "" {
		fmt.Printf("ui.accent: %s\n", v)
	}
	if v := strings.TrimSpace(c.UI.CodeTheme); v != "" {
		fmt.Printf("ui.code_theme: %s\n", v)
	}

	if len(c.Redirects) == 0 {
		return nil
	}
	aliases := make([]string, 0, len(c.Redirects))
	for alias := range c.Redirects {
		aliases = append(aliases, alias)
	}
	sort.Strings(aliases)
	fmt.Println("redirects:")
	for _, alias := range aliases {
		fmt.Printf("  %s = %s\n", alias, c.Redirects[alias])
	}
	return nil
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value",
	Long: `Set a config value. An empty value clears it.

Keys: templates_file, default_template, index_path, format, ui.accent,
ui.code_theme, redirects.<alias>.

Examples:
  proveit config set default_template "Cite web"
  proveit config set redirects.cw "Cite web"
  proveit config set format ""`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	c, path, _, err := loadConfigAllowMissing()
	if err != nil {
		return handleError(ErrConfigInvalid, err, "Fix the file by hand; it could not be parsed")
	}
	if err := c.Set(args[0], args[1]); err != nil {
		return handleError(ErrInvalidInput, err, "")
	}
	if err := config.SaveTo(path, c); err != nil {
		return handleError(ErrFileWriteError, err, "")
	}

	if isJSONOutput() {
		outputSuccess(configData(c, path, true), nil)
		return nil
	}
	if strings.TrimSpace(args[1]) == "" {
		fmt.Println(ui.Successf("Cleared %s", args[0]))
	} else {
		fmt.Println(ui.Successf("Set %s = %s", args[0], strings.TrimSpace(args[1])))
	}
	return nil
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
