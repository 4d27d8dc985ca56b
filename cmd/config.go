package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/samsaffron/buddy-render/internal/config"
	"github.com/samsaffron/buddy-render/internal/highlight"
	"github.com/samsaffron/buddy-render/internal/ui"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage buddy-render configuration",
	Long: `View or edit your buddy-render configuration.

Examples:
  buddy-render config                  # show effective config
  buddy-render config init             # interactive setup
  buddy-render config styles mono      # find a highlight style
  buddy-render config css > hl.css     # stylesheet for rendered code`,
	RunE: configShow, // Default to show
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print configuration file path",
	RunE:  configPath,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or update the config file interactively",
	RunE:  configInit,
}

var configStylesCmd = &cobra.Command{
	Use:   "styles [query]",
	Short: "List highlight styles, or the closest matches to query",
	Args:  cobra.MaximumNArgs(1),
	RunE:  configStyles,
}

var configCSSCmd = &cobra.Command{
	Use:   "css",
	Short: "Print the stylesheet for the configured highlight style",
	RunE:  configCSS,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configStylesCmd)
	configCmd.AddCommand(configCSSCmd)
}

func configShow(cmd *cobra.Command, args []string) error {
	configPath, err := config.GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case configFile != "":
		fmt.Fprintf(out, "# %s\n\n", configFile)
	case !config.Exists():
		fmt.Fprintf(out, "# No config file (using defaults)\n")
		fmt.Fprintf(out, "# Create one at: %s\n\n", configPath)
	default:
		fmt.Fprintf(out, "# %s\n\n", configPath)
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func configPath(cmd *cobra.Command, args []string) error {
	path, err := config.GetConfigPath()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), path)
	return nil
}

func configInit(cmd *cobra.Command, args []string) error {
	edited := *cfg
	if err := ui.RunConfigWizard(&edited); err != nil {
		return err
	}
	path := configFile
	if path == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := config.SaveFile(&edited, path); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Config saved to %s\n", path)
	return nil
}

func configStyles(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, name := range highlight.StyleNames() {
			marker := "  "
			if name == cfg.Highlight.Style {
				marker = "* "
			}
			fmt.Fprintln(out, marker+name)
		}
		return nil
	}

	matches := highlight.SuggestStyles(args[0], 10)
	if len(matches) == 0 {
		return fmt.Errorf("no style matches %q", args[0])
	}
	fmt.Fprintln(out, strings.Join(matches, "\n"))
	return nil
}

func configCSS(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	if err := loadEngines(ctx, true); err != nil {
		return err
	}
	css, err := highlight.Default().CSS()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), css)
	return err
}
