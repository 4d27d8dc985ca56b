package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samsaffron/buddy-render/internal/config"
	"github.com/samsaffron/buddy-render/internal/content"
	"github.com/samsaffron/buddy-render/internal/highlight"
	"github.com/samsaffron/buddy-render/internal/logging"
	"github.com/samsaffron/buddy-render/internal/mathrender"
	"github.com/samsaffron/buddy-render/internal/message"
	"github.com/samsaffron/buddy-render/internal/ui"
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags.
var Version = "dev"

var (
	configFile string
	logLevel   string
	logFormat  string

	// cfg is the effective configuration, loaded before any command runs.
	cfg *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default $XDG_CONFIG_HOME/buddy-render/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Override log format (text, json)")
}

var rootCmd = &cobra.Command{
	Use:   "buddy-render",
	Short: "Render and animate assistant message text",
	Long: `buddy-render turns raw assistant message text (Markdown, fenced code,
$...$ math, or already-rendered HTML) into sanitized HTML and plays its
streaming reveal in the terminal.

Examples:
  buddy-render render notes.md              # HTML to stdout
  buddy-render render 'chats/**/*.md' -f text
  buddy-render render reply.md --watch --diff
  buddy-render play reply.md --mode fade
  buddy-render check page.html              # already rendered?
  buddy-render config init                  # interactive setup`,
	Version:           Version,
	SilenceUsage:      true,
	CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configFile != "" {
		return config.LoadFile(configFile)
	}
	return config.Load()
}

// setup loads config, configures logging and the shared highlighter.
func setup() error {
	c, err := loadConfig()
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Log.Level = logLevel
	}
	if logFormat != "" {
		c.Log.Format = logFormat
	}
	if err := logging.Init(c.Log.Level, c.Log.Format, os.Stderr); err != nil {
		return err
	}

	log := logging.For("cmd")
	if !highlight.HasStyle(c.Highlight.Style) {
		log.WithField("style", c.Highlight.Style).
			WithField("did_you_mean", highlight.SuggestStyles(c.Highlight.Style, 3)).
			Warn("unknown highlight style, using fallback")
	}
	if err := highlight.Default().SetStyle(c.Highlight.Style); err != nil {
		log.WithError(err).Debug("highlight style not applied")
	}

	cfg = c
	return nil
}

// loadEngines loads the math engine and, when highlighter is set, the
// highlighter. Load failures other than cancellation only degrade output.
func loadEngines(ctx context.Context, highlighter bool) error {
	log := logging.For("cmd")
	if err := mathrender.Default().Load(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("math engine unavailable")
	}
	if !highlighter {
		return nil
	}
	if err := highlight.Default().Load(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("highlighter unavailable")
	}
	return nil
}

func newProcessor(c *config.Config) *content.Processor {
	return content.New(
		content.WithEngine(c.Markdown.Engine),
		content.WithSanitize(c.Markdown.Sanitize),
	)
}

func messageConfig(c *config.Config) message.Config {
	a := c.Animation
	return message.Config{
		Mode:                a.Mode,
		Speed:               a.Speed,
		FadeDuration:        a.FadeDuration,
		SegmentDelay:        a.SegmentDelay,
		ChunkSize:           a.ChunkSize,
		Delay:               a.Delay,
		EnableTextAnimation: a.EnableTextAnimation,
	}
}

// readInput reads path, or stdin when path is empty or "-".
func readInput(path string) (string, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// stylesFor returns colored styles for a terminal and plain styles for
// anything else.
func stylesFor(w io.Writer) *ui.Styles {
	if f, ok := w.(*os.File); ok {
		return ui.StylesFor(f)
	}
	return ui.PlainStyles(w)
}

// signalContext is cancelled on interrupt or terminate.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
