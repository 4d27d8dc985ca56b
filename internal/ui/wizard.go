package ui

import (
	"errors"
	"os"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/samsaffron/buddy-render/internal/config"
	"github.com/samsaffron/buddy-render/internal/highlight"
)

func getTTY() (*os.File, error) {
	return os.OpenFile("/dev/tty", os.O_RDWR, 0)
}

// ConfigForm builds the interactive form that edits cfg in place.
func ConfigForm(cfg *config.Config) *huh.Form {
	speed := strconv.FormatFloat(cfg.Animation.Speed, 'f', -1, 64)

	styleOpts := make([]huh.Option[string], 0)
	for _, name := range highlight.StyleNames() {
		styleOpts = append(styleOpts, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Animation mode").
				Options(
					huh.NewOption("Typewriter (characters appear in chunks)", "typewriter"),
					huh.NewOption("Fade (words fade in)", "fade"),
				).
				Value(&cfg.Animation.Mode),
			huh.NewInput().
				Title("Animation speed").
				Description("1 to 100; higher is faster").
				Value(&speed).
				Validate(func(s string) error {
					v, err := strconv.ParseFloat(s, 64)
					if err != nil || v <= 0 {
						return errors.New("enter a positive number")
					}
					cfg.Animation.Speed = v
					return nil
				}),
			huh.NewConfirm().
				Title("Animate streaming messages?").
				Value(&cfg.Animation.EnableTextAnimation),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Markdown engine").
				Options(
					huh.NewOption("Built-in", "regex"),
					huh.NewOption("Goldmark (CommonMark)", "goldmark"),
				).
				Value(&cfg.Markdown.Engine),
			huh.NewSelect[string]().
				Title("Code highlight style").
				Options(styleOpts...).
				Height(8).
				Value(&cfg.Highlight.Style),
		),
	)
}

// RunConfigWizard edits cfg interactively on the controlling terminal.
func RunConfigWizard(cfg *config.Config) error {
	form := ConfigForm(cfg)
	if tty, err := getTTY(); err == nil {
		defer tty.Close()
		form = form.WithInput(tty).WithOutput(tty)
	}
	if err := form.Run(); err != nil {
		return err
	}
	return cfg.Validate()
}
