package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samsaffron/buddy-render/internal/content"
	"github.com/samsaffron/buddy-render/internal/message"
	"github.com/samsaffron/buddy-render/internal/render/typewriter"
	"github.com/samsaffron/buddy-render/internal/ui"
	"github.com/spf13/cobra"
)

var (
	playMode      string
	playSpeed     float64
	playChunkSize float64
	playDelay     float64
	playInline    bool
)

var playCmd = &cobra.Command{
	Use:   "play [file]",
	Short: "Play a message's streaming animation in the terminal",
	Long: `Play the typewriter or fade reveal of a message.

Keys: space pauses, s skips to the end, r restarts, q quits.
With --inline the animation is drawn in place without taking over the
screen. When stdout is not a terminal the final text is printed.

Examples:
  buddy-render play reply.md
  buddy-render play reply.md --mode fade --speed 60
  cat reply.md | buddy-render play --inline`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().StringVar(&playMode, "mode", "", "Animation mode: typewriter or fade (default from config)")
	playCmd.Flags().Float64Var(&playSpeed, "speed", 0, "Animation speed 1-100 (default from config)")
	playCmd.Flags().Float64Var(&playChunkSize, "chunk-size", 0, "Characters revealed per tick")
	playCmd.Flags().Float64Var(&playDelay, "delay", 0, "Milliseconds between ticks")
	playCmd.Flags().BoolVar(&playInline, "inline", false, "Draw in place instead of full screen")
	_ = playCmd.RegisterFlagCompletionFunc("mode", cobra.FixedCompletions(
		[]string{message.ModeTypewriter, message.ModeFade}, cobra.ShellCompDirectiveNoFileComp))
}

// playConfig applies flag overrides to the configured animation.
func playConfig(cmd *cobra.Command) (message.Config, error) {
	mc := messageConfig(cfg)
	mc.EnableTextAnimation = true
	if playMode != "" {
		if playMode != message.ModeTypewriter && playMode != message.ModeFade {
			return mc, fmt.Errorf("unknown mode %q (want typewriter or fade)", playMode)
		}
		mc.Mode = playMode
	}
	if cmd.Flags().Changed("speed") {
		mc.Speed = playSpeed
	}
	if cmd.Flags().Changed("chunk-size") {
		mc.ChunkSize = typewriter.Float(playChunkSize)
	}
	if cmd.Flags().Changed("delay") {
		mc.Delay = typewriter.Float(playDelay)
	}
	return mc, nil
}

func runPlay(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	text, err := readInput(path)
	if err != nil {
		return err
	}
	mc, err := playConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	proc := newProcessor(cfg)
	// Code should be highlighted from the first frame.
	if err := loadEngines(ctx, true); err != nil {
		return err
	}

	if !ui.IsTerminal(os.Stdout) {
		fmt.Fprintln(cmd.OutOrStdout(), ui.HTMLToText(proc.ProcessSync(text), ui.PlainStyles(os.Stdout), 0))
		return nil
	}
	if playInline {
		return playInlineAnimation(ctx, proc, mc, text)
	}

	frames := typewriter.NewManualFrames()
	msg := message.New(
		message.WithProcessor(proc),
		message.WithFrames(frames),
		message.WithConfig(mc),
	)
	defer msg.Close()
	msg.SetText(text)

	model := ui.NewPlayModel(msg, frames, ui.StylesFor(os.Stdout))
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// playInlineAnimation runs the animation on timer frames and repaints the
// current frame in place until the stream completes.
func playInlineAnimation(ctx context.Context, proc *content.Processor, mc message.Config, text string) error {
	done := make(chan struct{})
	var once sync.Once
	msg := message.New(
		message.WithProcessor(proc),
		message.WithFrames(typewriter.TickerFrames{}),
		message.WithConfig(mc),
	)
	defer msg.Close()
	msg.OnEvent(func(ev message.Event) {
		if ev.Type == message.EventStreamAnimationComplete {
			once.Do(func() { close(done) })
		}
	})
	msg.SetText(text)
	msg.SetStreaming(true)

	width := ui.Width(os.Stdout)
	st := ui.StylesFor(os.Stdout)
	painter := ui.NewRepainter(os.Stdout, width)

	ticker := time.NewTicker(4 * typewriter.FrameInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-done:
			return painter.Paint(ui.HTMLToText(msg.Render(), st, width))
		case <-ticker.C:
			if err := painter.Paint(ui.HTMLToText(msg.Render(), st, width)); err != nil {
				return err
			}
		}
	}
}
