package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samsaffron/buddy-render/internal/bridge"
	"github.com/samsaffron/buddy-render/internal/content"
	"github.com/samsaffron/buddy-render/internal/message"
	"github.com/spf13/cobra"
)

var copyCmd = &cobra.Command{
	Use:   "copy <file> [n]",
	Short: "Copy the nth code block of a message to the clipboard",
	Long: `Copy the source of a code block (the first by default) to the system
clipboard, as the message's copy button does.

Examples:
  buddy-render copy reply.md
  buddy-render copy reply.md 2`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runCopy,
}

var openCmd = &cobra.Command{
	Use:   "open <file> [n]",
	Short: "Open the nth link of a message in the browser",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runOpen,
}

func init() {
	rootCmd.AddCommand(copyCmd)
	rootCmd.AddCommand(openCmd)
}

// loadMessage renders the message in file with the highlighter loaded, so
// code ids match what render prints.
func loadMessage(ctx context.Context, path string, b bridge.Bridge) (*message.Message, string, error) {
	text, err := readInput(path)
	if err != nil {
		return nil, "", err
	}
	if err := loadEngines(ctx, true); err != nil {
		return nil, "", err
	}
	msg := message.New(message.WithProcessor(newProcessor(cfg)), message.WithBridge(b))
	msg.SetText(text)
	return msg, msg.Render(), nil
}

// pick returns the nth (1-based, from args[1]) element of items.
func pick(args []string, items []string, what string) (string, error) {
	n := 1
	if len(args) == 2 {
		v, err := strconv.Atoi(args[1])
		if err != nil || v < 1 {
			return "", fmt.Errorf("invalid %s number %q", what, args[1])
		}
		n = v
	}
	if len(items) == 0 {
		return "", fmt.Errorf("message has no %ss", what)
	}
	if n > len(items) {
		return "", fmt.Errorf("message has %d %ss, asked for %d", len(items), what, n)
	}
	return items[n-1], nil
}

func runCopy(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	msg, html, err := loadMessage(ctx, args[0], bridge.System{})
	if err != nil {
		return err
	}
	id, err := pick(args, content.CodeIDs(html), "code block")
	if err != nil {
		return err
	}

	var copied string
	msg.OnEvent(func(ev message.Event) {
		if ev.Type == message.EventCodeCopied {
			copied = ev.Code
		}
	})
	if err := msg.CopyCode(id); err != nil {
		return err
	}
	st := stylesFor(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), st.FormatResult(true, fmt.Sprintf("copied %d characters", len([]rune(copied)))))
	return nil
}

func runOpen(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	msg, html, err := loadMessage(ctx, args[0], bridge.System{})
	if err != nil {
		return err
	}
	link, err := pick(args, content.Links(html), "link")
	if err != nil {
		return err
	}
	return msg.OpenLink(link)
}
