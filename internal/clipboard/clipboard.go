package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// ErrUnsupported is returned when no clipboard utility is available.
var ErrUnsupported = errors.New("clipboard not supported")

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// writeCommand picks the utility that writes the clipboard on goos.
func writeCommand(goos string) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{"pbcopy"}, nil
	case "linux":
		// Try wl-copy first (Wayland), then xclip (X11)
		if _, err := lookPath("wl-copy"); err == nil {
			return []string{"wl-copy"}, nil
		}
		if _, err := lookPath("xclip"); err == nil {
			return []string{"xclip", "-selection", "clipboard"}, nil
		}
		return nil, fmt.Errorf("%w: install wl-copy or xclip", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w on %s", ErrUnsupported, goos)
	}
}

// readCommand picks the utility that reads the clipboard on goos.
func readCommand(goos string) ([]string, error) {
	switch goos {
	case "darwin":
		return []string{"pbpaste"}, nil
	case "linux":
		if _, err := lookPath("wl-paste"); err == nil {
			return []string{"wl-paste", "--no-newline"}, nil
		}
		if _, err := lookPath("xclip"); err == nil {
			return []string{"xclip", "-selection", "clipboard", "-o"}, nil
		}
		return nil, fmt.Errorf("%w: install wl-paste or xclip", ErrUnsupported)
	default:
		return nil, fmt.Errorf("%w on %s", ErrUnsupported, goos)
	}
}

// CopyText copies text to the system clipboard
func CopyText(text string) error {
	args, err := writeCommand(runtime.GOOS)
	if err != nil {
		return err
	}
	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// ReadText returns the clipboard contents.
func ReadText() (string, error) {
	args, err := readCommand(runtime.GOOS)
	if err != nil {
		return "", err
	}
	cmd := exec.Command(args[0], args[1:]...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return out.String(), nil
}
