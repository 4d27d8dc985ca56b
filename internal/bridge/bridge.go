// Package bridge is the boundary to the host environment: opening links in
// the user's browser and writing the clipboard.
package bridge

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"sync"

	"github.com/samsaffron/buddy-render/internal/clipboard"
)

// ErrUnsupported is returned when the host cannot perform an operation.
var ErrUnsupported = errors.New("bridge: unsupported")

// ErrUnsafeURL is returned for links whose scheme may not be opened.
var ErrUnsafeURL = errors.New("bridge: refusing to open url")

// Bridge is implemented by hosts.
type Bridge interface {
	OpenExternal(rawURL string) error
	WriteClipboard(text string) error
}

// CheckURL accepts absolute http, https and mailto URLs.
func CheckURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	switch u.Scheme {
	case "http", "https":
		if u.Host == "" {
			return fmt.Errorf("%w: missing host", ErrUnsafeURL)
		}
		return nil
	case "mailto":
		return nil
	}
	return fmt.Errorf("%w: scheme %q", ErrUnsafeURL, u.Scheme)
}

// System shells out to the platform's opener and clipboard tools.
type System struct{}

// OpenExternal implements Bridge.
func (System) OpenExternal(rawURL string) error {
	if err := CheckURL(rawURL); err != nil {
		return err
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("%w: open on %s", ErrUnsupported, runtime.GOOS)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", rawURL, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// WriteClipboard implements Bridge.
func (System) WriteClipboard(text string) error {
	if err := clipboard.CopyText(text); err != nil {
		if errors.Is(err, clipboard.ErrUnsupported) {
			return fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		return err
	}
	return nil
}

// Recorder keeps every request in memory. Hosts without a desktop (tests,
// the CLI in headless mode) use it.
type Recorder struct {
	mu        sync.Mutex
	Opened    []string
	Clipboard []string
	Err       error
}

// OpenExternal implements Bridge.
func (r *Recorder) OpenExternal(rawURL string) error {
	if err := CheckURL(rawURL); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Opened = append(r.Opened, rawURL)
	return nil
}

// WriteClipboard implements Bridge.
func (r *Recorder) WriteClipboard(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Clipboard = append(r.Clipboard, text)
	return nil
}

// Copied returns the last clipboard write.
func (r *Recorder) Copied() (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Clipboard) == 0 {
		return "", false
	}
	return r.Clipboard[len(r.Clipboard)-1], true
}
