package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"
	"github.com/samsaffron/buddy-render/internal/clipboard"
	"github.com/samsaffron/buddy-render/internal/content"
	"github.com/samsaffron/buddy-render/internal/guard"
	"github.com/samsaffron/buddy-render/internal/logging"
	"github.com/samsaffron/buddy-render/internal/ui"
	"github.com/spf13/cobra"
)

// Output formats.
const (
	formatHTML = "html"
	formatText = "text"
	formatANSI = "ansi"
)

var (
	renderFormat  string
	renderAsync   bool
	renderWidth   int
	renderExclude []string
	renderWatch   bool
	renderDiff    bool
	renderPaste   bool
)

var renderCmd = &cobra.Command{
	Use:   "render [files|globs...]",
	Short: "Render message text to HTML or terminal text",
	Long: `Render raw message text through the content pipeline.

With no arguments the message is read from stdin, or from the clipboard
with --paste. Arguments may be
doublestar globs; --exclude takes glob patterns matched against each path.
Input that is already rendered HTML is passed through unchanged.

Examples:
  buddy-render render reply.md
  cat reply.md | buddy-render render -f text
  buddy-render render --paste -f text
  buddy-render render 'chats/**/*.md' --exclude '**/draft-*'
  buddy-render render reply.md --watch --diff`,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", formatHTML, "Output format: html, text or ansi")
	renderCmd.Flags().BoolVar(&renderAsync, "async", true, "Wait for the highlighter before rendering (false renders code unhighlighted)")
	renderCmd.Flags().IntVarP(&renderWidth, "width", "w", 0, "Wrap width for text/ansi output (default: terminal width)")
	renderCmd.Flags().StringSliceVar(&renderExclude, "exclude", nil, "Glob patterns of paths to skip")
	renderCmd.Flags().BoolVar(&renderWatch, "watch", false, "Re-render files when they change")
	renderCmd.Flags().BoolVar(&renderDiff, "diff", false, "With --watch, print a diff against the previous render")
	renderCmd.Flags().BoolVar(&renderPaste, "paste", false, "Render the clipboard contents")
	_ = renderCmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions(
		[]string{formatHTML, formatText, formatANSI}, cobra.ShellCompDirectiveNoFileComp))
}

// renderer renders one message in the selected format.
type renderer struct {
	proc   *content.Processor
	format string
	async  bool
	width  int
	styles *ui.Styles
}

func newRenderer(proc *content.Processor, format string, async bool, width int, styles *ui.Styles) (*renderer, error) {
	switch format {
	case formatHTML, formatText, formatANSI:
	default:
		return nil, fmt.Errorf("unknown format %q (want html, text or ansi)", format)
	}
	return &renderer{proc: proc, format: format, async: async, width: width, styles: styles}, nil
}

// Render returns the formatted output for raw text.
func (r *renderer) Render(ctx context.Context, text string) (string, error) {
	if r.format == formatANSI {
		return ui.RenderMarkdownWithError(text, r.width)
	}

	var markup string
	switch {
	case guard.IsContentAlreadyRendered(text):
		markup = text
	case r.async:
		out, err := r.proc.Process(ctx, text)
		if err != nil {
			return "", err
		}
		markup = out
	default:
		markup = r.proc.ProcessSync(text)
	}

	if r.format == formatText {
		return ui.HTMLToText(markup, r.styles, r.width), nil
	}
	return markup, nil
}

// expandInputs resolves globs, drops excluded paths and returns the rest
// sorted and de-duplicated.
func expandInputs(args, exclude []string) ([]string, error) {
	var excl []glob.Glob
	for _, pattern := range exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		excl = append(excl, g)
	}

	seen := make(map[string]bool)
	var out []string
	add := func(path string) {
		path = filepath.Clean(path)
		if seen[path] {
			return
		}
		for _, g := range excl {
			if g.Match(filepath.ToSlash(path)) {
				return
			}
		}
		seen[path] = true
		out = append(out, path)
	}

	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			add(arg)
			continue
		}
		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match %q", arg)
		}
		for _, m := range matches {
			add(m)
		}
	}
	sort.Strings(out)
	return out, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()
	if err := loadEngines(ctx, false); err != nil {
		return err
	}

	width := renderWidth
	if width <= 0 && renderFormat != formatHTML {
		width = ui.Width(os.Stdout)
	}
	out := cmd.OutOrStdout()
	r, err := newRenderer(newProcessor(cfg), renderFormat, renderAsync, width, stylesFor(out))
	if err != nil {
		return err
	}

	if renderPaste {
		if len(args) > 0 || renderWatch {
			return errors.New("--paste takes no file arguments and cannot be watched")
		}
		text, err := clipboard.ReadText()
		if err != nil {
			return err
		}
		return writeRender(ctx, out, r, "", text)
	}
	if len(args) == 0 {
		if renderWatch {
			return errors.New("--watch needs file arguments")
		}
		text, err := readInput("")
		if err != nil {
			return err
		}
		return writeRender(ctx, out, r, "", text)
	}

	paths, err := expandInputs(args, renderExclude)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("every input was excluded")
	}

	rendered := make(map[string]string, len(paths))
	for _, path := range paths {
		header := ""
		if len(paths) > 1 {
			header = path
		}
		text, err := readInput(path)
		if err != nil {
			return err
		}
		s, err := r.Render(ctx, text)
		if err != nil {
			return err
		}
		rendered[path] = s
		printRender(out, r.styles, header, s)
	}

	if !renderWatch {
		return nil
	}
	return watchRender(ctx, out, r, paths, rendered)
}

func writeRender(ctx context.Context, out io.Writer, r *renderer, header, text string) error {
	s, err := r.Render(ctx, text)
	if err != nil {
		return err
	}
	printRender(out, r.styles, header, s)
	return nil
}

func printRender(out io.Writer, st *ui.Styles, header, s string) {
	if header != "" {
		fmt.Fprintln(out, st.Muted.Render("==> "+header+" <=="))
	}
	fmt.Fprintln(out, s)
}

// watchRender re-renders paths as they change until ctx is cancelled.
// Directories are watched so editors that replace files are followed.
func watchRender(ctx context.Context, out io.Writer, r *renderer, paths []string, rendered map[string]string) error {
	log := logging.For("watch")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	byAbs := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		byAbs[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	log.WithField("files", len(paths)).Info("watching for changes")

	// Editors often write a file in several steps; coalesce bursts.
	const debounce = 100 * time.Millisecond
	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if _, ok := byAbs[ev.Name]; !ok || (!ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create)) {
				continue
			}
			pending[ev.Name] = true
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watch error")

		case <-timer.C:
			for abs := range pending {
				path := byAbs[abs]
				delete(pending, abs)

				text, err := readInput(path)
				if err != nil {
					log.WithError(err).WithField("path", path).Warn("re-read failed")
					continue
				}
				s, err := r.Render(ctx, text)
				if err != nil {
					return err
				}
				prev := rendered[path]
				rendered[path] = s
				if s == prev {
					continue
				}
				if renderDiff {
					fmt.Fprintln(out, ui.UnifiedDiff(path, prev+"\n", s+"\n", r.styles))
					continue
				}
				printRender(out, r.styles, path, s)
			}
		}
	}
}
