package ui

import (
	"strings"

	diff "github.com/shogoki/gotextdiff"
)

// UnifiedDiff returns a colored unified diff between two renders of the
// same file, or "" when they are equal.
func UnifiedDiff(name, oldText, newText string, st *Styles) string {
	if oldText == newText {
		return ""
	}
	raw := diff.Diff(name, []byte(oldText), name, []byte(newText))
	if len(raw) == 0 {
		return ""
	}

	var out []string
	for _, line := range strings.Split(string(raw), "\n") {
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "diff "),
			strings.HasPrefix(line, "--- "),
			strings.HasPrefix(line, "+++ "):
			continue
		case strings.HasPrefix(line, "@@"):
			out = append(out, st.DiffHeader.Render(line))
		case line[0] == '+':
			out = append(out, st.DiffAdd.Render(line))
		case line[0] == '-':
			out = append(out, st.DiffRemove.Render(line))
		default:
			out = append(out, line)
		}
	}
	if len(out) == 0 {
		return ""
	}
	return st.Bold.Render("Changed: ") + name + "\n" + strings.Join(out, "\n")
}
