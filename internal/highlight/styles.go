package highlight

import (
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/sahilm/fuzzy"
)

// StyleNames lists the registered chroma styles in sorted order.
func StyleNames() []string {
	return styles.Names()
}

// HasStyle reports whether name is a registered style.
func HasStyle(name string) bool {
	_, ok := styles.Registry[name]
	return ok
}

// SuggestStyles returns up to limit registered style names closest to name,
// best match first.
func SuggestStyles(name string, limit int) []string {
	matches := fuzzy.Find(name, StyleNames())
	var out []string
	for _, m := range matches {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, m.Str)
	}
	return out
}
