// Package guard recognises text that already went through the content
// pipeline so it is passed through instead of being wrapped a second time.
//
// Detection is substring based. Raw text that happens to contain a signature
// (someone typing class="katex" in a message) is reported as rendered; that
// false positive is accepted. The list must follow any change to the class
// names the pipeline emits.
package guard

import "strings"

// Signatures are markers that only pipeline output contains.
var Signatures = []string{
	// math
	"math-block-container",
	"math-inline",
	"math-plain",
	"math-error",
	"katex-display",
	`class="katex"`,
	`data-math-processed="true"`,
	// code
	"code-block-container",
	"hljs",
	// markdown
	`class="enhanced-`,
}

// Match returns the first signature found in s.
func Match(s string) (string, bool) {
	for _, sig := range Signatures {
		if strings.Contains(s, sig) {
			return sig, true
		}
	}
	return "", false
}

// IsContentAlreadyRendered reports whether s contains pipeline output.
func IsContentAlreadyRendered(s string) bool {
	_, ok := Match(s)
	return ok
}
