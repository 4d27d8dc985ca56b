package mathrender

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// ParseError reports malformed TeX input.
type ParseError struct {
	Pos int
	Msg string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("tex parse error at position %d: %s", e.Pos, e.Msg)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokCommand
	tokOpen
	tokClose
	tokSup
	tokSub
	tokAmp
	tokChar
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func tokenize(src string) []token {
	var toks []token
	for i := 0; i < len(src); {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case r == '\\':
			j := i + 1
			for j < len(src) && isASCIILetter(src[j]) {
				j++
			}
			if j == i+1 && j < len(src) {
				_, sz := utf8.DecodeRuneInString(src[j:])
				j += sz
			}
			toks = append(toks, token{kind: tokCommand, text: src[i+1 : j], pos: i})
			i = j
			continue
		case r == '{':
			toks = append(toks, token{kind: tokOpen, pos: i})
		case r == '}':
			toks = append(toks, token{kind: tokClose, pos: i})
		case r == '^':
			toks = append(toks, token{kind: tokSup, pos: i})
		case r == '_':
			toks = append(toks, token{kind: tokSub, pos: i})
		case r == '&':
			toks = append(toks, token{kind: tokAmp, pos: i})
		case unicode.IsSpace(r):
		default:
			toks = append(toks, token{kind: tokChar, text: string(r), pos: i})
		}
		i += size
	}
	return append(toks, token{kind: tokEOF, pos: len(src)})
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

var greek = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ϵ",
	"varepsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ",
	"iota": "ι", "kappa": "κ", "lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ",
	"pi": "π", "varpi": "ϖ", "rho": "ρ", "varrho": "ϱ", "sigma": "σ",
	"varsigma": "ς", "tau": "τ", "upsilon": "υ", "phi": "ϕ", "varphi": "φ",
	"chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
}

// Identifier-like symbols.
var symbolIdents = map[string]string{
	"infty": "∞", "partial": "∂", "nabla": "∇", "hbar": "ℏ", "ell": "ℓ",
	"emptyset": "∅", "Re": "ℜ", "Im": "ℑ", "aleph": "ℵ",
}

var operators = map[string]string{
	"times": "×", "cdot": "⋅", "div": "÷", "pm": "±", "mp": "∓", "ast": "∗",
	"leq": "≤", "le": "≤", "geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠",
	"approx": "≈", "equiv": "≡", "sim": "∼", "simeq": "≃", "cong": "≅",
	"propto": "∝", "ll": "≪", "gg": "≫",
	"to": "→", "rightarrow": "→", "leftarrow": "←", "Rightarrow": "⇒",
	"Leftarrow": "⇐", "leftrightarrow": "↔", "Leftrightarrow": "⇔",
	"mapsto": "↦", "implies": "⟹", "iff": "⟺",
	"in": "∈", "notin": "∉", "ni": "∋", "subset": "⊂", "subseteq": "⊆",
	"supset": "⊃", "supseteq": "⊇", "cup": "∪", "cap": "∩", "setminus": "∖",
	"forall": "∀", "exists": "∃", "neg": "¬", "land": "∧", "lor": "∨",
	"wedge": "∧", "vee": "∨", "oplus": "⊕", "otimes": "⊗", "circ": "∘",
	"ldots": "…", "cdots": "⋯", "vdots": "⋮", "ddots": "⋱", "dots": "…",
	"langle": "⟨", "rangle": "⟩", "lfloor": "⌊", "rfloor": "⌋",
	"lceil": "⌈", "rceil": "⌉", "mid": "∣", "parallel": "∥", "perp": "⊥",
	"angle": "∠", "degree": "°", "prime": "′",
	"{": "{", "}": "}", "|": "∥", "%": "%", "$": "$", "#": "#", "_": "_", "&": "&",
}

// Large operators take limits above and below in display mode.
var largeOps = map[string]string{
	"sum": "∑", "prod": "∏", "coprod": "∐", "int": "∫", "iint": "∬",
	"iiint": "∭", "oint": "∮", "bigcup": "⋃", "bigcap": "⋂",
}

var functions = map[string]bool{
	"sin": true, "cos": true, "tan": true, "cot": true, "sec": true, "csc": true,
	"arcsin": true, "arccos": true, "arctan": true, "sinh": true, "cosh": true,
	"tanh": true, "log": true, "ln": true, "lg": true, "exp": true, "lim": true,
	"max": true, "min": true, "sup": true, "inf": true, "det": true, "gcd": true,
	"deg": true, "dim": true, "ker": true, "arg": true, "Pr": true,
}

var spaces = map[string]string{
	",": "0.1667em", ":": "0.2222em", ";": "0.2778em", " ": "0.2778em",
	"quad": "1em", "qquad": "2em", "!": "-0.1667em",
}

var fonts = map[string]string{
	"mathbf": "bold", "mathit": "italic", "mathrm": "normal", "mathsf": "sans-serif",
	"mathtt": "monospace", "mathbb": "double-struck", "mathcal": "script",
	"boldsymbol": "bold-italic",
}

var accents = map[string]string{
	"hat": "^", "bar": "¯", "overline": "¯", "vec": "→", "dot": "˙",
	"ddot": "¨", "tilde": "~", "widehat": "^", "widetilde": "~",
}

// matrix environments and their fences.
var environments = map[string][2]string{
	"matrix": {"", ""}, "pmatrix": {"(", ")"}, "bmatrix": {"[", "]"},
	"Bmatrix": {"{", "}"}, "vmatrix": {"|", "|"}, "Vmatrix": {"∥", "∥"},
	"cases": {"{", ""}, "aligned": {"", ""}, "align": {"", ""},
	"align*": {"", ""}, "gather": {"", ""}, "gather*": {"", ""},
	"equation": {"", ""}, "equation*": {"", ""}, "array": {"", ""},
	"split": {"", ""},
}

type parser struct {
	src     string
	toks    []token
	pos     int
	display bool
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return &ParseError{Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

// toMathML converts TeX source into a MathML <math> element.
func toMathML(src string, display bool) (string, error) {
	p := &parser{src: src, toks: tokenize(src), display: display}
	body, err := p.parseList(stopTop)
	if err != nil {
		return "", err
	}
	if t := p.peek(); t.kind != tokEOF {
		return "", p.errorf(t, "unexpected %s", describe(t))
	}

	var sb strings.Builder
	sb.WriteString(`<math xmlns="http://www.w3.org/1998/Math/MathML"`)
	if display {
		sb.WriteString(` display="block"`)
	}
	sb.WriteString(`><semantics><mrow>`)
	sb.WriteString(body)
	sb.WriteString(`</mrow><annotation encoding="application/x-tex">`)
	sb.WriteString(html.EscapeString(src))
	sb.WriteString(`</annotation></semantics></math>`)
	return sb.String(), nil
}

type stopSet int

const (
	stopTop   stopSet = iota // EOF
	stopGroup                // }
	stopRight                // \right
	stopEnv                  // \end, \\ and &
	stopOpt                  // ]
)

func (p *parser) atStop(stop stopSet) bool {
	t := p.peek()
	switch stop {
	case stopTop:
		return t.kind == tokEOF
	case stopGroup:
		return t.kind == tokClose || t.kind == tokEOF
	case stopRight:
		return (t.kind == tokCommand && t.text == "right") || t.kind == tokEOF
	case stopEnv:
		return t.kind == tokAmp || t.kind == tokEOF ||
			(t.kind == tokCommand && (t.text == "end" || t.text == "\\"))
	case stopOpt:
		return (t.kind == tokChar && t.text == "]") || t.kind == tokEOF
	}
	return true
}

func (p *parser) parseList(stop stopSet) (string, error) {
	var sb strings.Builder
	for !p.atStop(stop) {
		t := p.peek()
		if t.kind == tokClose {
			return "", p.errorf(t, "unmatched }")
		}
		if t.kind == tokAmp {
			return "", p.errorf(t, "& outside of an environment")
		}
		if t.kind == tokCommand && t.text == "\\" && stop != stopEnv {
			p.next()
			continue
		}
		item, err := p.parseScripted()
		if err != nil {
			return "", err
		}
		sb.WriteString(item)
	}
	return sb.String(), nil
}

// parseScripted parses an atom and any trailing sub/superscripts.
func (p *parser) parseScripted() (string, error) {
	t := p.peek()
	var base string
	var large bool
	var err error
	if t.kind == tokSup || t.kind == tokSub {
		base = "<mrow></mrow>"
	} else {
		base, large, err = p.parseAtom()
		if err != nil {
			return "", err
		}
	}

	var sub, sup string
	var haveSub, haveSup bool
	for {
		t := p.peek()
		switch {
		case t.kind == tokSup:
			if haveSup {
				return "", p.errorf(t, "double superscript")
			}
			p.next()
			if sup, err = p.parseArgument(); err != nil {
				return "", err
			}
			haveSup = true
		case t.kind == tokSub:
			if haveSub {
				return "", p.errorf(t, "double subscript")
			}
			p.next()
			if sub, err = p.parseArgument(); err != nil {
				return "", err
			}
			haveSub = true
		case t.kind == tokChar && t.text == "'":
			if haveSup {
				return "", p.errorf(t, "double superscript")
			}
			p.next()
			primes := "′"
			for p.peek().kind == tokChar && p.peek().text == "'" {
				p.next()
				primes += "′"
			}
			sup = "<mo>" + primes + "</mo>"
			haveSup = true
		default:
			return wrapScripts(base, sub, sup, haveSub, haveSup, large && p.display), nil
		}
	}
}

func wrapScripts(base, sub, sup string, haveSub, haveSup, limits bool) string {
	switch {
	case haveSub && haveSup:
		if limits {
			return "<munderover>" + base + sub + sup + "</munderover>"
		}
		return "<msubsup>" + base + sub + sup + "</msubsup>"
	case haveSub:
		if limits {
			return "<munder>" + base + sub + "</munder>"
		}
		return "<msub>" + base + sub + "</msub>"
	case haveSup:
		if limits {
			return "<mover>" + base + sup + "</mover>"
		}
		return "<msup>" + base + sup + "</msup>"
	}
	return base
}

// parseArgument parses a single-token or braced argument as one element.
func (p *parser) parseArgument() (string, error) {
	t := p.peek()
	switch t.kind {
	case tokEOF:
		return "", p.errorf(t, "expected argument")
	case tokClose, tokSup, tokSub, tokAmp:
		return "", p.errorf(t, "expected argument, got %s", describe(t))
	case tokOpen:
		p.next()
		inner, err := p.parseList(stopGroup)
		if err != nil {
			return "", err
		}
		if err := p.expect(tokClose); err != nil {
			return "", err
		}
		return "<mrow>" + inner + "</mrow>", nil
	case tokChar:
		p.next()
		return charAtom(t.text), nil
	}
	atom, _, err := p.parseAtom()
	return atom, err
}

func (p *parser) expect(kind tokenKind) error {
	t := p.next()
	if t.kind != kind {
		want := map[tokenKind]string{tokClose: "}", tokOpen: "{"}[kind]
		return p.errorf(t, "expected %s, got %s", want, describe(t))
	}
	return nil
}

// parseRawGroup returns the literal source of a braced group.
func (p *parser) parseRawGroup() (string, error) {
	open := p.peek()
	if err := p.expect(tokOpen); err != nil {
		return "", err
	}
	depth := 1
	for {
		t := p.next()
		switch t.kind {
		case tokEOF:
			return "", p.errorf(t, "expected }")
		case tokOpen:
			depth++
		case tokClose:
			depth--
			if depth == 0 {
				return p.src[open.pos+1 : t.pos], nil
			}
		}
	}
}

func (p *parser) parseAtom() (string, bool, error) {
	t := p.next()
	switch t.kind {
	case tokOpen:
		inner, err := p.parseList(stopGroup)
		if err != nil {
			return "", false, err
		}
		if err := p.expect(tokClose); err != nil {
			return "", false, err
		}
		return "<mrow>" + inner + "</mrow>", false, nil
	case tokChar:
		if isDigit(t.text) {
			num := t.text
			for {
				n := p.peek()
				if n.kind != tokChar || !(isDigit(n.text) || n.text == ".") {
					break
				}
				p.next()
				num += n.text
			}
			return "<mn>" + num + "</mn>", false, nil
		}
		return charAtom(t.text), false, nil
	case tokCommand:
		return p.parseCommand(t)
	}
	return "", false, p.errorf(t, "unexpected %s", describe(t))
}

func isDigit(s string) bool {
	return len(s) == 1 && s[0] >= '0' && s[0] <= '9'
}

func charAtom(c string) string {
	r, _ := utf8.DecodeRuneInString(c)
	switch {
	case unicode.IsLetter(r):
		return "<mi>" + html.EscapeString(c) + "</mi>"
	case unicode.IsDigit(r):
		return "<mn>" + c + "</mn>"
	case c == "(" || c == ")" || c == "[" || c == "]" || c == "|":
		return `<mo stretchy="false">` + html.EscapeString(c) + "</mo>"
	}
	return "<mo>" + html.EscapeString(c) + "</mo>"
}

func (p *parser) parseCommand(t token) (string, bool, error) {
	name := t.text
	if s, ok := greek[name]; ok {
		return "<mi>" + s + "</mi>", false, nil
	}
	if s, ok := symbolIdents[name]; ok {
		return "<mi>" + s + "</mi>", false, nil
	}
	if s, ok := operators[name]; ok {
		return "<mo>" + html.EscapeString(s) + "</mo>", false, nil
	}
	if s, ok := largeOps[name]; ok {
		return `<mo movablelimits="false">` + s + "</mo>", true, nil
	}
	if functions[name] {
		limits := name == "lim" || name == "max" || name == "min" || name == "sup" || name == "inf" || name == "det" || name == "gcd" || name == "Pr"
		return "<mi>" + name + "</mi>", limits, nil
	}
	if w, ok := spaces[name]; ok {
		return `<mspace width="` + w + `"></mspace>`, false, nil
	}
	if variant, ok := fonts[name]; ok {
		arg, err := p.parseArgument()
		if err != nil {
			return "", false, err
		}
		return `<mstyle mathvariant="` + variant + `">` + arg + "</mstyle>", false, nil
	}
	if accent, ok := accents[name]; ok {
		arg, err := p.parseArgument()
		if err != nil {
			return "", false, err
		}
		return `<mover accent="true">` + arg + "<mo>" + accent + "</mo></mover>", false, nil
	}

	switch name {
	case "frac", "dfrac", "tfrac", "cfrac":
		num, err := p.parseArgument()
		if err != nil {
			return "", false, err
		}
		den, err := p.parseArgument()
		if err != nil {
			return "", false, err
		}
		return "<mfrac>" + num + den + "</mfrac>", false, nil
	case "binom":
		top, err := p.parseArgument()
		if err != nil {
			return "", false, err
		}
		bottom, err := p.parseArgument()
		if err != nil {
			return "", false, err
		}
		return `<mrow><mo>(</mo><mfrac linethickness="0px">` + top + bottom + `</mfrac><mo>)</mo></mrow>`, false, nil
	case "sqrt":
		var index string
		if n := p.peek(); n.kind == tokChar && n.text == "[" {
			p.next()
			idx, err := p.parseList(stopOpt)
			if err != nil {
				return "", false, err
			}
			if n := p.next(); n.kind != tokChar || n.text != "]" {
				return "", false, p.errorf(n, "expected ]")
			}
			index = "<mrow>" + idx + "</mrow>"
		}
		arg, err := p.parseArgument()
		if err != nil {
			return "", false, err
		}
		if index != "" {
			return "<mroot>" + arg + index + "</mroot>", false, nil
		}
		return "<msqrt>" + arg + "</msqrt>", false, nil
	case "text", "textrm", "textbf", "textit", "mbox", "operatorname":
		raw, err := p.parseRawGroup()
		if err != nil {
			return "", false, err
		}
		if name == "operatorname" {
			return "<mi>" + html.EscapeString(raw) + "</mi>", false, nil
		}
		return "<mtext>" + html.EscapeString(raw) + "</mtext>", false, nil
	case "left":
		return p.parseLeftRight(t)
	case "right":
		return "", false, p.errorf(t, `\right without matching \left`)
	case "begin":
		return p.parseEnvironment(t)
	case "end":
		return "", false, p.errorf(t, `\end without matching \begin`)
	case "displaystyle", "textstyle", "limits", "nolimits":
		return "", false, nil
	}
	return "", false, p.errorf(t, `undefined control sequence \%s`, name)
}

func (p *parser) parseDelimiter() (string, error) {
	t := p.next()
	switch t.kind {
	case tokChar:
		if t.text == "." {
			return "", nil
		}
		return t.text, nil
	case tokCommand:
		if s, ok := operators[t.text]; ok {
			return s, nil
		}
	}
	return "", p.errorf(t, "missing or unrecognized delimiter")
}

func fence(d string) string {
	if d == "" {
		return ""
	}
	return `<mo fence="true">` + html.EscapeString(d) + "</mo>"
}

func (p *parser) parseLeftRight(left token) (string, bool, error) {
	open, err := p.parseDelimiter()
	if err != nil {
		return "", false, err
	}
	inner, err := p.parseList(stopRight)
	if err != nil {
		return "", false, err
	}
	if t := p.next(); t.kind != tokCommand || t.text != "right" {
		return "", false, p.errorf(left, `\left without matching \right`)
	}
	closing, err := p.parseDelimiter()
	if err != nil {
		return "", false, err
	}
	return "<mrow>" + fence(open) + inner + fence(closing) + "</mrow>", false, nil
}

func (p *parser) parseEnvironment(begin token) (string, bool, error) {
	name, err := p.parseRawGroup()
	if err != nil {
		return "", false, err
	}
	fences, ok := environments[name]
	if !ok {
		return "", false, p.errorf(begin, "unknown environment %s", name)
	}
	if name == "array" {
		// Column alignment is layout only.
		if _, err := p.parseRawGroup(); err != nil {
			return "", false, err
		}
	}

	var rows [][]string
	row := []string{}
	for {
		cell, err := p.parseList(stopEnv)
		if err != nil {
			return "", false, err
		}
		row = append(row, cell)
		t := p.next()
		switch {
		case t.kind == tokAmp:
			continue
		case t.kind == tokCommand && t.text == "\\":
			rows = append(rows, row)
			row = []string{}
			continue
		case t.kind == tokCommand && t.text == "end":
			endName, err := p.parseRawGroup()
			if err != nil {
				return "", false, err
			}
			if endName != name {
				return "", false, p.errorf(t, `\begin{%s} ended by \end{%s}`, name, endName)
			}
			if len(row) > 1 || row[0] != "" || len(rows) == 0 {
				rows = append(rows, row)
			}
			return buildTable(rows, fences), false, nil
		default:
			return "", false, p.errorf(begin, `missing \end{%s}`, name)
		}
	}
}

func buildTable(rows [][]string, fences [2]string) string {
	var sb strings.Builder
	sb.WriteString("<mrow>")
	sb.WriteString(fence(fences[0]))
	sb.WriteString("<mtable>")
	for _, row := range rows {
		sb.WriteString("<mtr>")
		for _, cell := range row {
			sb.WriteString("<mtd>")
			sb.WriteString(cell)
			sb.WriteString("</mtd>")
		}
		sb.WriteString("</mtr>")
	}
	sb.WriteString("</mtable>")
	sb.WriteString(fence(fences[1]))
	sb.WriteString("</mrow>")
	return sb.String()
}

func describe(t token) string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokCommand:
		return `\` + t.text
	case tokOpen:
		return "{"
	case tokClose:
		return "}"
	case tokSup:
		return "^"
	case tokSub:
		return "_"
	case tokAmp:
		return "&"
	}
	return fmt.Sprintf("%q", t.text)
}
