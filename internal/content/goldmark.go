package content

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// GoldmarkStage renders Markdown through a CommonMark parser and tags the
// resulting elements with the same classes as MarkdownStage. It also wraps
// paragraphs, so the pipeline omits ParagraphStage when it is selected.
type GoldmarkStage struct {
	md  goldmark.Markdown
	log *logrus.Entry
}

// NewGoldmarkStage builds the CommonMark + GFM renderer.
func NewGoldmarkStage(log *logrus.Entry) *GoldmarkStage {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(util.Prioritized(classTransformer{}, 100)),
		),
		// Raw markup passes through: stashed fragments are HTML comments and
		// the sanitize stage runs last.
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	return &GoldmarkStage{md: md, log: log}
}

// Name implements Stage.
func (*GoldmarkStage) Name() string { return "goldmark" }

// Apply implements Stage.
func (s *GoldmarkStage) Apply(doc *Document) {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(doc.Text), &buf); err != nil {
		if s.log != nil {
			s.log.WithError(err).Warn("markdown conversion failed, keeping source")
		}
		return
	}
	doc.Text = buf.String()
}

type classTransformer struct{}

func (classTransformer) Transform(node *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if cls := enhancedClass(n); cls != "" {
			n.SetAttributeString("class", []byte(cls))
		}
		if _, ok := n.(*ast.Link); ok {
			n.SetAttributeString("target", []byte("_blank"))
			n.SetAttributeString("rel", []byte("noopener noreferrer"))
		}
		return ast.WalkContinue, nil
	})
}

func enhancedClass(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Heading:
		return fmt.Sprintf("enhanced-h%d", n.Level)
	case *ast.Paragraph:
		return "enhanced-paragraph"
	case *ast.List:
		if n.IsOrdered() {
			return "enhanced-ol"
		}
		return "enhanced-ul"
	case *ast.ListItem:
		return "enhanced-li"
	case *ast.Blockquote:
		return "enhanced-blockquote"
	case *ast.Link:
		return "enhanced-link"
	case *ast.Emphasis:
		if n.Level == 2 {
			return "enhanced-bold"
		}
		return "enhanced-italic"
	case *ast.CodeSpan:
		return "enhanced-inline-code"
	case *ast.ThematicBreak:
		return "enhanced-hr"
	case *extast.Table:
		return "enhanced-table"
	case *extast.TableRow:
		return "enhanced-tr"
	case *extast.TableCell:
		if _, ok := n.Parent().(*extast.TableHeader); ok {
			return "enhanced-th"
		}
		return "enhanced-td"
	case *extast.Strikethrough:
		return "enhanced-strikethrough"
	}
	return ""
}
