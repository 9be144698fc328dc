// Package rewriter applies a replacer.Replacer to the visible text of an HTML
// document while leaving markup, attributes and URLs untouched.
package rewriter

import (
	"fmt"
	"io"
	"strings"

	"faleproxy/pkg/replacer"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// DefaultSkipElements are raw-text containers whose content is not visible
// page text and is therefore never rewritten.
var DefaultSkipElements = []string{"script", "style", "noscript"} //nolint: gochecknoglobals

// Options tune which parts of a document are rewritten.
type Options struct {
	// SkipElements lists element names whose descendant text is left as is.
	// A nil slice selects DefaultSkipElements; an empty, non-nil slice skips nothing.
	SkipElements []string
}

// Result is a rewritten document.
type Result struct {
	// HTML is the serialized document, doctype included.
	HTML string
	// Title is the rewritten text of the document title, empty when the
	// document has none.
	Title string
	// Replacements is the number of replaced word occurrences in body text and title.
	Replacements int
}

// Rewriter rewrites HTML documents. It is safe for concurrent use.
type Rewriter struct {
	replacer *replacer.Replacer
	skip     string
}

// New returns a Rewriter applying r to document text.
func New(r *replacer.Replacer, opts Options) *Rewriter {
	skip := opts.SkipElements
	if skip == nil {
		skip = DefaultSkipElements
	}

	return &Rewriter{
		replacer: r,
		skip:     skipSelector(skip),
	}
}

// skipSelector matches the skipped elements and everything nested in them.
func skipSelector(elements []string) string {
	parts := make([]string, 0, 2*len(elements))
	for _, el := range elements {
		el = strings.TrimSpace(el)
		if el == "" {
			continue
		}
		parts = append(parts, el, el+" *")
	}

	return strings.Join(parts, ", ")
}

// textEdit is a pending replacement of a single text node's content.
type textEdit struct {
	node *html.Node
	text string
}

// Rewrite parses the document read from r, replaces words in every text node
// below <body> and in the document title, and serializes the result.
//
// Text nodes are collected first and the edits applied afterwards as one
// batch, so the traversal never observes a half-modified tree.
func (rw *Rewriter) Rewrite(r io.Reader) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("could not parse HTML: %w", err)
	}

	edits, count := rw.collect(doc)
	for _, e := range edits {
		e.node.Data = e.text
	}

	// titles nested in body (e.g. inside <svg>) were handled as body text
	titleSel := doc.Find("title").Not("body title")
	title, n := rw.replacer.ReplaceCount(titleSel.Text())
	if n > 0 {
		titleSel.SetText(title)
		count += n
	}

	out, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("could not render HTML: %w", err)
	}

	return &Result{
		HTML:         out,
		Title:        title,
		Replacements: count,
	}, nil
}

// RewriteString is a convenience wrapper around Rewrite.
func (rw *Rewriter) RewriteString(s string) (*Result, error) {
	return rw.Rewrite(strings.NewReader(s))
}

// collect computes the replacement for every rewritable text node without
// modifying the document.
func (rw *Rewriter) collect(doc *goquery.Document) ([]textEdit, int) {
	containers := doc.Find("body, body *")
	if rw.skip != "" {
		containers = containers.Not(rw.skip)
	}

	var (
		edits []textEdit
		count int
	)
	containers.Contents().Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)
		if node.Type != html.TextNode {
			return
		}
		text, n := rw.replacer.ReplaceCount(node.Data)
		if n == 0 {
			return
		}
		edits = append(edits, textEdit{node: node, text: text})
		count += n
	})

	return edits, count
}
