// Package htmlutil parses untrusted HTML into a tree that can be queried with XPath
// expressions or CSS selectors.
package htmlutil

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// Document is a parsed HTML page. It is never mutated after Parse.
type Document struct {
	root *html.Node
}

// Parse parses `body` leniently. It never fails: markup that cannot be parsed at all
// produces an empty document.
func Parse(body string) *Document {
	root, err := htmlquery.Parse(strings.NewReader(body))
	if err != nil || root == nil {
		root = &html.Node{Type: html.DocumentNode}
	}
	return &Document{root: root}
}

// Query evaluates the XPath expression `expr` and returns the matches in document order.
// Expressions selecting attributes (`//a/@href`) return nodes whose text is the attribute value.
// An invalid expression matches nothing.
func (d *Document) Query(expr string) []*html.Node {
	nodes, err := htmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil
	}
	return nodes
}

// Values returns the text content of every node matched by `expr`.
func (d *Document) Values(expr string) []string {
	nodes := d.Query(expr)
	values := make([]string, 0, len(nodes))
	for _, n := range nodes {
		values = append(values, htmlquery.InnerText(n))
	}
	return values
}

// Exists reports whether `expr` matches at least one node.
func (d *Document) Exists(expr string) bool {
	node, err := htmlquery.Query(d.root, expr)
	return err == nil && node != nil
}

// Find evaluates a CSS selector against the document.
func (d *Document) Find(selector string) *goquery.Selection {
	return goquery.NewDocumentFromNode(d.root).Find(selector)
}

// GetText concatenates every text node under `node`.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}
