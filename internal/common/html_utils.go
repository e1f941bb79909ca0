package common

import (
	"strings"

	"golang.org/x/net/html"
)

// ParseHTML parses a captured document
func ParseHTML(content string) (*html.Node, error) {
	return html.Parse(strings.NewReader(content))
}

// FindNodesByTag finds all element nodes with a specific tag name
func FindNodesByTag(root *html.Node, tagName string) []*html.Node {
	var nodes []*html.Node

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tagName {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(root)
	return nodes
}

// GetAttribute gets the value of an attribute from a node
func GetAttribute(node *html.Node, attrKey string) string {
	if node.Type != html.ElementNode {
		return ""
	}
	for _, attr := range node.Attr {
		if attr.Key == attrKey {
			return attr.Val
		}
	}
	return ""
}

// HasAttribute checks if a node has a specific attribute
func HasAttribute(node *html.Node, attrKey string) bool {
	if node.Type != html.ElementNode {
		return false
	}
	for _, attr := range node.Attr {
		if attr.Key == attrKey {
			return true
		}
	}
	return false
}

// HasClass reports whether a node's class list contains class
func HasClass(node *html.Node, class string) bool {
	for _, c := range strings.Fields(GetAttribute(node, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// InheritedAttribute walks up from node and returns the first value of attrKey
func InheritedAttribute(node *html.Node, attrKey string) string {
	for n := node; n != nil; n = n.Parent {
		if v := GetAttribute(n, attrKey); v != "" {
			return v
		}
	}
	return ""
}

var invisibleTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
	"code":     true,
	"pre":      true,
}

// VisibleTextNodes returns non-empty text nodes outside script, style and
// hidden subtrees.
func VisibleTextNodes(root *html.Node) []*html.Node {
	var nodes []*html.Node

	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if invisibleTags[n.Data] || HasAttribute(n, "hidden") || GetAttribute(n, "aria-hidden") == "true" {
				return
			}
		}
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
			nodes = append(nodes, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}

	traverse(root)
	return nodes
}
