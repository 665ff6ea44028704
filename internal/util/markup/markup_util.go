package markup

import (
	"strings"

	"golang.org/x/net/html"
)

// IsElement reports whether node is an element, optionally of the given tag.
func IsElement(node *html.Node, tag string) bool {
	return node.Type == html.ElementNode && (tag == "" || node.Data == tag)
}

// GetAttr finds and returns the value of the named attribute.
// If the attribute is absent, it returns an empty string.
func GetAttr(node *html.Node, key string) string {
	for _, attr := range node.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// ClassList splits the class attribute the way DOMTokenList does.
func ClassList(node *html.Node) []string {
	return strings.Fields(GetAttr(node, "class"))
}

// Matches supports the three simple selector forms used for audit roots:
// tag, #id and .class.
func Matches(node *html.Node, selector string) bool {
	if node.Type != html.ElementNode || selector == "" {
		return false
	}
	switch selector[0] {
	case '#':
		return GetAttr(node, "id") == selector[1:]
	case '.':
		for _, c := range ClassList(node) {
			if c == selector[1:] {
				return true
			}
		}
		return false
	}
	return strings.EqualFold(node.Data, selector)
}

// FindFirst returns the first node in document order matching selector.
func FindFirst(root *html.Node, selector string) *html.Node {
	if Matches(root, selector) {
		return root
	}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		if found := FindFirst(c, selector); found != nil {
			return found
		}
	}
	return nil
}

// ExtractInnerText extracts all text content inside a node.
func ExtractInnerText(node *html.Node) string {
	var sb strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(node)
	return sb.String()
}
