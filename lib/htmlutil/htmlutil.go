package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// GetText concatenates every text node under the given node. Unlike
// goquery's Selection.Text it works on a bare *html.Node, which is what
// you get when iterating script tags.
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

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// NormalizeText strips non-printable runes, trims surrounding whitespace
// and collapses inner runs of whitespace into single spaces.
func NormalizeText(s string) string {
	printable := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || c == '\n' || c == '\t' {
			printable.WriteRune(c)
		}
	}
	out := strings.Trim(printable.String(), " \t\n")
	return innerWhitespace.ReplaceAllString(out, " ")
}

var backgroundURL = regexp.MustCompile(`url\(\s*'?([^')]+?)'?\s*\)`)

// InlineBackgroundURL pulls the url out of an inline
// `background-image: url( ... )` style declaration. Returns "" when the
// style carries no image.
func InlineBackgroundURL(style string) string {
	groups := backgroundURL.FindStringSubmatch(style)
	if len(groups) < 2 {
		return ""
	}
	return strings.TrimSpace(groups[1])
}
