package browser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// PageText is the readable text of a page with its metadata.
type PageText struct {
	Title       string
	Description string
	Text        string
	Truncated   bool
}

// ExtractText parses rawHTML and returns its visible text, one block per
// line, capped at maxLength bytes. A maxLength of 0 means no cap.
func ExtractText(rawHTML string, maxLength int) (*PageText, error) {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	w := &textWriter{max: maxLength}
	w.walk(doc)

	return &PageText{
		Title:       extractTitle(doc),
		Description: extractMetaDescription(doc),
		Text:        strings.TrimSpace(w.b.String()),
		Truncated:   w.truncated,
	}, nil
}

type textWriter struct {
	b         strings.Builder
	max       int
	truncated bool
	pendingNL bool
}

func (w *textWriter) walk(n *html.Node) {
	if w.truncated {
		return
	}

	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if isSkippedElement(tag) || tag == "head" || isHidden(n) {
			return
		}
		if isBlockElement(tag) || tag == "br" {
			w.pendingNL = true
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		w.walk(c)
		if w.truncated {
			return
		}
	}

	if n.Type == html.ElementNode && isBlockElement(strings.ToLower(n.Data)) {
		w.pendingNL = true
	}
}

func (w *textWriter) text(s string) {
	words := strings.Fields(s)
	if len(words) == 0 {
		return
	}
	chunk := strings.Join(words, " ")

	if w.b.Len() > 0 {
		if w.pendingNL {
			chunk = "\n" + chunk
		} else {
			chunk = " " + chunk
		}
	}
	w.pendingNL = false

	if w.max > 0 && w.b.Len()+len(chunk) > w.max {
		remaining := w.max - w.b.Len()
		if remaining > 0 {
			w.b.WriteString(cutUTF8(chunk, remaining))
		}
		w.b.WriteString("...")
		w.truncated = true
		return
	}
	w.b.WriteString(chunk)
}

// cutUTF8 returns the longest prefix of s no longer than n bytes that ends on
// a rune boundary.
func cutUTF8(s string, n int) string {
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isHidden(n *html.Node) bool {
	for _, attr := range n.Attr {
		switch strings.ToLower(attr.Key) {
		case "hidden":
			return true
		case "aria-hidden":
			if attr.Val == "true" {
				return true
			}
		case "style":
			style := strings.ReplaceAll(strings.ToLower(attr.Val), " ", "")
			if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
				return true
			}
		}
	}
	return false
}

func isSkippedElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript", "iframe", "embed", "object", "svg", "template":
		return true
	}
	return false
}

func isBlockElement(tagName string) bool {
	switch tagName {
	case "div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "table", "tr", "td", "th",
		"form", "fieldset", "blockquote", "pre", "dl", "dt", "dd", "figure", "figcaption":
		return true
	}
	return false
}

func extractTitle(doc *html.Node) string {
	var title string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "title" {
			if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return
		}
		for c := n.FirstChild; c != nil && title == ""; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return title
}

func extractMetaDescription(doc *html.Node) string {
	var description string
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var isDescription bool
			var content string
			for _, attr := range n.Attr {
				switch attr.Key {
				case "name":
					isDescription = strings.EqualFold(attr.Val, "description")
				case "content":
					content = attr.Val
				}
			}
			if isDescription && content != "" {
				description = strings.TrimSpace(content)
				return
			}
		}
		for c := n.FirstChild; c != nil && description == ""; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return description
}
