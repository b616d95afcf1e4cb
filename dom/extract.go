package dom

import (
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

// blockTags force a line break around their text when flattening HTML.
var blockTags = map[string]struct{}{
	"p": {}, "div": {}, "section": {}, "article": {}, "header": {},
	"footer": {}, "main": {}, "aside": {}, "nav": {}, "ul": {}, "ol": {},
	"li": {}, "table": {}, "tr": {}, "h1": {}, "h2": {}, "h3": {},
	"h4": {}, "h5": {}, "h6": {}, "br": {}, "blockquote": {}, "pre": {},
}

var skipTags = map[string]struct{}{
	"script": {}, "style": {}, "noscript": {}, "head": {},
	"svg": {}, "template": {},
}

// ExtractText flattens an HTML document into readable text. Script, style
// and other non-content subtrees are dropped, block elements become line
// breaks, and runs of whitespace collapse to a single space.
func ExtractText(src string) (string, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	// Set when the last text node ended in whitespace, or a
	// whitespace-only node sat between two text runs. Words are only
	// joined with a space when the source had one; inline siblings like
	// <b>great</b>. stay glued together.
	pendingSpace := false
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if _, skip := skipTags[n.Data]; skip {
				return
			}
			if _, block := blockTags[n.Data]; block {
				b.WriteByte('\n')
				pendingSpace = false
			}
		}
		if n.Type == html.TextNode {
			text := collapseSpace(n.Data)
			if text != "" {
				leading := strings.TrimLeftFunc(n.Data, unicode.IsSpace) != n.Data
				if b.Len() > 0 && !endsWithSpace(&b) && (pendingSpace || leading) {
					b.WriteByte(' ')
				}
				b.WriteString(text)
				pendingSpace = strings.TrimRightFunc(n.Data, unicode.IsSpace) != n.Data
			} else if n.Data != "" {
				pendingSpace = true
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode {
			if _, block := blockTags[n.Data]; block {
				b.WriteByte('\n')
				pendingSpace = false
			}
		}
	}
	walk(root)

	return tidyLines(b.String()), nil
}

// ExtractLinks returns the href of every anchor in the document, in
// document order, duplicates removed.
func ExtractLinks(src string) ([]string, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var links []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, a := range n.Attr {
				if a.Key != "href" || a.Val == "" {
					continue
				}
				if _, dup := seen[a.Val]; !dup {
					seen[a.Val] = struct{}{}
					links = append(links, a.Val)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return links, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func endsWithSpace(b *strings.Builder) bool {
	s := b.String()
	if s == "" {
		return true
	}
	last := s[len(s)-1]
	return last == ' ' || last == '\n'
}

// tidyLines trims each line and drops runs of blank lines.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}
	return strings.TrimRight(strings.Join(out, "\n"), "\n")
}
