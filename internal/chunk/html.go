package chunk

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/ppiankov/ragcore/internal/model"
)

// NormalizeNoteBody converts a note body to the plain text the splitter
// works on. HTML block elements become paragraph breaks so paragraph
// boundaries survive. Markdown keeps its text and loses link and heading
// syntax. Plain text is returned unchanged.
func NormalizeNoteBody(body string, format model.NoteFormat) string {
	switch format {
	case model.NoteFormatHTML:
		return htmlToText(body)
	case model.NoteFormatMarkdown:
		return markdownToText(body)
	default:
		return body
	}
}

var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true, "blockquote": true,
	"li": true, "ul": true, "ol": true, "tr": true, "table": true, "pre": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "footer": true, "hr": true,
}

func htmlToText(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		// html.Parse only fails on reader errors; keep the raw text.
		return body
	}

	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe", "template":
				return
			case "br":
				buf.WriteString("\n")
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.Join(strings.Fields(n.Data), " "); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}

		if n.Type == html.ElementNode && blockElements[n.Data] {
			buf.WriteString("\n\n")
		}
	}
	walk(doc)

	return tidyParagraphs(buf.String())
}

var (
	mdImage   = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLink    = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)
	mdHeading = regexp.MustCompile(`(?m)^#{1,6}[ \t]+`)
	mdFence   = regexp.MustCompile("(?m)^[ \t]*```[^\n]*$")
	mdEmph    = regexp.MustCompile(`(\*\*|__)([^*_\n]+)(\*\*|__)`)
)

func markdownToText(body string) string {
	out := mdFence.ReplaceAllString(body, "")
	out = mdImage.ReplaceAllString(out, "$1")
	out = mdLink.ReplaceAllString(out, "$1")
	out = mdHeading.ReplaceAllString(out, "")
	out = mdEmph.ReplaceAllString(out, "$2")
	return tidyParagraphs(out)
}

// tidyParagraphs trims every line and keeps at most one blank line between
// paragraphs.
func tidyParagraphs(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var b strings.Builder
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = b.Len() > 0
			continue
		}
		if b.Len() > 0 {
			if blank {
				b.WriteString("\n\n")
			} else {
				b.WriteString("\n")
			}
		}
		b.WriteString(line)
		blank = false
	}
	return b.String()
}
