// Package newsmd renders the small markdown subset used by news posts.
//
// Block rules are line prefixes: "# ", "## ", "### " headings, "- " and "* "
// list items grouped into one list, "> " quotes, and ``` fences toggling a
// preformatted block. Remaining lines form paragraphs; consecutive lines are
// joined with <br>. Inline rules are **bold**, *italic*, _italic_, `code` and
// [text](url) links, where only http, https and mailto URLs become anchors.
// All input is HTML-escaped before any markup is produced.
package newsmd

import (
	"html"
	"regexp"
	"strconv"
	"strings"
)

var (
	codeSpan = regexp.MustCompile("`([^`]+)`")
	link     = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
	bold     = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicA  = regexp.MustCompile(`\*([^*]+)\*`)
	italicU  = regexp.MustCompile(`(^|[^\w])_([^_]+)_($|[^\w])`)
)

type renderer struct {
	out       strings.Builder
	paragraph []string
	inList    bool
	inCode    bool
}

// Render converts news content to HTML.
func Render(src string) string {
	r := &renderer{}

	src = strings.ReplaceAll(src, "\r\n", "\n")
	for _, line := range strings.Split(src, "\n") {
		r.line(line)
	}

	if r.inCode {
		r.out.WriteString("</code></pre>\n")
	}
	r.flushParagraph()
	r.closeList()

	return strings.TrimSuffix(r.out.String(), "\n")
}

func (r *renderer) line(line string) {
	if strings.HasPrefix(strings.TrimSpace(line), "```") {
		if r.inCode {
			r.out.WriteString("</code></pre>\n")
			r.inCode = false
			return
		}
		r.flushParagraph()
		r.closeList()
		r.out.WriteString("<pre><code>")
		r.inCode = true
		return
	}

	if r.inCode {
		r.out.WriteString(html.EscapeString(line))
		r.out.WriteString("\n")
		return
	}

	trimmed := strings.TrimRight(line, " \t")
	if strings.TrimSpace(trimmed) == "" {
		r.flushParagraph()
		r.closeList()
		return
	}

	switch {
	case strings.HasPrefix(trimmed, "### "):
		r.block("h3", trimmed[4:])
	case strings.HasPrefix(trimmed, "## "):
		r.block("h2", trimmed[3:])
	case strings.HasPrefix(trimmed, "# "):
		r.block("h1", trimmed[2:])
	case strings.HasPrefix(trimmed, "> "):
		r.block("blockquote", trimmed[2:])
	case strings.HasPrefix(trimmed, "- "), strings.HasPrefix(trimmed, "* "):
		r.flushParagraph()
		if !r.inList {
			r.out.WriteString("<ul>\n")
			r.inList = true
		}
		r.out.WriteString("<li>" + Inline(trimmed[2:]) + "</li>\n")
	default:
		r.closeList()
		r.paragraph = append(r.paragraph, Inline(trimmed))
	}
}

func (r *renderer) block(tag, text string) {
	r.flushParagraph()
	r.closeList()
	r.out.WriteString("<" + tag + ">" + Inline(text) + "</" + tag + ">\n")
}

func (r *renderer) flushParagraph() {
	if len(r.paragraph) == 0 {
		return
	}
	r.out.WriteString("<p>" + strings.Join(r.paragraph, "<br>") + "</p>\n")
	r.paragraph = r.paragraph[:0]
}

func (r *renderer) closeList() {
	if r.inList {
		r.out.WriteString("</ul>\n")
		r.inList = false
	}
}

// Inline escapes text and applies the inline rules. Code spans and links
// are rendered first and left untouched by the emphasis rules.
func Inline(text string) string {
	escaped := html.EscapeString(strings.ReplaceAll(text, "\x00", ""))

	var spans []string
	protect := func(markup string) string {
		spans = append(spans, markup)
		return placeholder(len(spans) - 1)
	}

	escaped = codeSpan.ReplaceAllStringFunc(escaped, func(m string) string {
		return protect("<code>" + codeSpan.FindStringSubmatch(m)[1] + "</code>")
	})

	escaped = link.ReplaceAllStringFunc(escaped, func(m string) string {
		parts := link.FindStringSubmatch(m)
		label, target := emphasis(parts[1]), parts[2]
		if !safeURL(target) {
			return protect(label)
		}
		return protect(`<a href="` + target + `" rel="noopener noreferrer" target="_blank">` + label + `</a>`)
	})

	escaped = emphasis(escaped)

	// Later spans may contain earlier placeholders, so restore newest first.
	for i := len(spans) - 1; i >= 0; i-- {
		escaped = strings.Replace(escaped, placeholder(i), spans[i], 1)
	}
	return escaped
}

func emphasis(s string) string {
	s = bold.ReplaceAllString(s, "<strong>$1</strong>")
	s = italicA.ReplaceAllString(s, "<em>$1</em>")
	// Adjacent matches share a boundary character, so repeat until stable.
	for i := 0; i < 4; i++ {
		next := italicU.ReplaceAllString(s, "$1<em>$2</em>$3")
		if next == s {
			break
		}
		s = next
	}
	return s
}

func placeholder(i int) string {
	return "\x00" + strconv.Itoa(i) + "\x00"
}

func safeURL(u string) bool {
	lower := strings.ToLower(html.UnescapeString(u))
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "mailto:")
}
