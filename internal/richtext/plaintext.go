// Package richtext reduces editor HTML to the plain text that is stored and
// shown in change history.
package richtext

import (
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
)

// blockElements end a line of text.
const blockElements = "p, div, li, h1, h2, h3, h4, h5, h6, tr, blockquote, pre"

// PlainText strips markup from s. Block elements and <br> become line breaks,
// runs of blanks inside a line collapse to one space and empty lines are
// dropped. Input without markup is only trimmed.
func PlainText(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.TrimSpace(s)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(s)
	}
	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find(blockElements).Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml("\n")
	})

	var lines []string
	for _, line := range strings.Split(doc.Text(), "\n") {
		if line = collapseSpaces(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}
