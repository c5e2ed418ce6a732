package report

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
)

// RenderMarkdown converts a Markdown summary into a PDF document. Only the
// subset the summary generator emits is styled (headers, bullet and numbered
// lists, bold/italic/inline-code markers); everything else renders as a plain
// paragraph.
func RenderMarkdown(markdownText string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(72, 72, 72)
	pdf.SetAutoPageBreak(true, 72)
	pdf.AddPage()

	for _, line := range strings.Split(markdownText, "\n") {
		stripped := strings.TrimSpace(line)

		switch {
		case stripped == "":
			pdf.Ln(6)

		case strings.HasPrefix(stripped, "# "):
			writeLine(pdf, stripText(stripped[2:]), 18, 22, 12, true)

		case strings.HasPrefix(stripped, "## "):
			writeLine(pdf, stripText(stripped[3:]), 16, 20, 10, true)

		case strings.HasPrefix(stripped, "### "):
			writeLine(pdf, stripText(stripped[4:]), 14, 18, 8, true)

		case strings.HasPrefix(stripped, "- ") || strings.HasPrefix(stripped, "* "):
			writeBullet(pdf, "• "+stripText(stripped[2:]))

		case numberedItem.MatchString(stripped):
			writeBullet(pdf, stripText(stripped))

		default:
			writeLine(pdf, stripText(stripped), 11, 14, 8, false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var (
	numberedItem = regexp.MustCompile(`^\d+\.\s`)
	boldMarker   = regexp.MustCompile(`\*\*(.*?)\*\*|__(.*?)__`)
	italicMarker = regexp.MustCompile(`\*(.*?)\*|_(.*?)_`)
	codeMarker   = regexp.MustCompile("`(.*?)`")
)

// stripText drops inline markers; fpdf has no inline style switching inside a
// single MultiCell, so emphasis is flattened to plain text.
func stripText(text string) string {
	text = boldMarker.ReplaceAllString(text, "$1$2")
	text = italicMarker.ReplaceAllString(text, "$1$2")
	text = codeMarker.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

func writeLine(pdf *fpdf.Fpdf, text string, size, leading, spaceAfter float64, bold bool) {
	style := ""
	if bold {
		style = "B"
	}
	pdf.SetFont("Helvetica", style, size)
	pdf.MultiCell(0, leading, text, "", "L", false)
	pdf.Ln(spaceAfter)
}

func writeBullet(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetLeftMargin(92)
	pdf.MultiCell(0, 14, text, "", "L", false)
	pdf.SetLeftMargin(72)
	pdf.Ln(4)
}
