package parser

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
)

const (
	// pxPerIndentUnit converts CSS indentation to whitespace units.
	pxPerIndentUnit = 10
	maxColSpan      = 256
	maxRowSpan      = 4096
)

var (
	cssRule   = regexp.MustCompile(`([^{}]+)\{([^}]*)\}`)
	cssClass  = regexp.MustCompile(`^(?:[a-zA-Z]+)?\.([\w-]+)$`)
	cssLength = regexp.MustCompile(`^([+-]?\d*\.?\d+)\s*(px|pt|em|rem)?$`)
)

// ReadHTML reads every <table> of an HTML document, in document order.
// Tables are named Table_N after their 1-based position. The document
// encoding is taken from its meta tags when present, so EUC-KR filings
// decode correctly.
func ReadHTML(r io.Reader) ([]Grid, error) {
	doc, err := html.Parse(decodeHTML(r))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	classes := make(map[string]float64)
	collectStyles(doc, classes)

	var grids []Grid
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			name := "Table_" + strconv.Itoa(len(grids)+1)
			grids = append(grids, parseTable(n, name, classes))
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return grids, nil
}

// decodeHTML converts r to UTF-8 using the BOM or meta charset of the
// document. Without either the input is taken as UTF-8 rather than the
// windows-1252 fallback browsers use.
func decodeHTML(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	peek, _ := br.Peek(1024)
	enc, name, _ := charset.DetermineEncoding(peek, "")
	if name == "utf-8" || name == "windows-1252" {
		return br
	}
	return enc.NewDecoder().Reader(br)
}

// parseTable extracts the cell grid of a table element. Spanned positions
// are filled with empty cells so that columns stay aligned.
func parseTable(tableNode *html.Node, name string, classes map[string]float64) Grid {
	var cells [][]string
	var indents [][]int
	pending := make(map[int]int)

	addRow := func(tr *html.Node) {
		var row []string
		var ind []int
		fillSpanned := func() {
			for pending[len(row)] > 0 {
				pending[len(row)]--
				row = append(row, "")
				ind = append(ind, 0)
			}
		}

		for c := tr.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
				continue
			}
			fillSpanned()
			colSpan := spanAttr(c, "colspan", maxColSpan)
			rowSpan := spanAttr(c, "rowspan", maxRowSpan)

			start := len(row)
			row = append(row, cellText(c))
			ind = append(ind, cellIndent(c, classes))
			for k := 1; k < colSpan; k++ {
				row = append(row, "")
				ind = append(ind, 0)
			}
			if rowSpan > 1 {
				for col := start; col < start+colSpan; col++ {
					pending[col] = rowSpan - 1
				}
			}
		}

		// spans hanging past the last cell of this row
		last := -1
		for col, left := range pending {
			if left > 0 && col > last {
				last = col
			}
		}
		for len(row) <= last {
			if pending[len(row)] > 0 {
				pending[len(row)]--
			}
			row = append(row, "")
			ind = append(ind, 0)
		}

		if len(row) > 0 {
			cells = append(cells, row)
			indents = append(indents, ind)
		}
	}

	for c := tableNode.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "thead", "tbody", "tfoot":
			for tr := c.FirstChild; tr != nil; tr = tr.NextSibling {
				if tr.Type == html.ElementNode && tr.Data == "tr" {
					addRow(tr)
				}
			}
		case "tr":
			addRow(c)
		}
	}

	grid := Grid{Name: name}
	bounds, ok := DataBounds(cells)
	if !ok {
		return grid
	}
	grid.Cells = Slice(cells, bounds)
	grid.LabelIndent = make([]int, len(grid.Cells))
	for i := range grid.LabelIndent {
		row := indents[bounds.R1-1+i]
		if col := bounds.C1 - 1; col < len(row) {
			grid.LabelIndent[i] = row[col]
		}
	}
	return grid
}

func spanAttr(n *html.Node, key string, limit int) int {
	for _, attr := range n.Attr {
		if attr.Key != key {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(attr.Val))
		if err != nil || v < 1 {
			return 1
		}
		return min(v, limit)
	}
	return 1
}

// cellText returns the text of a cell. ASCII whitespace collapses as a
// browser would render it; leading non-breaking and ideographic spaces are
// kept because statements use them for indentation.
func cellText(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b)
	s := strings.TrimLeft(b.String(), " \t\n\r\f")

	body := strings.TrimLeftFunc(s, unicode.IsSpace)
	lead := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			return -1
		}
		return r
	}, s[:len(s)-len(body)])

	return lead + strings.Join(strings.Fields(body), " ")
}

func collectText(n *html.Node, b *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "table", "script", "style":
			return
		case "br":
			b.WriteByte(' ')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}

// cellIndent returns the CSS indentation of a cell and of its leading
// wrapper elements, in whitespace units.
func cellIndent(n *html.Node, classes map[string]float64) int {
	px := 0.0
	for depth := 0; n != nil && depth < 4; depth++ {
		px += elementIndent(n, classes)
		n = firstElementChild(n)
	}
	if px <= 0 {
		return 0
	}
	return int(math.Round(px / pxPerIndentUnit))
}

func firstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.ElementNode:
			return c
		case html.TextNode:
			if strings.TrimSpace(c.Data) != "" {
				return nil
			}
		}
	}
	return nil
}

func elementIndent(n *html.Node, classes map[string]float64) float64 {
	px := 0.0
	for _, attr := range n.Attr {
		switch attr.Key {
		case "style":
			px += declarationIndent(attr.Val)
		case "class":
			for _, class := range strings.Fields(attr.Val) {
				px += classes[class]
			}
		}
	}
	return px
}

// collectStyles records the indentation of class selectors declared in
// <style> elements.
func collectStyles(n *html.Node, classes map[string]float64) {
	if n.Type == html.ElementNode && n.Data == "style" {
		var b strings.Builder
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}
		for _, m := range cssRule.FindAllStringSubmatch(b.String(), -1) {
			px := declarationIndent(m[2])
			if px == 0 {
				continue
			}
			for _, selector := range strings.Split(m[1], ",") {
				if cm := cssClass.FindStringSubmatch(strings.TrimSpace(selector)); cm != nil {
					classes[cm[1]] = px
				}
			}
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectStyles(c, classes)
	}
}

// declarationIndent sums padding-left, margin-left and text-indent of a
// CSS declaration block, in pixels.
func declarationIndent(decls string) float64 {
	px := 0.0
	for _, decl := range strings.Split(decls, ";") {
		key, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "padding-left", "margin-left", "text-indent":
			px += cssPixels(value)
		}
	}
	return px
}

func cssPixels(value string) float64 {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(strings.ToLower(value)), "!important"))
	m := cssLength.FindStringSubmatch(value)
	if m == nil {
		return 0
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	switch m[2] {
	case "pt":
		return n * 4 / 3
	case "em", "rem":
		return n * 16
	default:
		return n
	}
}
