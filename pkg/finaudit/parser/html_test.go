package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"
)

const balanceSheetHTML = `<!DOCTYPE html>
<html><head>
<style>
  .indent1 { padding-left: 20px; }
  .indent2 { padding-left: 40px; }
  td.num { text-align: right; }
</style>
</head><body>
<p>재무상태표</p>
<table>
  <thead><tr><th>과목</th><th>당기</th><th>전기</th></tr></thead>
  <tbody>
    <tr><td class="indent1">유동자산</td><td></td><td></td></tr>
    <tr><td class="indent2">현금및현금성자산</td><td class="num">1,000</td><td class="num">900</td></tr>
    <tr><td class="indent2">매출채권</td><td class="num">500</td><td class="num">400</td></tr>
    <tr><td class="indent1"><strong>유동자산 합계</strong></td><td class="num">1,500</td><td class="num">1,300</td></tr>
  </tbody>
</table>
</body></html>`

func TestReadHTML_ClassIndent(t *testing.T) {
	grids, err := ReadHTML(strings.NewReader(balanceSheetHTML))
	require.NoError(t, err)
	require.Len(t, grids, 1)

	g := grids[0]
	assert.Equal(t, "Table_1", g.Name)
	require.Len(t, g.Cells, 5)
	assert.Equal(t, []string{"과목", "당기", "전기"}, g.Cells[0])
	assert.Equal(t, []string{"유동자산 합계", "1,500", "1,300"}, g.Cells[4])
	assert.Equal(t, []int{0, 2, 4, 4, 2}, g.LabelIndent)
}

func TestReadHTML_InlineIndentAndSpaces(t *testing.T) {
	doc := `<table>
<tr><td>과목</td><td>금액</td></tr>
<tr><td>
    &nbsp;&nbsp;현금</td><td>10</td></tr>
<tr><td style="padding-left: 15pt">예금</td><td>20</td></tr>
<tr><td><p style="margin-left:1em">적금</p></td><td>30</td></tr>
<tr><td>합계</td><td>60</td></tr>
</table>`

	grids, err := ReadHTML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, grids, 1)

	g := grids[0]
	assert.Equal(t, "\u00a0\u00a0현금", g.Cells[1][0], "source line breaks are not indentation")
	assert.Equal(t, []int{0, 0, 2, 2, 0}, g.LabelIndent)
}

func TestReadHTML_Spans(t *testing.T) {
	doc := `<table>
<tr><th rowspan="2">과목</th><th colspan="2">당기</th></tr>
<tr><th>1분기</th><th>2분기</th></tr>
<tr><td>매출</td><td>1</td><td>2</td></tr>
</table>`

	grids, err := ReadHTML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, grids, 1)
	assert.Equal(t, [][]string{
		{"과목", "당기", ""},
		{"", "1분기", "2분기"},
		{"매출", "1", "2"},
	}, grids[0].Cells)
}

func TestReadHTML_MultipleAndNested(t *testing.T) {
	doc := `<table><tr><td>a</td><td>1</td></tr>
<tr><td><table><tr><td>inner</td><td>9</td></tr></table>b</td><td>2</td></tr></table>
<table><tr><td>c</td><td>3</td></tr></table>`

	grids, err := ReadHTML(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, grids, 3)

	assert.Equal(t, "Table_1", grids[0].Name)
	assert.Equal(t, "b", grids[0].Cells[1][0], "nested table text stays in its own grid")
	assert.Equal(t, "Table_2", grids[1].Name)
	assert.Equal(t, [][]string{{"inner", "9"}}, grids[1].Cells)
	assert.Equal(t, "Table_3", grids[2].Name)
}

func TestReadHTML_EUCKR(t *testing.T) {
	doc := `<html><head><meta charset="euc-kr"></head><body>
<table><tr><td>당기순이익</td><td>50,000</td></tr></table></body></html>`
	encoded, err := korean.EUCKR.NewEncoder().String(doc)
	require.NoError(t, err)

	grids, err := ReadHTML(bytes.NewReader([]byte(encoded)))
	require.NoError(t, err)
	require.Len(t, grids, 1)
	assert.Equal(t, "당기순이익", grids[0].Cells[0][0])
}

func TestCSSPixels(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"20px", 20},
		{" 15pt ", 20},
		{"1.5em", 24},
		{"2rem !important", 32},
		{"0", 0},
		{"auto", 0},
		{"10%", 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.InDelta(t, tt.want, cssPixels(tt.in), 1e-9)
		})
	}
}
