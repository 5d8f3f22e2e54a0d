package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ukaji3/finaudit-go/pkg/finaudit/models"
)

// WriteText writes a human-readable summary of report. source names the
// verified document and may be empty.
func WriteText(w io.Writer, source string, report *models.Report) error {
	bw := bufio.NewWriter(w)

	if source == "" {
		source = "-"
	}
	fmt.Fprintln(bw, "감사보고서 검증 리포트")
	fmt.Fprintln(bw, strings.Repeat("=", 60))
	fmt.Fprintf(bw, "파일: %s\n", source)
	fmt.Fprintf(bw, "추출된 테이블: %d개\n", len(report.Tables))
	fmt.Fprintf(bw, "발견된 문제: %d개\n", len(report.Findings))

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "테이블 요약:")
	for i, t := range report.Tables {
		fmt.Fprintf(bw, "  %d. %s: %d행 x %d열 (숫자 열 %d, 합계 행 %d)\n",
			i+1, t.Name, t.Rows, t.Columns, t.NumericColumns, t.TotalRowsDetected)
	}

	fmt.Fprintln(bw)
	if len(report.Findings) == 0 {
		fmt.Fprintln(bw, "검증 결과: 문제 없음")
	} else {
		fmt.Fprintln(bw, "발견된 문제점:")
		for i, f := range report.Findings {
			fmt.Fprintf(bw, "  %d. %s\n", i+1, FormatFinding(f))
		}
	}

	if len(report.Errors) > 0 {
		fmt.Fprintln(bw)
		fmt.Fprintln(bw, "처리 오류:")
		for _, e := range report.Errors {
			fmt.Fprintf(bw, "  - %s [%s]: %s\n", e.Table, e.Stage, e.Message)
		}
	}

	return bw.Flush()
}

// FormatFinding renders one finding on a single line.
func FormatFinding(f models.Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", f.Kind, f.Table)
	if f.OtherTable != "" {
		fmt.Fprintf(&b, " <> %s", f.OtherTable)
	}
	if len(f.RowRefs) > 0 {
		fmt.Fprintf(&b, " rows %s", joinInts(f.RowRefs))
	}
	if f.Column != "" {
		fmt.Fprintf(&b, " column %q", f.Column)
	}
	if f.Detail != "" {
		fmt.Fprintf(&b, ": %s", f.Detail)
	}
	return b.String()
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
