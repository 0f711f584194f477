// Package diffreport renders line-level side-by-side comparisons of two
// transcriptions as self-contained HTML documents.
package diffreport

import (
	"bytes"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const (
	// DefaultWrapColumn is the column at which long lines are wrapped.
	DefaultWrapColumn = 80
	// DefaultTabSize is the tab stop width used when rendering.
	DefaultTabSize = 8
)

// Cell classes used in the rendered table.
const (
	classAdd     = "diff_add"
	classSub     = "diff_sub"
	classChg     = "diff_chg"
	continuation = ">"
)

// Report is the rendered comparison for one identifier.
type Report struct {
	ID   string
	HTML string

	// Number of line ranges inserted, deleted and replaced going from A to B.
	Inserted int
	Deleted  int
	Replaced int
}

// Changes returns the number of differing line ranges. It is zero when both
// inputs are line-for-line identical.
func (r Report) Changes() int {
	return r.Inserted + r.Deleted + r.Replaced
}

// Reporter builds diff reports.
type Reporter struct {
	wrapColumn int
	tabSize    int
}

// Option configures a Reporter.
type Option func(*Reporter)

// WithWrapColumn sets the rendering wrap column. Zero or less disables wrapping.
func WithWrapColumn(n int) Option {
	return func(r *Reporter) {
		r.wrapColumn = n
	}
}

// WithTabSize sets the tab stop width.
func WithTabSize(n int) Option {
	return func(r *Reporter) {
		if n > 0 {
			r.tabSize = n
		}
	}
}

// New creates a Reporter.
func New(opts ...Option) *Reporter {
	r := &Reporter{
		wrapColumn: DefaultWrapColumn,
		tabSize:    DefaultTabSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Diff compares textA against textB line by line and renders the result.
// labelA and labelB name the engines that produced each side.
func (r *Reporter) Diff(id, textA, textB, labelA, labelB string) (Report, error) {
	a := SplitLines(textA)
	b := SplitLines(textB)

	report := Report{ID: id}
	var rows []row

	matcher := difflib.NewMatcher(a, b)
	for _, op := range matcher.GetOpCodes() {
		switch op.Tag {
		case 'e':
			for k := 0; k < op.I2-op.I1; k++ {
				rows = r.appendRows(rows, "equal",
					r.side(op.I1+k, a[op.I1+k], ""),
					r.side(op.J1+k, b[op.J1+k], ""))
			}
		case 'd':
			report.Deleted++
			for i := op.I1; i < op.I2; i++ {
				rows = r.appendRows(rows, "delete", r.side(i, a[i], classSub), blankSide())
			}
		case 'i':
			report.Inserted++
			for j := op.J1; j < op.J2; j++ {
				rows = r.appendRows(rows, "insert", blankSide(), r.side(j, b[j], classAdd))
			}
		case 'r':
			report.Replaced++
			rows = r.appendReplace(rows, a[op.I1:op.I2], op.I1, b[op.J1:op.J2], op.J1)
		}
	}

	var buf bytes.Buffer
	err := pageTemplate.Execute(&buf, page{
		Title:     fmt.Sprintf("%s: %s vs %s", id, labelA, labelB),
		HeaderA:   labelA + " - " + id,
		HeaderB:   labelB + " - " + id,
		Rows:      rows,
		Identical: report.Changes() == 0,
		Empty:     len(a) == 0 && len(b) == 0,
		Inserted:  report.Inserted,
		Deleted:   report.Deleted,
		Replaced:  report.Replaced,
	})
	if err != nil {
		return Report{}, fmt.Errorf("render diff report for %s: %w", id, err)
	}
	report.HTML = buf.String()
	return report, nil
}

// SplitLines splits text into lines that keep their terminator. Carriage
// return line endings are normalised to "\n" first. A trailing empty line
// (text ending in a blank line) is kept; only the empty remainder after the
// final terminator is dropped.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

type segment struct {
	Text  string
	Class string
}

type cell struct {
	Num      string
	Segments []segment
}

type row struct {
	Kind  string
	Left  cell
	Right cell
}

// sideLine is one line of one side before wrapping.
type sideLine struct {
	num      string
	segments []segment
	present  bool
}

func blankSide() sideLine {
	return sideLine{}
}

func (r *Reporter) side(index int, line, class string) sideLine {
	text := r.display(line)
	var segs []segment
	if text != "" {
		segs = []segment{{Text: text, Class: class}}
	}
	return sideLine{num: strconv.Itoa(index + 1), segments: segs, present: true}
}

// appendReplace pairs the lines of a replaced range and highlights the
// characters that differ within each pair.
func (r *Reporter) appendReplace(rows []row, a []string, aStart int, b []string, bStart int) []row {
	n := len(a)
	if len(b) > n {
		n = len(b)
	}
	for k := 0; k < n; k++ {
		switch {
		case k < len(a) && k < len(b):
			left, right := intraline(r.display(a[k]), r.display(b[k]))
			rows = r.appendRows(rows, "replace",
				sideLine{num: strconv.Itoa(aStart + k + 1), segments: left, present: true},
				sideLine{num: strconv.Itoa(bStart + k + 1), segments: right, present: true})
		case k < len(a):
			rows = r.appendRows(rows, "replace", r.side(aStart+k, a[k], classSub), blankSide())
		default:
			rows = r.appendRows(rows, "replace", blankSide(), r.side(bStart+k, b[k], classAdd))
		}
	}
	return rows
}

// appendRows wraps both sides and emits as many table rows as the longer
// side needs. Continuation rows are numbered with ">".
func (r *Reporter) appendRows(rows []row, kind string, left, right sideLine) []row {
	lc := wrap(left.segments, r.wrapColumn)
	rc := wrap(right.segments, r.wrapColumn)
	n := len(lc)
	if len(rc) > n {
		n = len(rc)
	}
	for k := 0; k < n; k++ {
		var out row
		out.Kind = kind
		out.Left = chunkCell(left, lc, k)
		out.Right = chunkCell(right, rc, k)
		rows = append(rows, out)
	}
	return rows
}

func chunkCell(s sideLine, chunks [][]segment, k int) cell {
	if !s.present || k >= len(chunks) {
		return cell{}
	}
	num := s.num
	if k > 0 {
		num = continuation
	}
	return cell{Num: num, Segments: chunks[k]}
}

// display strips the line terminator and expands tabs.
func (r *Reporter) display(line string) string {
	line = strings.TrimSuffix(line, "\n")
	if !strings.Contains(line, "\t") {
		return line
	}
	var sb strings.Builder
	col := 0
	for _, ch := range line {
		if ch == '\t' {
			pad := r.tabSize - col%r.tabSize
			sb.WriteString(strings.Repeat(" ", pad))
			col += pad
			continue
		}
		sb.WriteRune(ch)
		col++
	}
	return sb.String()
}

// intraline diffs two lines character by character.
func intraline(a, b string) ([]segment, []segment) {
	ra := runeStrings(a)
	rb := runeStrings(b)

	var left, right []segment
	m := difflib.NewMatcher(ra, rb)
	for _, op := range m.GetOpCodes() {
		ta := strings.Join(ra[op.I1:op.I2], "")
		tb := strings.Join(rb[op.J1:op.J2], "")
		class := classChg
		if op.Tag == 'e' {
			class = ""
		}
		if ta != "" {
			left = append(left, segment{Text: ta, Class: class})
		}
		if tb != "" {
			right = append(right, segment{Text: tb, Class: class})
		}
	}
	return left, right
}

func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, ch := range s {
		out = append(out, string(ch))
	}
	return out
}

// wrap splits segments into chunks of at most width runes. An empty line
// still yields one (empty) chunk.
func wrap(segs []segment, width int) [][]segment {
	if width <= 0 {
		return [][]segment{segs}
	}
	chunks := [][]segment{nil}
	used := 0
	for _, seg := range segs {
		rs := []rune(seg.Text)
		for len(rs) > 0 {
			if used == width {
				chunks = append(chunks, nil)
				used = 0
			}
			take := width - used
			if take > len(rs) {
				take = len(rs)
			}
			last := len(chunks) - 1
			chunks[last] = append(chunks[last], segment{Text: string(rs[:take]), Class: seg.Class})
			used += take
			rs = rs[take:]
		}
	}
	return chunks
}

type page struct {
	Title     string
	HeaderA   string
	HeaderB   string
	Rows      []row
	Identical bool
	Empty     bool
	Inserted  int
	Deleted   int
	Replaced  int
}

var pageTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
table.diff {font-family: Courier, monospace; border: medium; border-collapse: collapse}
.diff_header {background-color: #e0e0e0}
td.diff_header {text-align: right; padding: 0 0.4em}
.diff_text {white-space: pre-wrap; padding: 0 0.4em}
.diff_add {background-color: #aaffaa}
.diff_chg {background-color: #ffff77}
.diff_sub {background-color: #ffaaaa}
</style>
</head>
<body>
<p class="summary">{{if .Identical}}No differences found.{{else}}{{.Replaced}} changed, {{.Inserted}} added, {{.Deleted}} deleted.{{end}}</p>
<table class="diff" summary="Differences">
<thead>
<tr><th colspan="2" class="diff_header">{{.HeaderA}}</th><th colspan="2" class="diff_header">{{.HeaderB}}</th></tr>
</thead>
<tbody>
{{- if .Empty}}
<tr class="empty"><td class="diff_header"></td><td class="diff_text">Empty File</td><td class="diff_header"></td><td class="diff_text">Empty File</td></tr>
{{- end}}
{{- range .Rows}}
<tr class="{{.Kind}}"><td class="diff_header">{{.Left.Num}}</td><td class="diff_text">{{range .Left.Segments}}{{if .Class}}<span class="{{.Class}}">{{.Text}}</span>{{else}}{{.Text}}{{end}}{{end}}</td><td class="diff_header">{{.Right.Num}}</td><td class="diff_text">{{range .Right.Segments}}{{if .Class}}<span class="{{.Class}}">{{.Text}}</span>{{else}}{{.Text}}{{end}}{{end}}</td></tr>
{{- end}}
</tbody>
</table>
<table class="diff" summary="Legends">
<tr><th colspan="2">Legends</th></tr>
<tr><td><span class="diff_add">Added</span></td><td><span class="diff_chg">Changed</span></td></tr>
<tr><td><span class="diff_sub">Deleted</span></td><td></td></tr>
</table>
</body>
</html>
`))
