package diffreport

import (
	"reflect"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse report: %v", err)
	}
	return doc
}

func diffTable(doc *goquery.Document) *goquery.Selection {
	return doc.Find(`table[summary="Differences"]`)
}

func TestDiff_IdenticalHasNoChanges(t *testing.T) {
	text := "line one\nline two\n\nline four\n"
	rep, err := New().Diff("doc1", text, text, "primary", "secondary")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if rep.Changes() != 0 {
		t.Fatalf("expected zero changes, got %+v", rep)
	}

	doc := parse(t, rep.HTML)
	if n := diffTable(doc).Find("span.diff_add, span.diff_sub, span.diff_chg").Length(); n != 0 {
		t.Errorf("expected no highlighted spans, got %d", n)
	}
	if n := diffTable(doc).Find("tr.equal").Length(); n != 4 {
		t.Errorf("expected 4 equal rows, got %d", n)
	}
	if got := strings.TrimSpace(doc.Find("p.summary").Text()); got != "No differences found." {
		t.Errorf("summary = %q", got)
	}
}

func TestDiff_Headers(t *testing.T) {
	rep, err := New().Diff("doc1", "a\n", "b\n", "gemini-2.5-pro", "gemini-1.5-flash")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	doc := parse(t, rep.HTML)

	var headers []string
	diffTable(doc).Find("th.diff_header").Each(func(_ int, s *goquery.Selection) {
		headers = append(headers, s.Text())
	})
	want := []string{"gemini-2.5-pro - doc1", "gemini-1.5-flash - doc1"}
	if !reflect.DeepEqual(headers, want) {
		t.Errorf("headers = %v, want %v", headers, want)
	}
	if doc.Find(`table[summary="Legends"]`).Length() != 1 {
		t.Error("expected a legend table")
	}
}

func TestDiff_ReplacedLineHighlightsCharacters(t *testing.T) {
	rep, err := New().Diff("doc1", "Hello world\n", "Hello, world\n", "primary", "secondary")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if rep.Replaced != 1 || rep.Inserted != 0 || rep.Deleted != 0 {
		t.Fatalf("unexpected counts %+v", rep)
	}

	doc := parse(t, rep.HTML)
	chg := diffTable(doc).Find("tr.replace span.diff_chg")
	if chg.Length() != 1 || chg.Text() != "," {
		t.Errorf("expected a single highlighted comma, got %d spans %q", chg.Length(), chg.Text())
	}
	cells := diffTable(doc).Find("tr.replace td.diff_text")
	if cells.Eq(0).Text() != "Hello world" || cells.Eq(1).Text() != "Hello, world" {
		t.Errorf("unexpected row text %q / %q", cells.Eq(0).Text(), cells.Eq(1).Text())
	}
}

func TestDiff_InsertAndDelete(t *testing.T) {
	a := "one\ntwo\n"
	b := "one\ntwo\nthree\n"

	rep, err := New().Diff("doc", a, b, "A", "B")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if rep.Inserted != 1 || rep.Changes() != 1 {
		t.Fatalf("unexpected counts %+v", rep)
	}
	doc := parse(t, rep.HTML)
	ins := diffTable(doc).Find("tr.insert")
	if ins.Length() != 1 {
		t.Fatalf("expected 1 insert row, got %d", ins.Length())
	}
	if num := ins.Find("td.diff_header").Eq(1).Text(); num != "3" {
		t.Errorf("expected right line number 3, got %q", num)
	}
	if ins.Find("span.diff_add").Text() != "three" {
		t.Errorf("expected added text, got %q", ins.Find("span.diff_add").Text())
	}

	rep, err = New().Diff("doc", b, a, "A", "B")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if rep.Deleted != 1 || rep.Changes() != 1 {
		t.Fatalf("unexpected counts %+v", rep)
	}
	doc = parse(t, rep.HTML)
	if diffTable(doc).Find("tr.delete span.diff_sub").Text() != "three" {
		t.Error("expected deleted text to be highlighted")
	}
}

func TestDiff_WrapsLongLines(t *testing.T) {
	long := strings.Repeat("x", 200) + "\n"

	rep, err := New().Diff("doc", long, long, "A", "B")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if rep.Changes() != 0 {
		t.Errorf("wrapping must not affect the comparison, got %+v", rep)
	}

	doc := parse(t, rep.HTML)
	rows := diffTable(doc).Find("tr.equal")
	if rows.Length() != 3 {
		t.Fatalf("expected 3 wrapped rows, got %d", rows.Length())
	}
	if n := rows.Eq(0).Find("td.diff_header").First().Text(); n != "1" {
		t.Errorf("first row number = %q", n)
	}
	for i := 1; i < 3; i++ {
		if n := rows.Eq(i).Find("td.diff_header").First().Text(); n != ">" {
			t.Errorf("row %d should be a continuation, got %q", i, n)
		}
	}
	if got := len(rows.Eq(2).Find("td.diff_text").First().Text()); got != 40 {
		t.Errorf("expected 40 chars on the last chunk, got %d", got)
	}

	rep, err = New(WithWrapColumn(0)).Diff("doc", long, long, "A", "B")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if n := diffTable(parse(t, rep.HTML)).Find("tr.equal").Length(); n != 1 {
		t.Errorf("expected no wrapping, got %d rows", n)
	}
}

func TestDiff_EscapesContent(t *testing.T) {
	rep, err := New().Diff("doc", "<b>bold</b>\n", "<b>bold</b>\n", "A", "B")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	doc := parse(t, rep.HTML)
	if diffTable(doc).Find("b").Length() != 0 {
		t.Error("markup in transcriptions must be escaped")
	}
	if got := diffTable(doc).Find("td.diff_text").First().Text(); got != "<b>bold</b>" {
		t.Errorf("text = %q", got)
	}
}

func TestDiff_EmptyInputs(t *testing.T) {
	rep, err := New().Diff("blank", "", "", "A", "B")
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if rep.Changes() != 0 {
		t.Errorf("expected no changes, got %+v", rep)
	}
	if !strings.Contains(rep.HTML, "Empty File") {
		t.Error("expected empty file marker")
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a\nb\n", []string{"a\n", "b\n"}},
		{"a\n\n", []string{"a\n", "\n"}},
		{"a\r\nb\rc", []string{"a\n", "b\n", "c"}},
	}
	for _, tt := range tests {
		if got := SplitLines(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitLines(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayExpandsTabs(t *testing.T) {
	r := New(WithTabSize(4))
	if got := r.display("a\tb\n"); got != "a   b" {
		t.Errorf("display = %q", got)
	}
}
