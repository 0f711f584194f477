package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/jmylchreest/ocrmerge/internal/summary"
)

// JSONWriter writes a summary as a single JSON document.
type JSONWriter struct {
	w      *bufio.Writer
	pretty bool
	indent string
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
	}
}

// jsonSummary adds the derived totals to the encoded document.
type jsonSummary struct {
	*summary.Summary
	Succeeded int                     `json:"succeeded"`
	Failed    int                     `json:"failed"`
	Counts    map[summary.Outcome]int `json:"counts"`
}

// WriteSummary encodes s.
func (w *JSONWriter) WriteSummary(s *summary.Summary) error {
	doc := jsonSummary{
		Summary:   s,
		Succeeded: s.Succeeded(),
		Failed:    s.Failed(),
		Counts:    s.Counts(),
	}

	var out []byte
	var err error
	if w.pretty {
		out, err = json.MarshalIndent(doc, "", w.indent)
	} else {
		out, err = json.Marshal(doc)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(out); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.w.Flush()
}

// JSONLWriter writes one JSON line per item outcome. Each line carries the
// run ID and mode so lines from several runs can be concatenated.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{
		w: bufio.NewWriter(w),
	}
}

type jsonlItem struct {
	RunID string       `json:"run_id"`
	Mode  summary.Mode `json:"mode"`
	summary.ItemOutcome
}

// WriteSummary writes every item of s as its own line.
func (w *JSONLWriter) WriteSummary(s *summary.Summary) error {
	for _, item := range s.Items {
		out, err := json.Marshal(jsonlItem{RunID: s.RunID, Mode: s.Mode, ItemOutcome: item})
		if err != nil {
			return err
		}
		if _, err := w.w.Write(out); err != nil {
			return err
		}
		if _, err := w.w.WriteString("\n"); err != nil {
			return err
		}
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.w.Flush()
}
