package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/ocrmerge/internal/summary"
)

// YAMLWriter writes a summary as YAML.
type YAMLWriter struct {
	w *bufio.Writer
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w: bufio.NewWriter(w),
	}
}

type yamlSummary struct {
	summary.Summary `yaml:",inline"`
	Succeeded       int                     `yaml:"succeeded"`
	Failed          int                     `yaml:"failed"`
	Counts          map[summary.Outcome]int `yaml:"counts"`
}

// WriteSummary encodes s.
func (w *YAMLWriter) WriteSummary(s *summary.Summary) error {
	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)

	err := encoder.Encode(yamlSummary{
		Summary:   *s,
		Succeeded: s.Succeeded(),
		Failed:    s.Failed(),
		Counts:    s.Counts(),
	})
	if err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the writer.
func (w *YAMLWriter) Close() error {
	return w.w.Flush()
}
