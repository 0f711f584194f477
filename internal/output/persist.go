package output

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmylchreest/ocrmerge/internal/diffreport"
	"github.com/jmylchreest/ocrmerge/internal/logger"
)

// ReportPrefix is prepended to the identifier in diff report file names.
const ReportPrefix = "compare_"

// Persister writes pipeline artifacts to flat files.
type Persister struct {
	docx bool
	perm os.FileMode
}

// PersisterOption configures a Persister.
type PersisterOption func(*Persister)

// WithDOCX toggles writing a .docx copy next to every .txt transcript.
func WithDOCX(enabled bool) PersisterOption {
	return func(p *Persister) {
		p.docx = enabled
	}
}

// NewPersister creates a Persister. DOCX output is on by default.
func NewPersister(opts ...PersisterOption) *Persister {
	p := &Persister{docx: true, perm: 0o644}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WriteText writes <dir>/<id>.txt and, when enabled, <dir>/<id>.docx. Both
// artifacts are attempted even if the first fails; the paths written are
// returned together with the joined errors.
func (p *Persister) WriteText(dir, id, text string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	var written []string
	var errs []error

	txtPath := filepath.Join(dir, id+".txt")
	if err := os.WriteFile(txtPath, []byte(text), p.perm); err != nil {
		logger.Error("failed to write text", "path", txtPath, "error", err)
		errs = append(errs, fmt.Errorf("write %s: %w", txtPath, err))
	} else {
		written = append(written, txtPath)
	}

	if p.docx {
		docxPath := filepath.Join(dir, id+".docx")
		var buf bytes.Buffer
		err := WriteDOCX(&buf, text)
		if err == nil {
			err = os.WriteFile(docxPath, buf.Bytes(), p.perm)
		}
		if err != nil {
			logger.Error("failed to write docx", "path", docxPath, "error", err)
			errs = append(errs, fmt.Errorf("write %s: %w", docxPath, err))
		} else {
			written = append(written, docxPath)
		}
	}

	return written, errors.Join(errs...)
}

// WriteReport writes <dir>/compare_<id>.html.
func (p *Persister) WriteReport(dir string, report diffreport.Report) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, ReportPrefix+report.ID+".html")
	if err := os.WriteFile(path, []byte(report.HTML), p.perm); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
