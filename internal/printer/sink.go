// Package printer defines the boundary to the print subsystem. The real
// OS spooler lives behind the Sink interface; this module only submits
// rendered documents and interprets the result.
package printer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Document is one rendered, print-ready document.
type Document struct {
	Name    string // label for sinks that write files, e.g. the order number
	Content []byte
	Printer string // target printer selector, empty means default
	Copies  int
}

// Sink accepts rendered documents for printing. Submit returns nil only
// when the document was accepted in full; any error is reported verbatim
// as the print-stage failure for that order.
type Sink interface {
	Submit(ctx context.Context, doc Document) error
	ListPrinters() []string
	DefaultPrinter() string
}

// Development placeholders, matching what operators see before a real
// spooler is configured.
const (
	DevPrinterName = "Development Printer"
	PDFOutputName  = "PDF Output"
)

// FileSink is the development-mode sink: it writes each submitted copy
// into an output directory instead of driving a physical printer.
type FileSink struct {
	outputDir string
	logger    *slog.Logger
}

func NewFileSink(outputDir string, logger *slog.Logger) (*FileSink, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &FileSink{outputDir: outputDir, logger: logger}, nil
}

func (s *FileSink) Submit(ctx context.Context, doc Document) error {
	if len(doc.Content) == 0 {
		return fmt.Errorf("empty document %q", doc.Name)
	}
	copies := doc.Copies
	if copies < 1 {
		copies = 1
	}
	for i := 1; i <= copies; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := fmt.Sprintf("pick_ticket_%s.html", sanitize(doc.Name))
		if copies > 1 {
			name = fmt.Sprintf("pick_ticket_%s_copy%d.html", sanitize(doc.Name), i)
		}
		path := filepath.Join(s.outputDir, name)
		if err := os.WriteFile(path, doc.Content, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		s.logger.Info("printer.file_sink.saved", "document", doc.Name, "path", path, "copy", i)
	}
	return nil
}

func (s *FileSink) ListPrinters() []string {
	return []string{DevPrinterName, PDFOutputName}
}

func (s *FileSink) DefaultPrinter() string {
	return DevPrinterName
}

// NopSink accepts every document and discards it. Used for dry runs
// where operators want rendering exercised without any output.
type NopSink struct {
	logger *slog.Logger
}

func NewNopSink(logger *slog.Logger) *NopSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &NopSink{logger: logger}
}

func (s *NopSink) Submit(_ context.Context, doc Document) error {
	s.logger.Info("printer.nop_sink.discarded", "document", doc.Name, "bytes", len(doc.Content))
	return nil
}

func (s *NopSink) ListPrinters() []string { return nil }

func (s *NopSink) DefaultPrinter() string { return "" }

// sanitize keeps file names portable; order numbers like "#1001" carry
// characters some filesystems reject.
func sanitize(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
