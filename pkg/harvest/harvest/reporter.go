package harvest

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	perrors "github.com/sambeau/harvest/pkg/harvest/errors"
)

// Reporter receives diagnostics as they are raised.
type Reporter interface {
	Report(err *perrors.HarvestError)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(*perrors.HarvestError)

func (f ReporterFunc) Report(err *perrors.HarvestError) { f(err) }

// writerReporter writes one diagnostic per line to an io.Writer
type writerReporter struct {
	w io.Writer
}

func (r *writerReporter) Report(err *perrors.HarvestError) {
	prefix := ""
	if err.File != "" {
		prefix = err.File + ": "
	}
	fmt.Fprintln(r.w, prefix+err.Diagnostic())
}

// WriterReporter returns a reporter that writes to an io.Writer
func WriterReporter(w io.Writer) Reporter {
	return &writerReporter{w: w}
}

// BufferedReporter captures diagnostics for later retrieval. It is safe for
// concurrent use, so several checks can share one.
type BufferedReporter struct {
	mu   sync.Mutex
	errs []*perrors.HarvestError
}

// NewBufferedReporter creates a new buffered reporter
func NewBufferedReporter() *BufferedReporter {
	return &BufferedReporter{}
}

func (r *BufferedReporter) Report(err *perrors.HarvestError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

// Errors returns a copy of the captured diagnostics
func (r *BufferedReporter) Errors() []*perrors.HarvestError {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*perrors.HarvestError, len(r.errs))
	copy(result, r.errs)
	return result
}

// Len returns the number of captured diagnostics
func (r *BufferedReporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.errs)
}

// Reset clears all captured diagnostics
func (r *BufferedReporter) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = r.errs[:0]
}

// loggerReporter forwards diagnostics to a zap logger at debug level
type loggerReporter struct {
	log *zap.Logger
}

func (r *loggerReporter) Report(err *perrors.HarvestError) {
	r.log.Debug(err.Message,
		zap.String("code", err.Code),
		zap.String("file", err.File),
		zap.Int("line", err.Line),
		zap.Int("column", err.Column),
		zap.String("lexeme", err.Lexeme),
	)
}

// LoggerReporter returns a reporter that logs each diagnostic
func LoggerReporter(log *zap.Logger) Reporter {
	return &loggerReporter{log: log}
}

// nullReporter discards all diagnostics
type nullReporter struct{}

func (nullReporter) Report(*perrors.HarvestError) {}

// NullReporter returns a reporter that discards all diagnostics
func NullReporter() Reporter {
	return nullReporter{}
}

// multiReporter fans out to several reporters in order
type multiReporter []Reporter

func (m multiReporter) Report(err *perrors.HarvestError) {
	for _, r := range m {
		r.Report(err)
	}
}

// MultiReporter returns a reporter that forwards to each of rs
func MultiReporter(rs ...Reporter) Reporter {
	return multiReporter(rs)
}
