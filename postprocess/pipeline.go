// Package postprocess applies ordered, named edits to a rendered DOCX file.
//
// Each [Pass] works on an opened [docx.Package]. A [Pipeline] runs its
// passes one at a time against a file on disk: it copies the file to a
// backup named after the pass, opens it, applies the pass and saves it. A
// pass that fails is logged and recorded in the [Report]; the file keeps
// the content it had before that pass and the remaining passes still run.
//
// Every pass is idempotent: applying it twice leaves the same document as
// applying it once.
package postprocess

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tsawler/kitsheet/docx"
)

// Pass is one named document edit.
type Pass interface {
	Name() string
	Apply(pkg *docx.Package) error
}

// Config holds configuration for a pipeline
type Config struct {
	// Passes run in order.
	Passes []Pass

	// NoBackup disables the copy written before each pass.
	// Default: false
	NoBackup bool

	// Logger receives one entry per pass.
	// Default: no-op
	Logger *zap.Logger
}

// Pipeline runs passes against a file.
type Pipeline struct {
	passes   []Pass
	noBackup bool
	logger   *zap.Logger
}

// New creates a pipeline.
func New(config Config) *Pipeline {
	p := &Pipeline{
		passes:   config.Passes,
		noBackup: config.NoBackup,
		logger:   config.Logger,
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Passes returns the names of the configured passes in order.
func (p *Pipeline) Passes() []string {
	out := make([]string, len(p.passes))
	for i, pass := range p.passes {
		out[i] = pass.Name()
	}
	return out
}

// Result is the outcome of one pass.
type Result struct {
	Pass     string
	Backup   string
	Err      error
	Duration time.Duration
}

// Report collects the results of a run.
type Report struct {
	Path    string
	Results []Result
}

// Failed returns the results of passes that did not complete.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// OK reports whether every pass completed.
func (r Report) OK() bool {
	return len(r.Failed()) == 0
}

// String summarizes the report on one line per failed pass.
func (r Report) String() string {
	failed := r.Failed()
	if len(failed) == 0 {
		return fmt.Sprintf("%s: %d passes applied", r.Path, len(r.Results))
	}
	lines := []string{fmt.Sprintf("%s: %d of %d passes failed", r.Path, len(failed), len(r.Results))}
	for _, res := range failed {
		lines = append(lines, fmt.Sprintf("  %s: %v", res.Pass, res.Err))
	}
	return strings.Join(lines, "\n")
}

// Run applies every pass to the file at path. Cancellation is checked
// before each pass; once ctx is done the remaining passes are recorded with
// the context error and not run.
func (p *Pipeline) Run(ctx context.Context, path string) Report {
	report := Report{Path: path}
	for _, pass := range p.passes {
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, Result{Pass: pass.Name(), Err: err})
			continue
		}

		start := time.Now()
		res := Result{Pass: pass.Name()}
		res.Backup, res.Err = p.runPass(pass, path)
		res.Duration = time.Since(start)
		report.Results = append(report.Results, res)

		if res.Err != nil {
			p.logger.Warn("post-processing pass failed",
				zap.String("pass", res.Pass),
				zap.String("path", path),
				zap.Error(res.Err))
			continue
		}
		p.logger.Debug("post-processing pass applied",
			zap.String("pass", res.Pass),
			zap.String("path", path),
			zap.Duration("duration", res.Duration))
	}
	return report
}

func (p *Pipeline) runPass(pass Pass, path string) (string, error) {
	var backup string
	if !p.noBackup {
		backup = BackupPath(path, pass.Name())
		if err := copyFile(path, backup); err != nil {
			return "", errors.Wrap(err, "writing backup")
		}
	}

	pkg, err := docx.Open(path)
	if err != nil {
		return backup, err
	}
	if err := apply(pass, pkg); err != nil {
		return backup, err
	}
	return backup, pkg.Save(path)
}

// apply runs a pass, converting a panic into an error so one faulty pass
// cannot stop the pipeline.
func apply(pass Pass, pkg *docx.Package) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("pass %s panicked: %v", pass.Name(), r)
		}
	}()
	return pass.Apply(pkg)
}

// BackupPath returns the backup file name for a pass:
// "out.docx" and "footer" give "out_before_footer.docx".
func BackupPath(path, pass string) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	return stem + "_before_" + pass + ext
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "opening %s", src)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "creating %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "copying to %s", dst)
	}
	return out.Close()
}
