package kitsheet

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tsawler/kitsheet/classify"
	"github.com/tsawler/kitsheet/docx"
	"github.com/tsawler/kitsheet/extract"
	"github.com/tsawler/kitsheet/format"
	"github.com/tsawler/kitsheet/htmldoc"
	"github.com/tsawler/kitsheet/model"
	"github.com/tsawler/kitsheet/odt"
	"github.com/tsawler/kitsheet/postprocess"
	"github.com/tsawler/kitsheet/render"
	"github.com/tsawler/kitsheet/section"
	"github.com/tsawler/kitsheet/store"
)

// Job is one conversion request.
type Job struct {
	// Source is the datasheet to read (DOCX, ODT or HTML).
	Source string

	// Template is the DOCX template to render.
	Template string

	// Output is the path to write. When empty, a name is derived from the
	// catalog and lot numbers and placed in OutputDir.
	Output    string
	OutputDir string

	Overrides render.Overrides
}

// Analysis is what was read from a source document.
type Analysis struct {
	Document *model.Document
	Sections *section.Result
	Tables   *classify.Assignment
	Fields   extract.Fields
}

// Result describes a finished conversion.
type Result struct {
	Job     Job
	Output  string
	Context render.Context

	// Report lists the outcome of every post-processing pass.
	Report postprocess.Report

	// Record is the registry entry, or nil without a registry.
	Record *store.OutputFile

	Duration time.Duration

	// Err is set by Batch when the job failed.
	Err error
}

// ReadSource loads a DOCX, ODT or HTML datasheet.
func ReadSource(path string) (*model.Document, error) {
	f, err := format.DetectFile(path)
	if err != nil {
		return nil, err
	}
	switch f {
	case format.DOCX:
		pkg, err := docx.Open(path)
		if err != nil {
			return nil, err
		}
		return pkg.Document(), nil
	case format.HTML:
		r, err := htmldoc.Open(path)
		if err != nil {
			return nil, err
		}
		return r.Document(), nil
	case format.ODT:
		r, err := odt.Open(path)
		if err != nil {
			return nil, err
		}
		return r.Document(), nil
	default:
		return nil, errors.Errorf("%s: unsupported source format", path)
	}
}

// Analyze reads a source file and extracts its fields.
func (c *Converter) Analyze(path string) (*Analysis, error) {
	doc, err := ReadSource(path)
	if err != nil {
		return nil, err
	}
	return c.AnalyzeDocument(doc), nil
}

// AnalyzeDocument segments, classifies and extracts an already loaded
// document. It never fails: missing content is filled from defaults.
func (c *Converter) AnalyzeDocument(doc *model.Document) *Analysis {
	res := c.segmenter.Segment(doc)
	asg := c.classifier.Classify(doc, res)
	return &Analysis{
		Document: doc,
		Sections: res,
		Tables:   asg,
		Fields:   c.extractor.Extract(doc, res, asg),
	}
}

// Context builds the render context for an analysis.
func (c *Converter) Context(a *Analysis, ov render.Overrides) render.Context {
	return c.builder.Build(a.Fields, ov)
}

// Convert runs one job end to end. The context is checked between stages;
// a stage that has started runs to completion.
//
// A missing template placeholder fails the job with a
// *render.UnresolvedError and nothing is written. Post-processing failures
// do not fail the job; they are listed in Result.Report.
func (c *Converter) Convert(ctx context.Context, job Job) (*Result, error) {
	start := time.Now()
	res := &Result{Job: job}
	log := c.logger.With(zap.String("source", job.Source))

	if err := ctx.Err(); err != nil {
		return res, err
	}
	a, err := c.Analyze(job.Source)
	if err != nil {
		return res, errors.Wrap(err, "failed to read source")
	}
	if n := len(a.Sections.Duplicates); n > 0 {
		log.Info("duplicate section headings", zap.Int("count", n))
	}
	res.Context = c.Context(a, job.Overrides)

	if err := ctx.Err(); err != nil {
		return res, err
	}
	tpl, err := docx.Open(job.Template)
	if err != nil {
		return res, errors.Wrap(err, "failed to open template")
	}
	if err := c.renderer.Render(tpl, res.Context); err != nil {
		return res, err
	}

	res.Output = job.Output
	if res.Output == "" {
		res.Output = c.claimOutput(filepath.Join(job.OutputDir, OutputName(a.Fields, job.Overrides, job.Source)), job.Source)
	}
	if dir := filepath.Dir(res.Output); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return res, errors.Wrapf(err, "creating %s", dir)
		}
	}
	if err := tpl.Save(res.Output); err != nil {
		return res, errors.Wrap(err, "failed to save output")
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	res.Report = c.pipeline.Run(ctx, res.Output)
	if !res.Report.OK() {
		log.Warn("post-processing incomplete", zap.String("report", res.Report.String()))
	}

	if c.registry != nil {
		rec := &store.OutputFile{
			Filename: res.Output,
			Source:   job.Source,
			Template: job.Template,
			Profile:  c.profile.Name,
		}
		if err := c.registry.Record(ctx, rec); err != nil {
			log.Warn("failed to record output", zap.Error(err))
		} else {
			res.Record = rec
		}
	}

	res.Duration = time.Since(start)
	log.Info("converted",
		zap.String("output", res.Output),
		zap.Duration("duration", res.Duration))
	return res, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// OutputName derives an output file name. With both a catalog number (from
// the overrides or extracted from the source) and a lot number it is
// "<catalog>-<lot>.docx"; otherwise "output_<id>_<stem>.docx" with an
// eight-character random id.
func OutputName(fields extract.Fields, ov render.Overrides, source string) string {
	catalog := ov.CatalogNumber
	if catalog == "" {
		if f, ok := fields[extract.FieldCatalogNumber]; ok && !f.Default {
			catalog = f.Text
		}
	}
	catalog = sanitize(catalog)
	lot := sanitize(ov.LotNumber)
	if catalog != "" && lot != "" {
		return catalog + "-" + lot + ".docx"
	}

	return "output_" + uuid.NewString()[:8] + "_" + sourceStem(source) + ".docx"
}

// claimOutput reserves a derived output path. Jobs sharing a catalog and
// lot number would derive the same path, so a path already handed out gets
// the source stem, then a random id, appended.
func (c *Converter) claimOutput(path, source string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.claimed[path] {
		c.claimed[path] = true
		return path
	}
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	candidate := base + "_" + sourceStem(source) + ext
	for c.claimed[candidate] {
		candidate = base + "_" + uuid.NewString()[:8] + ext
	}
	c.claimed[candidate] = true
	c.logger.Debug("output name taken", zap.String("path", path), zap.String("using", candidate))
	return candidate
}

func sourceStem(source string) string {
	stem := sanitize(strings.TrimSuffix(filepath.Base(source), filepath.Ext(source)))
	if stem == "" {
		stem = "datasheet"
	}
	return stem
}

func sanitize(s string) string {
	return strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(s), "_"), "_.")
}
