// Package kitsheet converts ELISA kit datasheets from one vendor's layout
// into another's.
//
// A conversion reads a DOCX, ODT or HTML datasheet, finds its sections and
// tables, extracts named fields, renders them into a DOCX template and runs
// the profile's post-processing passes on the result.
//
// Basic usage:
//
//	profiles, err := config.Builtin()
//	if err != nil {
//	    // handle error
//	}
//	profile, _ := profiles.Get("reddot")
//	conv, err := kitsheet.New(profile)
//	if err != nil {
//	    // handle error
//	}
//	res, err := conv.Convert(ctx, kitsheet.Job{
//	    Source:   "EK1586.docx",
//	    Template: "template.docx",
//	    Overrides: render.Overrides{LotNumber: "L2405"},
//	})
//
// For many files, [Converter.Batch] runs jobs on a bounded worker pool.
package kitsheet

import (
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/tsawler/kitsheet/classify"
	"github.com/tsawler/kitsheet/cleanup"
	"github.com/tsawler/kitsheet/config"
	"github.com/tsawler/kitsheet/extract"
	"github.com/tsawler/kitsheet/postprocess"
	"github.com/tsawler/kitsheet/render"
	"github.com/tsawler/kitsheet/section"
	"github.com/tsawler/kitsheet/store"
)

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger shared by every stage.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithRegistry records every written document in r.
func WithRegistry(r store.Registry) Option {
	return func(c *Converter) {
		c.registry = r
	}
}

// WithoutBackups stops the post-processing pipeline from writing a copy of
// the output before each pass.
func WithoutBackups() Option {
	return func(c *Converter) {
		c.noBackup = true
	}
}

// WithoutPostProcessing skips the post-processing passes.
func WithoutPostProcessing() Option {
	return func(c *Converter) {
		c.skipPasses = true
	}
}

// Converter runs conversions for one profile. It holds no per-document
// state, so one Converter may run many conversions concurrently.
type Converter struct {
	profile *config.Profile

	segmenter  *section.Segmenter
	classifier *classify.Classifier
	extractor  *extract.Extractor
	cleaner    *cleanup.Cleaner
	builder    *render.Builder
	renderer   *render.Renderer
	pipeline   *postprocess.Pipeline

	registry   store.Registry
	logger     *zap.Logger
	noBackup   bool
	skipPasses bool

	mu      sync.Mutex
	claimed map[string]bool // derived output paths handed out so far
}

// New builds a converter for profile.
func New(profile *config.Profile, opts ...Option) (*Converter, error) {
	if profile == nil {
		return nil, errors.New("no profile given")
	}
	c := &Converter{profile: profile, claimed: make(map[string]bool)}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	logger := c.logger.With(zap.String("profile", profile.Name))

	cleaner, err := profile.Cleaner()
	if err != nil {
		return nil, errors.Wrapf(err, "profile %s", profile.Name)
	}
	c.cleaner = cleaner

	c.segmenter = profile.NewSegmenter(logger.Named("section"))
	c.classifier = classify.New(classify.Config{
		Fingerprints: profile.AllFingerprints(),
		Logger:       logger.Named("classify"),
	})
	defaults := profile.DefaultsTable()
	c.extractor = extract.New(extract.Config{
		Defaults: defaults,
		Logger:   logger.Named("extract"),
	})
	c.builder = render.NewBuilder(render.BuilderConfig{
		Cleaner:    cleaner,
		Static:     profile.Static,
		Defaults:   defaults,
		Vocabulary: profile.Vocabulary(),
		Logger:     logger.Named("render"),
	})
	c.renderer = render.NewRenderer(logger.Named("render"))

	var passes []postprocess.Pass
	if !c.skipPasses {
		passes = profile.Passes(cleaner, c.segmenter)
	}
	c.pipeline = postprocess.New(postprocess.Config{
		Passes:   passes,
		NoBackup: c.noBackup,
		Logger:   logger.Named("postprocess"),
	})
	c.logger = logger
	return c, nil
}

// Profile returns the profile the converter was built with.
func (c *Converter) Profile() *config.Profile {
	return c.profile
}

// Passes returns the names of the post-processing passes, in order.
func (c *Converter) Passes() []string {
	return c.pipeline.Passes()
}
