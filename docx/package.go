// Package docx reads, edits and writes DOCX (Office Open XML) documents.
//
// A [Package] holds every part of the archive in memory. XML parts that are
// edited (the main document, headers, footers) are parsed into [Node] trees
// that keep body order and source prefixes, so a document can be opened,
// modified and saved without losing content the package does not model.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	partContentTypes = "[Content_Types].xml"
	partDocument     = "word/document.xml"
	partStyles       = "word/styles.xml"
	partCoreProps    = "docProps/core.xml"
)

var (
	headerPartRE = regexp.MustCompile(`^word/header\d*\.xml$`)
	footerPartRE = regexp.MustCompile(`^word/footer\d*\.xml$`)
)

// Part is a parsed XML part of the package.
type Part struct {
	Name string
	Tree *Node
}

// Root returns the document element of the part.
func (p *Part) Root() *Node {
	return p.Tree.Root()
}

type entry struct {
	header zip.FileHeader
	data   []byte
}

// Package is an in-memory DOCX archive.
type Package struct {
	path    string
	entries []*entry
	parts   map[string]*Part
	styles  *StyleResolver
	title   string
}

// Open reads a DOCX file.
func Open(filename string) (*Package, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	p, err := OpenBytes(data)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", filename)
	}
	p.path = filename
	return p, nil
}

// OpenBytes reads a DOCX archive held in memory.
func OpenBytes(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "opening ZIP archive")
	}

	p := &Package{parts: make(map[string]*Part)}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, errors.Wrapf(err, "opening part %s", f.Name)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "reading part %s", f.Name)
		}
		p.entries = append(p.entries, &entry{header: f.FileHeader, data: content})
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	if _, err := p.Part(partDocument); err != nil {
		return nil, errors.Wrap(err, "parsing document")
	}

	// Styles and core properties are optional.
	p.styles = NewStyleResolver(p.parseStyles())
	p.title = p.parseTitle()

	return p, nil
}

// validate checks that required DOCX parts exist.
func (p *Package) validate() error {
	for _, name := range []string{partContentTypes, partDocument} {
		if p.entry(name) == nil {
			return errors.Errorf("missing required file: %s", name)
		}
	}
	return nil
}

func (p *Package) entry(name string) *entry {
	for _, e := range p.entries {
		if e.header.Name == name {
			return e
		}
	}
	return nil
}

// Path returns the file the package was opened from, if any.
func (p *Package) Path() string {
	return p.path
}

// Title returns the dc:title from the core properties.
func (p *Package) Title() string {
	return p.title
}

// Styles returns the style resolver for the package.
func (p *Package) Styles() *StyleResolver {
	return p.styles
}

// Part returns a parsed XML part, parsing it on first use.
func (p *Package) Part(name string) (*Part, error) {
	if part, ok := p.parts[name]; ok {
		return part, nil
	}
	e := p.entry(name)
	if e == nil {
		return nil, errors.Errorf("file not found: %s", name)
	}
	tree, err := ParseXML(e.data)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", name)
	}
	part := &Part{Name: name, Tree: tree}
	p.parts[name] = part
	return part, nil
}

// Body returns the w:body element of the main document.
func (p *Package) Body() *Node {
	part, err := p.Part(partDocument)
	if err != nil {
		return nil
	}
	return part.Root().Child("body")
}

// Headers returns the parsed header parts in name order.
func (p *Package) Headers() []*Part {
	return p.partsMatching(headerPartRE)
}

// Footers returns the parsed footer parts in name order.
func (p *Package) Footers() []*Part {
	return p.partsMatching(footerPartRE)
}

func (p *Package) partsMatching(re *regexp.Regexp) []*Part {
	var names []string
	for _, e := range p.entries {
		if re.MatchString(e.header.Name) {
			names = append(names, e.header.Name)
		}
	}
	sort.Strings(names)

	var out []*Part
	for _, name := range names {
		// A malformed header or footer is skipped rather than failing the
		// whole document.
		if part, err := p.Part(name); err == nil {
			out = append(out, part)
		}
	}
	return out
}

// Save writes the package to filename. The archive is written to a temporary
// file in the same directory and renamed into place.
func (p *Package) Save(filename string) error {
	tmp, err := os.CreateTemp(filepath.Dir(filename), ".kitsheet-*.docx")
	if err != nil {
		return errors.Wrapf(err, "saving %s", filename)
	}
	defer os.Remove(tmp.Name())

	if err := p.Write(tmp); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "saving %s", filename)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "saving %s", filename)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return errors.Wrapf(err, "saving %s", filename)
	}
	return nil
}

// Write serializes the archive to w, re-encoding every parsed part.
func (p *Package) Write(w io.Writer) error {
	zw := zip.NewWriter(w)
	for _, e := range p.entries {
		data := e.data
		if part, ok := p.parts[e.header.Name]; ok {
			data = part.Tree.Bytes()
		}

		hdr := &zip.FileHeader{
			Name:     e.header.Name,
			Method:   zip.Deflate,
			Modified: e.header.Modified,
		}
		fw, err := zw.CreateHeader(hdr)
		if err != nil {
			return errors.Wrapf(err, "writing part %s", e.header.Name)
		}
		if _, err := fw.Write(data); err != nil {
			return errors.Wrapf(err, "writing part %s", e.header.Name)
		}
	}
	return zw.Close()
}

func (p *Package) parseStyles() *stylesXML {
	e := p.entry(partStyles)
	if e == nil {
		return nil
	}
	var styles stylesXML
	if err := xml.Unmarshal(e.data, &styles); err != nil {
		return nil
	}
	return &styles
}

func (p *Package) parseTitle() string {
	e := p.entry(partCoreProps)
	if e == nil {
		return ""
	}
	var props corePropertiesXML
	if err := xml.Unmarshal(e.data, &props); err != nil {
		return ""
	}
	return strings.TrimSpace(props.Title)
}
