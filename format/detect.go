// Package format detects the format of kit datasheet sources.
package format

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// Format represents a supported document format.
type Format int

const (
	// Unknown indicates an unrecognized format.
	Unknown Format = iota
	// DOCX indicates a Microsoft Word (.docx) document.
	DOCX
	// HTML indicates an HTML document.
	HTML
	// ODT indicates an OpenDocument text document.
	ODT
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case DOCX:
		return "DOCX"
	case HTML:
		return "HTML"
	case ODT:
		return "ODT"
	default:
		return "Unknown"
	}
}

// Extension returns the typical file extension for the format.
func (f Format) Extension() string {
	switch f {
	case DOCX:
		return ".docx"
	case HTML:
		return ".html"
	case ODT:
		return ".odt"
	default:
		return ""
	}
}

// Detect determines file format from filename extension.
func Detect(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".docx", ".docm", ".dotx":
		return DOCX
	case ".html", ".htm", ".xhtml":
		return HTML
	case ".odt", ".ott":
		return ODT
	default:
		return Unknown
	}
}

// DetectFile determines the format of a file from its extension, falling
// back to its content when the extension is not recognized.
func DetectFile(filename string) (Format, error) {
	if f := Detect(filename); f != Unknown {
		return f, nil
	}

	file, err := os.Open(filename)
	if err != nil {
		return Unknown, errors.Wrapf(err, "opening %s", filename)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Unknown, errors.Wrapf(err, "reading %s", filename)
	}
	return DetectFromReader(file, info.Size())
}

// DetectFromReader inspects the content to determine format.
func DetectFromReader(r io.ReaderAt, size int64) (Format, error) {
	magic := make([]byte, 512)
	n, err := r.ReadAt(magic, 0)
	if err != nil && err != io.EOF {
		return Unknown, err
	}
	magic = magic[:n]

	// ZIP magic (DOCX is a ZIP archive): PK\x03\x04
	if len(magic) >= 4 && magic[0] == 0x50 && magic[1] == 0x4B && magic[2] == 0x03 && magic[3] == 0x04 {
		return detectZIPFormat(r, size)
	}

	if detectHTMLMagic(magic) {
		return HTML, nil
	}
	return Unknown, nil
}

// detectHTMLMagic checks if the data looks like HTML content.
func detectHTMLMagic(data []byte) bool {
	upper := strings.ToUpper(strings.TrimLeft(string(data), " \t\r\n\ufeff"))
	switch {
	case strings.HasPrefix(upper, "<!DOCTYPE HTML"), strings.HasPrefix(upper, "<HTML"):
		return true
	case strings.HasPrefix(upper, "<?XML"):
		// XHTML
		return strings.Contains(upper, "<HTML")
	}
	return false
}

const odtMimeType = "application/vnd.oasis.opendocument.text"

// detectZIPFormat reports DOCX when the archive holds a WordprocessingML
// main document part, and ODT when its mimetype entry names an
// OpenDocument text document.
func detectZIPFormat(r io.ReaderAt, size int64) (Format, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return Unknown, err
	}
	for _, f := range zr.File {
		switch f.Name {
		case "word/document.xml":
			return DOCX, nil
		case "mimetype":
			rc, err := f.Open()
			if err != nil {
				return Unknown, err
			}
			data, err := io.ReadAll(io.LimitReader(rc, 128))
			rc.Close()
			if err != nil {
				return Unknown, err
			}
			if strings.TrimSpace(string(data)) == odtMimeType {
				return ODT, nil
			}
		}
	}
	return Unknown, nil
}
