package text

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

var ErrUnsupportedFormat = errors.New("unsupported document format")

// SupportedExtensions are the formats the extractor understands.
var SupportedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
}

// Word documents use the transitional namespace unless saved as Strict Open XML.
const (
	wordNamespace       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	wordStrictNamespace = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

func isWordNS(space string) bool {
	return space == wordNamespace || space == wordStrictNamespace
}

// Extraction is the text of a document. Degraded is set when part of the
// document could not be read; Reasons says which part.
type Extraction struct {
	Text     string
	Degraded bool
	Reasons  []string
}

func (e *Extraction) degrade(format string, args ...any) {
	e.Degraded = true
	e.Reasons = append(e.Reasons, fmt.Sprintf(format, args...))
}

func (e Extraction) Reason() string {
	return strings.Join(e.Reasons, "; ")
}

type Extractor struct {
	// Strict rejects unknown extensions instead of returning empty text.
	Strict bool
}

func NewExtractor(strict bool) *Extractor {
	return &Extractor{Strict: strict}
}

// Extract returns an error only when the file itself cannot be read.
func (e *Extractor) Extract(path string) (Extraction, error) {
	if _, err := os.Stat(path); err != nil {
		return Extraction{}, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".pdf":
		return extractPDF(path), nil
	case ".docx":
		return extractDOCX(path), nil
	case ".txt":
		return extractTXT(path)
	}

	if e.Strict {
		return Extraction{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	var ex Extraction
	ex.degrade("unsupported extension %q", ext)
	return ex, nil
}

func extractPDF(path string) (ex Extraction) {
	f, r, err := openPDF(path)
	if err != nil {
		ex.degrade("pdf: %v", err)
		return ex
	}
	defer f.Close()

	n := r.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		txt, err := pageText(r, i)
		switch {
		case err != nil:
			ex.degrade("page %d: %v", i, err)
			txt = ""
		case strings.TrimSpace(txt) == "":
			ex.degrade("page %d: no text", i)
		}
		pages = append(pages, txt)
	}
	ex.Text = strings.Join(pages, " ")
	return ex
}

func openPDF(path string) (f *os.File, r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if f != nil {
				f.Close()
			}
			f, r, err = nil, nil, fmt.Errorf("decoder panic: %v", rec)
		}
	}()
	return pdf.Open(path)
}

func pageText(r *pdf.Reader, i int) (txt string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			txt, err = "", fmt.Errorf("decoder panic: %v", rec)
		}
	}()
	p := r.Page(i)
	if p.V.IsNull() {
		return "", nil
	}
	return p.GetPlainText(nil)
}

func extractDOCX(path string) (ex Extraction) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		ex.degrade("docx: %v", err)
		return ex
	}
	defer zr.Close()

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			body = f
			break
		}
	}
	if body == nil {
		ex.degrade("docx: word/document.xml not found")
		return ex
	}

	rc, err := body.Open()
	if err != nil {
		ex.degrade("docx: %v", err)
		return ex
	}
	defer rc.Close()

	paragraphs, elements, err := readParagraphs(rc)
	if err != nil {
		ex.degrade("docx: %v", err)
	}
	if err == nil && len(paragraphs) == 0 && elements > 0 {
		ex.degrade("docx: no paragraphs found in word/document.xml")
	}
	ex.Text = strings.Join(paragraphs, "\n")
	return ex
}

// readParagraphs returns the text of each w:p in document order, plus the
// number of elements seen in any namespace. Paragraphs nested in text boxes
// are folded into their parent.
func readParagraphs(r io.Reader) ([]string, int, error) {
	dec := xml.NewDecoder(r)
	var (
		paragraphs []string
		elements   int
		cur        strings.Builder
		depth      int
		inText     bool
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return paragraphs, elements, nil
		}
		if err != nil {
			if depth > 0 {
				paragraphs = append(paragraphs, cur.String())
			}
			return paragraphs, elements, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			elements++
			if !isWordNS(t.Name.Space) {
				continue
			}
			switch t.Name.Local {
			case "p":
				if depth == 0 {
					cur.Reset()
				}
				depth++
			case "t":
				inText = true
			case "tab":
				if depth > 0 {
					cur.WriteByte('\t')
				}
			case "br", "cr":
				if depth > 0 {
					cur.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if !isWordNS(t.Name.Space) {
				continue
			}
			switch t.Name.Local {
			case "p":
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, cur.String())
				}
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText && depth > 0 {
				cur.Write(t)
			}
		}
	}
}

func extractTXT(path string) (Extraction, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the upload directory listing
	if err != nil {
		return Extraction{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}

	var ex Extraction
	s := strings.TrimPrefix(string(data), "\ufeff")
	if !utf8.ValidString(s) {
		ex.degrade("txt: invalid UTF-8 replaced")
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	ex.Text = s
	return ex, nil
}
