// Package storage keeps uploaded files in flat directories under the static root.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")
)

// KeepFile is the placeholder that keeps empty upload directories in git.
const KeepFile = ".keep"

type FileInfo struct {
	Name    string
	Size    int64
	ModTime time.Time
}

type Dir struct {
	root string
}

// NewDir creates root if needed.
func NewDir(root string) (*Dir, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create %s: %w", root, err)
	}
	return &Dir{root: root}, nil
}

func (d *Dir) Root() string { return d.root }

// Path resolves name inside the directory, rejecting anything that is not a
// plain file name.
func (d *Dir) Path(name string) (string, error) {
	if name == "" || name == "." || name == ".." || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return filepath.Join(d.root, name), nil
}

// Save writes src to name, replacing any existing file.
func (d *Dir) Save(name string, src io.Reader) (string, error) {
	path, err := d.Path(name)
	if err != nil {
		return "", err
	}
	dst, err := os.Create(path) // #nosec G304 -- name validated by Path
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	return path, nil
}

// SaveUpload stores a multipart file under name.
func (d *Dir) SaveUpload(fh *multipart.FileHeader, name string) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()
	return d.Save(name, f)
}

func (d *Dir) Remove(name string) error {
	path, err := d.Path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return err
	}
	return nil
}

// List returns regular files sorted by name, skipping the keep placeholder.
func (d *Dir) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []FileInfo{}, nil
		}
		return nil, err
	}

	files := make([]FileInfo, 0, len(entries))
	for _, e := range entries {
		if e.Name() == KeepFile || !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

var (
	unsafeChars    = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
	unsafeExtChars = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// SafeName reduces an uploaded file name to ASCII letters, digits, dot,
// dash and underscore. Accents are folded first so "Poder Notarial ñ.pdf"
// becomes "Poder_Notarial_n.pdf". The extension is cleaned on its own and
// survives a stem that cleans to nothing: "合同.pdf" becomes "archivo.pdf".
func SafeName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = foldAccents(name)

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	if ext = unsafeExtChars.ReplaceAllString(ext, ""); ext != "" {
		ext = "." + ext
	}

	stem = strings.Join(strings.Fields(stem), "_")
	stem = unsafeChars.ReplaceAllString(stem, "")
	stem = strings.TrimLeft(stem, "._")
	if stem == "" {
		stem = "archivo"
	}
	return stem + ext
}

// UniqueName prefixes SafeName with a random hex id.
func UniqueName(name string) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "") + "_" + SafeName(name)
}

// Ext returns the lower-cased extension including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

var accentFolder = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ü", "U", "Ñ", "N",
)

func foldAccents(s string) string { return accentFolder.Replace(s) }
