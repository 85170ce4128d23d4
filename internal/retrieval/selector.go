package retrieval

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"estudio/internal/text"
)

// LatestDocument returns the most recently modified supported file in dir.
// Equal modification times resolve to the lexically smallest name.
func LatestDocument(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNoDocumentAvailable
		}
		return "", fmt.Errorf("read %s: %w", dir, err)
	}

	var best fs.FileInfo
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if !text.SupportedExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if best == nil ||
			info.ModTime().After(best.ModTime()) ||
			(info.ModTime().Equal(best.ModTime()) && info.Name() < best.Name()) {
			best = info
		}
	}

	if best == nil {
		return "", ErrNoDocumentAvailable
	}
	return filepath.Join(dir, best.Name()), nil
}
