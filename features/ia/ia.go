// Package ia manages the document area behind the question answering page.
package ia

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"sort"

	"estudio/internal/retrieval"
	"estudio/internal/storage"
	"estudio/internal/text"
)

var (
	ErrMissingFile     = errors.New("no file uploaded")
	ErrUnsupportedType = errors.New("unsupported document type")
)

// Asker answers a question from the newest document in a directory.
type Asker interface {
	Ask(ctx context.Context, dir, question string) (*retrieval.Answer, error)
}

type Service struct {
	files *storage.Dir
	asker Asker
}

func NewService(files *storage.Dir, asker Asker) *Service {
	return &Service{files: files, asker: asker}
}

// Documents lists the uploaded files, newest first.
func (s *Service) Documents() ([]storage.FileInfo, error) {
	files, err := s.files.List()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].ModTime.After(files[j].ModTime) })
	return files, nil
}

// Upload stores fh under its sanitized base name, replacing a file with the
// same name. Only formats the extractor can read are accepted.
func (s *Service) Upload(fh *multipart.FileHeader) (string, error) {
	if fh == nil || fh.Filename == "" {
		return "", ErrMissingFile
	}
	if ext := storage.Ext(fh.Filename); !text.SupportedExtensions[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}
	name := storage.SafeName(fh.Filename)
	if _, err := s.files.SaveUpload(fh, name); err != nil {
		return "", err
	}
	return name, nil
}

func (s *Service) Delete(name string) error {
	return s.files.Remove(name)
}

func (s *Service) Ask(ctx context.Context, question string) (*retrieval.Answer, error) {
	return s.asker.Ask(ctx, s.files.Root(), question)
}
