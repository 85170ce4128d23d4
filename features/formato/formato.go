package formato

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"
	"time"

	"estudio/internal/storage"
)

var (
	ErrNotFound        = errors.New("formato not found")
	ErrMissingFields   = errors.New("archivo and usuario are required")
	ErrUnsupportedType = errors.New("unsupported file type")
)

// AllowedExtensions are the formats accepted for legal templates.
var AllowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".txt":  true,
	".jpg":  true,
	".png":  true,
}

type FormatoLegal struct {
	ID             int64     `json:"id"`
	NombreOriginal string    `json:"nombre_original"`
	Filename       string    `json:"filename"`
	Usuario        string    `json:"usuario"`
	CausaID        *int64    `json:"causa_id,omitempty"`
	Observaciones  string    `json:"observaciones"`
	FechaSubida    time.Time `json:"fecha_subida"`
}

func (f FormatoLegal) URL() string { return "/static/formatos/" + f.Filename }

// Filter narrows the listing. Empty fields do not filter.
type Filter struct {
	Nombre  string
	Usuario string
	CausaID *int64
}

type Repository interface {
	List(ctx context.Context, f Filter) ([]FormatoLegal, error)
	Get(ctx context.Context, id int64) (*FormatoLegal, error)
	Create(ctx context.Context, f *FormatoLegal) error
	Delete(ctx context.Context, id int64) error
}

type Upload struct {
	File          *multipart.FileHeader
	Usuario       string
	CausaID       *int64
	Observaciones string
}

type Service struct {
	repo  Repository
	files *storage.Dir
}

func NewService(repo Repository, files *storage.Dir) *Service {
	return &Service{repo: repo, files: files}
}

func (s *Service) List(ctx context.Context, f Filter) ([]FormatoLegal, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Upload(ctx context.Context, u Upload) (*FormatoLegal, error) {
	u.Usuario = strings.TrimSpace(u.Usuario)
	if u.File == nil || u.File.Filename == "" || u.Usuario == "" {
		return nil, ErrMissingFields
	}
	if ext := storage.Ext(u.File.Filename); !AllowedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	name := storage.UniqueName(u.File.Filename)
	if _, err := s.files.SaveUpload(u.File, name); err != nil {
		return nil, err
	}

	f := &FormatoLegal{
		NombreOriginal: u.File.Filename,
		Filename:       name,
		Usuario:        u.Usuario,
		CausaID:        u.CausaID,
		Observaciones:  strings.TrimSpace(u.Observaciones),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		if rmErr := s.files.Remove(name); rmErr != nil {
			slog.WarnContext(ctx, "failed to remove orphaned formato", "file", name, "error", rmErr)
		}
		return nil, err
	}
	return f, nil
}

// Delete removes the row first; a file that is already gone is not an error.
func (s *Service) Delete(ctx context.Context, id int64) error {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.files.Remove(f.Filename); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		slog.WarnContext(ctx, "formato file already missing", "id", id, "file", f.Filename)
	}
	return nil
}
