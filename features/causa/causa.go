package causa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"strconv"
	"strings"
	"time"

	"estudio/internal/forms"
	"estudio/internal/storage"
)

// TipoPruebaHabilitante is the type recorded for documents attached when a
// causa is registered.
const TipoPruebaHabilitante = "prueba habilitante"

// DocumentosDir is the folder under the static root that holds causa files.
const DocumentosDir = "documentos"

var ErrNotFound = errors.New("causa not found")

type Causa struct {
	ID                 int64      `json:"id"`
	TipoCausa          string     `json:"tipo_causa" form:"tipo_causa" validate:"required,max=50"`
	Procedimiento      string     `json:"procedimiento" form:"procedimiento" validate:"required,max=100"`
	Judicial           bool       `json:"judicial"`
	CorteApelaciones   string     `json:"corte_apelaciones" form:"corte_apelaciones" validate:"max=100"`
	Tribunal           string     `json:"tribunal" form:"tribunal" validate:"max=150"`
	Letra              string     `json:"letra" form:"letra" validate:"max=5"`
	RolNumero          string     `json:"rol_numero" form:"rol_numero" validate:"max=20"`
	RolAnio            int        `json:"rol_anio" form:"rol_anio" validate:"min=0,max=2100"`
	FechaIngreso       time.Time  `json:"fecha_ingreso" form:"fecha_ingreso" validate:"required"`
	UltimaGestion      string     `json:"ultima_gestion"`
	FechaUltimaGestion *time.Time `json:"fecha_ultima_gestion,omitempty"`
	IngresoJuridico    string     `json:"ingreso_juridico" form:"ingreso_juridico" validate:"max=100"`
	ClienteID          int64      `json:"cliente_id" form:"cliente_id" validate:"required,gt=0"`
	ContraparteID      *int64     `json:"contraparte_id,omitempty"`

	ClienteNombre     string `json:"cliente_nombre,omitempty"`
	ContraparteNombre string `json:"contraparte_nombre,omitempty"`
	NumDocumentos     int    `json:"num_documentos"`
}

// Rol renders the court roll as "C-1234-2024", skipping missing parts.
func (c Causa) Rol() string {
	var parts []string
	if c.Letra != "" {
		parts = append(parts, c.Letra)
	}
	if c.RolNumero != "" {
		parts = append(parts, c.RolNumero)
	}
	if c.RolAnio > 0 {
		parts = append(parts, strconv.Itoa(c.RolAnio))
	}
	return strings.Join(parts, "-")
}

type Documento struct {
	ID            int64     `json:"id"`
	CausaID       int64     `json:"causa_id"`
	NombreArchivo string    `json:"nombre_archivo"`
	RutaArchivo   string    `json:"ruta_archivo"`
	Tipo          string    `json:"tipo"`
	FechaSubida   time.Time `json:"fecha_subida"`
}

// URL is where the static file server exposes the document.
func (d Documento) URL() string { return "/static/" + d.RutaArchivo }

type Repository interface {
	List(ctx context.Context) ([]Causa, error)
	Get(ctx context.Context, id int64) (*Causa, error)
	CreateWithDocumentos(ctx context.Context, c *Causa, docs []Documento) error
	ListDocumentos(ctx context.Context, causaID int64) ([]Documento, error)
}

type Service struct {
	repo  Repository
	files *storage.Dir
}

func NewService(repo Repository, files *storage.Dir) *Service {
	return &Service{repo: repo, files: files}
}

func (s *Service) List(ctx context.Context) ([]Causa, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Causa, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Documentos(ctx context.Context, causaID int64) ([]Documento, error) {
	return s.repo.ListDocumentos(ctx, causaID)
}

// Register stores the causa and its attachments in one transaction. Files
// written before a failed commit are removed again.
func (s *Service) Register(ctx context.Context, c *Causa, uploads []*multipart.FileHeader) error {
	if err := forms.Validate(c); err != nil {
		return err
	}

	var saved []string
	cleanup := func() {
		for _, name := range saved {
			if err := s.files.Remove(name); err != nil {
				slog.WarnContext(ctx, "failed to remove orphaned document", "file", name, "error", err)
			}
		}
	}

	docs := make([]Documento, 0, len(uploads))
	for _, fh := range uploads {
		if fh == nil || fh.Filename == "" {
			continue
		}
		name := storage.UniqueName(fh.Filename)
		if _, err := s.files.SaveUpload(fh, name); err != nil {
			cleanup()
			return fmt.Errorf("save documento %q: %w", fh.Filename, err)
		}
		saved = append(saved, name)
		docs = append(docs, Documento{
			NombreArchivo: fh.Filename,
			RutaArchivo:   path.Join(DocumentosDir, name),
			Tipo:          TipoPruebaHabilitante,
		})
	}

	if err := s.repo.CreateWithDocumentos(ctx, c, docs); err != nil {
		cleanup()
		return err
	}
	return nil
}
