package cliente

import (
	"context"
	"errors"
	"fmt"
	"time"

	"estudio/internal/forms"
)

var (
	ErrInvalidRUT   = errors.New("invalid rut")
	ErrDuplicateRUT = errors.New("a cliente with this rut already exists")
)

type Cliente struct {
	ID              int64      `json:"id"`
	Nombre          string     `json:"nombre" form:"nombre" validate:"required,max=100"`
	RutNum          string     `json:"rut_num" form:"rut_num" validate:"required,numeric,max=9"`
	RutDV           string     `json:"rut_dv" form:"rut_dv" validate:"required,rutdv"`
	Email           string     `json:"email" form:"email" validate:"omitempty,email,max=100"`
	Telefono        string     `json:"telefono" form:"telefono" validate:"max=20"`
	Direccion       string     `json:"direccion" form:"direccion" validate:"max=200"`
	Profesion       string     `json:"profesion" form:"profesion" validate:"max=100"`
	FechaNacimiento *time.Time `json:"fecha_nacimiento,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (c Cliente) RUT() string { return forms.FormatRUT(c.RutNum, c.RutDV) }

type Repository interface {
	List(ctx context.Context) ([]Cliente, error)
	Create(ctx context.Context, c *Cliente) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Cliente, error) {
	return s.repo.List(ctx)
}

// Register validates c and stores it. The RUT is normalized before the
// check digit is verified.
func (s *Service) Register(ctx context.Context, c *Cliente) error {
	c.RutNum, c.RutDV = forms.NormalizeRUT(c.RutNum, c.RutDV)
	if err := forms.Validate(c); err != nil {
		return err
	}
	if !forms.ValidRUT(c.RutNum, c.RutDV) {
		return fmt.Errorf("%w: %s", ErrInvalidRUT, c.RUT())
	}
	return s.repo.Create(ctx, c)
}
