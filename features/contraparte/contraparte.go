package contraparte

import (
	"context"
	"errors"

	"estudio/internal/forms"
)

var ErrInvalidRUT = errors.New("invalid rut")

type Contraparte struct {
	ID       int64  `json:"id"`
	Nombre   string `json:"nombre" form:"nombre" validate:"required,max=100"`
	RutNum   string `json:"rut_num" form:"rut_num" validate:"omitempty,numeric,max=9"`
	RutDV    string `json:"rut_dv" form:"rut_dv" validate:"omitempty,rutdv"`
	Abogado  string `json:"abogado" form:"abogado" validate:"max=100"`
	Email    string `json:"email" form:"email" validate:"omitempty,email,max=100"`
	Telefono string `json:"telefono" form:"telefono" validate:"max=20"`
}

func (c Contraparte) RUT() string { return forms.FormatRUT(c.RutNum, c.RutDV) }

type Repository interface {
	List(ctx context.Context) ([]Contraparte, error)
	Create(ctx context.Context, c *Contraparte) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]Contraparte, error) {
	return s.repo.List(ctx)
}

// Register stores c. A RUT is optional, but when given it must verify.
func (s *Service) Register(ctx context.Context, c *Contraparte) error {
	c.RutNum, c.RutDV = forms.NormalizeRUT(c.RutNum, c.RutDV)
	if err := forms.Validate(c); err != nil {
		return err
	}
	if c.RutNum != "" && !forms.ValidRUT(c.RutNum, c.RutDV) {
		return ErrInvalidRUT
	}
	return s.repo.Create(ctx, c)
}
