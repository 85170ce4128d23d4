package facturacion

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"estudio/internal/forms"
)

const (
	EstadoPendiente = "pendiente"
	EstadoPagado    = "pagado"
)

var ErrNotFound = errors.New("honorario not found")

type Honorario struct {
	ID           int64     `json:"id"`
	ClienteID    int64     `json:"cliente_id" form:"cliente_id" validate:"required,gt=0"`
	CausaID      *int64    `json:"causa_id,omitempty"`
	Descripcion  string    `json:"descripcion" form:"descripcion" validate:"required,max=500"`
	MontoTotal   float64   `json:"monto_total" form:"monto_total" validate:"gt=0"`
	FechaEmision time.Time `json:"fecha_emision"`
	EnCuotas     bool      `json:"en_cuotas"`
	NumeroCuotas int       `json:"numero_cuotas" form:"numero_cuotas" validate:"min=1,max=120"`
	Estado       string    `json:"estado"`

	ClienteNombre  string  `json:"cliente_nombre,omitempty"`
	CausaRolNumero string  `json:"causa_rol_numero,omitempty"`
	Pagado         float64 `json:"pagado"`
}

// Saldo is what remains unpaid, never negative.
func (h Honorario) Saldo() float64 {
	if h.Pagado >= h.MontoTotal {
		return 0
	}
	return h.MontoTotal - h.Pagado
}

type PagoCuota struct {
	ID          int64     `json:"id"`
	HonorarioID int64     `json:"honorario_id"`
	NumeroCuota int       `json:"numero_cuota" form:"numero_cuota" validate:"min=1"`
	MontoPagado float64   `json:"monto_pagado" form:"monto_pagado" validate:"gt=0"`
	FechaPago   time.Time `json:"fecha_pago"`
	Vencimiento time.Time `json:"vencimiento"`
	Estado      string    `json:"estado"`

	HonorarioDescripcion string `json:"honorario_descripcion,omitempty"`
	ClienteNombre        string `json:"cliente_nombre,omitempty"`
}

type Gasto struct {
	ID          int64     `json:"id"`
	Descripcion string    `json:"descripcion" form:"descripcion" validate:"required,max=500"`
	Monto       float64   `json:"monto" form:"monto" validate:"gt=0"`
	Fecha       time.Time `json:"fecha"`
	Categoria   string    `json:"categoria" form:"categoria" validate:"max=50"`
}

// Filter narrows the billing view. Estado applies to honorarios and pagos.
type Filter struct {
	ClienteID *int64
	Estado    string
}

// ValidEstado reports whether s is a known estado.
func ValidEstado(s string) bool {
	return s == EstadoPendiente || s == EstadoPagado
}

type Repository interface {
	ListHonorarios(ctx context.Context, f Filter) ([]Honorario, error)
	GetHonorario(ctx context.Context, id int64) (*Honorario, error)
	CreateHonorario(ctx context.Context, h *Honorario) error
	ListPagos(ctx context.Context, f Filter) ([]PagoCuota, error)
	// CreatePago stores p and settles the honorario once its payments cover
	// the total. It reports whether the honorario is now paid.
	CreatePago(ctx context.Context, p *PagoCuota) (bool, error)
	ListGastos(ctx context.Context) ([]Gasto, error)
	CreateGasto(ctx context.Context, g *Gasto) error
}

// Resumen is everything the billing page shows.
type Resumen struct {
	Honorarios      []Honorario
	Pagos           []PagoCuota
	Gastos          []Gasto
	TotalHonorarios float64
	TotalPagado     float64
	TotalGastos     float64
}

// Categoria groups gastos for the service page.
type Categoria struct {
	Nombre string
	Total  float64
	Gastos int
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Resumen(ctx context.Context, f Filter) (*Resumen, error) {
	if !ValidEstado(f.Estado) {
		f.Estado = ""
	}

	honorarios, err := s.repo.ListHonorarios(ctx, f)
	if err != nil {
		return nil, err
	}
	pagos, err := s.repo.ListPagos(ctx, f)
	if err != nil {
		return nil, err
	}
	gastos, err := s.repo.ListGastos(ctx)
	if err != nil {
		return nil, err
	}

	res := &Resumen{Honorarios: honorarios, Pagos: pagos, Gastos: gastos}
	for _, h := range honorarios {
		res.TotalHonorarios += h.MontoTotal
	}
	for _, p := range pagos {
		res.TotalPagado += p.MontoPagado
	}
	for _, g := range gastos {
		res.TotalGastos += g.Monto
	}
	return res, nil
}

func (s *Service) GetHonorario(ctx context.Context, id int64) (*Honorario, error) {
	return s.repo.GetHonorario(ctx, id)
}

// RegistrarHonorario stores a new pending fee. A fee not paid in
// installments always has exactly one.
func (s *Service) RegistrarHonorario(ctx context.Context, h *Honorario) error {
	h.Descripcion = strings.TrimSpace(h.Descripcion)
	if !h.EnCuotas {
		h.NumeroCuotas = 1
	}
	if h.FechaEmision.IsZero() {
		h.FechaEmision = s.today()
	}
	h.Estado = EstadoPendiente
	if err := forms.Validate(h); err != nil {
		return err
	}
	return s.repo.CreateHonorario(ctx, h)
}

// RegistrarPago records an installment against an existing honorario.
func (s *Service) RegistrarPago(ctx context.Context, p *PagoCuota) (bool, error) {
	if _, err := s.repo.GetHonorario(ctx, p.HonorarioID); err != nil {
		return false, err
	}
	if p.FechaPago.IsZero() {
		p.FechaPago = s.today()
	}
	if p.Vencimiento.IsZero() {
		p.Vencimiento = s.today()
	}
	p.Estado = EstadoPagado
	if err := forms.Validate(p); err != nil {
		return false, err
	}
	return s.repo.CreatePago(ctx, p)
}

func (s *Service) ListGastos(ctx context.Context) ([]Gasto, error) {
	return s.repo.ListGastos(ctx)
}

func (s *Service) RegistrarGasto(ctx context.Context, g *Gasto) error {
	g.Descripcion = strings.TrimSpace(g.Descripcion)
	g.Categoria = strings.TrimSpace(g.Categoria)
	if g.Fecha.IsZero() {
		g.Fecha = s.today()
	}
	if err := forms.Validate(g); err != nil {
		return err
	}
	return s.repo.CreateGasto(ctx, g)
}

// Categorias totals gastos per category, largest first. Gastos without a
// category are grouped under "Sin categoría".
func Categorias(gastos []Gasto) []Categoria {
	idx := make(map[string]int)
	var out []Categoria
	for _, g := range gastos {
		name := g.Categoria
		if name == "" {
			name = "Sin categoría"
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, Categoria{Nombre: name})
		}
		out[i].Total += g.Monto
		out[i].Gastos++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

var csvHeader = []string{"Cliente", "Causa", "Descripción", "Monto", "Fecha", "Cuotas", "Estado"}

// ExportCSV writes every honorario as one CSV row.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	honorarios, err := s.repo.ListHonorarios(ctx, Filter{})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, h := range honorarios {
		causa := "Sin causa"
		if h.CausaID != nil {
			causa = h.CausaRolNumero
		}
		record := []string{
			h.ClienteNombre,
			causa,
			h.Descripcion,
			strconv.FormatFloat(h.MontoTotal, 'f', 2, 64),
			h.FechaEmision.Format(forms.DateLayout),
			strconv.Itoa(h.NumeroCuotas),
			h.Estado,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *Service) today() time.Time {
	y, m, d := s.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
