package dashboard

import (
	"context"
	"fmt"
	"time"

	"estudio/internal/web"
)

const (
	// SeriesMonths is how many months the causas chart covers, current included.
	SeriesMonths       = 8
	recordatoriosLimit = 5
)

// Counts are the headline numbers.
type Counts struct {
	CausasMes            int `json:"causas_mes"`
	Clientes             int `json:"clientes"`
	HonorariosPendientes int `json:"honorarios_pendientes"`
	Formatos             int `json:"formatos"`
}

// MonthTotal is the number of causas filed in the month starting at Month.
type MonthTotal struct {
	Month time.Time
	Count int
}

type MonthPoint struct {
	Label string `json:"label"`
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Count int    `json:"count"`
}

type Recordatorio struct {
	CausaID       int64     `json:"causa_id"`
	Rol           string    `json:"rol"`
	Cliente       string    `json:"cliente"`
	UltimaGestion string    `json:"ultima_gestion"`
	Fecha         time.Time `json:"fecha"`
	Tag           string    `json:"tag"`
}

type Stats struct {
	Counts
	Serie         []MonthPoint   `json:"serie"`
	Recordatorios []Recordatorio `json:"recordatorios"`
}

type Repository interface {
	Counts(ctx context.Context, monthStart time.Time) (*Counts, error)
	CausasPorMes(ctx context.Context, since time.Time) ([]MonthTotal, error)
	// Recordatorios returns causas ordered by their latest gestion, newest first.
	Recordatorios(ctx context.Context, limit int) ([]Recordatorio, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	since := monthStart.AddDate(0, -(SeriesMonths - 1), 0)

	counts, err := s.repo.Counts(ctx, monthStart)
	if err != nil {
		return nil, fmt.Errorf("counts: %w", err)
	}
	totals, err := s.repo.CausasPorMes(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("causas por mes: %w", err)
	}
	recs, err := s.repo.Recordatorios(ctx, recordatoriosLimit)
	if err != nil {
		return nil, fmt.Errorf("recordatorios: %w", err)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	for i := range recs {
		recs[i].Tag = tag(today, recs[i].Fecha)
	}

	return &Stats{
		Counts:        *counts,
		Serie:         series(since, totals),
		Recordatorios: recs,
	}, nil
}

// series fills the months without causas with zero.
func series(since time.Time, totals []MonthTotal) []MonthPoint {
	byMonth := make(map[string]int, len(totals))
	for _, t := range totals {
		byMonth[t.Month.Format("2006-01")] = t.Count
	}

	points := make([]MonthPoint, SeriesMonths)
	for i := range points {
		m := since.AddDate(0, i, 0)
		points[i] = MonthPoint{
			Label: web.MonthLabel(m.Month()),
			Year:  m.Year(),
			Month: int(m.Month()),
			Count: byMonth[m.Format("2006-01")],
		}
	}
	return points
}

func tag(today, fecha time.Time) string {
	d := time.Date(fecha.Year(), fecha.Month(), fecha.Day(), 0, 0, 0, 0, time.UTC)
	days := int(d.Sub(today).Hours() / 24)
	switch {
	case days == 0:
		return "Hoy"
	case days == 1:
		return "Mañana"
	case days == -1:
		return "Ayer"
	case days > 1:
		return fmt.Sprintf("En %d días", days)
	default:
		return fmt.Sprintf("Hace %d días", -days)
	}
}
