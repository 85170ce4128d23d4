package dashboard

import (
	"context"
	"database/sql"
	"time"

	"estudio/features/causa"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) Counts(ctx context.Context, monthStart time.Time) (*Counts, error) {
	query := `SELECT
		(SELECT COUNT(*) FROM causas WHERE fecha_ingreso >= $1),
		(SELECT COUNT(*) FROM clientes),
		(SELECT COUNT(*) FROM honorarios WHERE estado = 'pendiente'),
		(SELECT COUNT(*) FROM formatos_legales)`
	c := &Counts{}
	err := r.db.QueryRowContext(ctx, query, monthStart).Scan(&c.CausasMes, &c.Clientes, &c.HonorariosPendientes, &c.Formatos)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *PostgresRepo) CausasPorMes(ctx context.Context, since time.Time) ([]MonthTotal, error) {
	query := `SELECT date_trunc('month', fecha_ingreso)::date AS mes, COUNT(*)
		FROM causas WHERE fecha_ingreso >= $1
		GROUP BY mes ORDER BY mes`
	rows, err := r.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var totals []MonthTotal
	for rows.Next() {
		var t MonthTotal
		if err := rows.Scan(&t.Month, &t.Count); err != nil {
			return nil, err
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *PostgresRepo) Recordatorios(ctx context.Context, limit int) ([]Recordatorio, error) {
	query := `SELECT c.id, c.letra, c.rol_numero, c.rol_anio, cl.nombre, c.ultima_gestion, c.fecha_ultima_gestion
		FROM causas c
		JOIN clientes cl ON cl.id = c.cliente_id
		WHERE c.fecha_ultima_gestion IS NOT NULL
		ORDER BY c.fecha_ultima_gestion DESC, c.id DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []Recordatorio
	for rows.Next() {
		var rec Recordatorio
		var c causa.Causa
		if err := rows.Scan(&rec.CausaID, &c.Letra, &c.RolNumero, &c.RolAnio, &rec.Cliente, &rec.UltimaGestion, &rec.Fecha); err != nil {
			return nil, err
		}
		rec.Rol = c.Rol()
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}
