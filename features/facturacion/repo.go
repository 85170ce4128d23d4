package facturacion

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const selectHonorarios = `
	SELECT h.id, h.cliente_id, h.causa_id, h.descripcion, h.monto_total, h.fecha_emision, h.en_cuotas, h.numero_cuotas, h.estado,
	       cl.nombre, COALESCE(c.rol_numero, ''),
	       COALESCE((SELECT SUM(p.monto_pagado) FROM pagos_cuotas p WHERE p.honorario_id = h.id), 0)
	FROM honorarios h
	JOIN clientes cl ON cl.id = h.cliente_id
	LEFT JOIN causas c ON c.id = h.causa_id`

const selectPagos = `
	SELECT p.id, p.honorario_id, p.numero_cuota, p.monto_pagado, p.fecha_pago, p.vencimiento, p.estado, h.descripcion, cl.nombre
	FROM pagos_cuotas p
	JOIN honorarios h ON h.id = p.honorario_id
	JOIN clientes cl ON cl.id = h.cliente_id`

type rowScanner interface {
	Scan(dest ...any) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// whereClause builds the shared cliente/estado filter against alias.
func whereClause(f Filter, alias string) (string, []any) {
	var where []string
	var args []any
	if f.ClienteID != nil {
		args = append(args, *f.ClienteID)
		where = append(where, fmt.Sprintf("h.cliente_id = $%d", len(args)))
	}
	if f.Estado != "" {
		args = append(args, f.Estado)
		where = append(where, fmt.Sprintf("%s.estado = $%d", alias, len(args)))
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

func scanHonorario(s rowScanner) (*Honorario, error) {
	h := &Honorario{}
	var causaID sql.NullInt64
	err := s.Scan(&h.ID, &h.ClienteID, &causaID, &h.Descripcion, &h.MontoTotal, &h.FechaEmision, &h.EnCuotas, &h.NumeroCuotas, &h.Estado,
		&h.ClienteNombre, &h.CausaRolNumero, &h.Pagado)
	if err != nil {
		return nil, err
	}
	if causaID.Valid {
		h.CausaID = &causaID.Int64
	}
	return h, nil
}

func (r *PostgresRepo) ListHonorarios(ctx context.Context, f Filter) ([]Honorario, error) {
	where, args := whereClause(f, "h")
	rows, err := r.db.QueryContext(ctx, selectHonorarios+where+` ORDER BY h.fecha_emision DESC, h.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Honorario
	for rows.Next() {
		h, err := scanHonorario(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *h)
	}
	return list, rows.Err()
}

func (r *PostgresRepo) GetHonorario(ctx context.Context, id int64) (*Honorario, error) {
	h, err := scanHonorario(r.db.QueryRowContext(ctx, selectHonorarios+` WHERE h.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return h, err
}

func (r *PostgresRepo) CreateHonorario(ctx context.Context, h *Honorario) error {
	query := `INSERT INTO honorarios (cliente_id, causa_id, descripcion, monto_total, fecha_emision, en_cuotas, numero_cuotas, estado)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	return r.db.QueryRowContext(ctx, query,
		h.ClienteID, h.CausaID, h.Descripcion, h.MontoTotal, h.FechaEmision, h.EnCuotas, h.NumeroCuotas, h.Estado,
	).Scan(&h.ID)
}

func (r *PostgresRepo) ListPagos(ctx context.Context, f Filter) ([]PagoCuota, error) {
	where, args := whereClause(f, "p")
	rows, err := r.db.QueryContext(ctx, selectPagos+where+` ORDER BY p.fecha_pago DESC, p.id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []PagoCuota
	for rows.Next() {
		var p PagoCuota
		if err := rows.Scan(&p.ID, &p.HonorarioID, &p.NumeroCuota, &p.MontoPagado, &p.FechaPago, &p.Vencimiento, &p.Estado,
			&p.HonorarioDescripcion, &p.ClienteNombre); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

func (r *PostgresRepo) CreatePago(ctx context.Context, p *PagoCuota) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	insert := `INSERT INTO pagos_cuotas (honorario_id, numero_cuota, monto_pagado, fecha_pago, vencimiento, estado)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := tx.QueryRowContext(ctx, insert,
		p.HonorarioID, p.NumeroCuota, p.MontoPagado, p.FechaPago, p.Vencimiento, p.Estado,
	).Scan(&p.ID); err != nil {
		return false, err
	}

	// Only the pago that crosses the total flips the estado.
	settle := `UPDATE honorarios SET estado = 'pagado'
		WHERE id = $1 AND estado <> 'pagado'
		AND monto_total <= (SELECT COALESCE(SUM(monto_pagado), 0) FROM pagos_cuotas WHERE honorario_id = $1)`
	res, err := tx.ExecContext(ctx, settle, p.HonorarioID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresRepo) ListGastos(ctx context.Context) ([]Gasto, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, descripcion, monto, fecha, categoria FROM gastos ORDER BY fecha DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Gasto
	for rows.Next() {
		var g Gasto
		if err := rows.Scan(&g.ID, &g.Descripcion, &g.Monto, &g.Fecha, &g.Categoria); err != nil {
			return nil, err
		}
		list = append(list, g)
	}
	return list, rows.Err()
}

func (r *PostgresRepo) CreateGasto(ctx context.Context, g *Gasto) error {
	query := `INSERT INTO gastos (descripcion, monto, fecha, categoria) VALUES ($1, $2, $3, $4) RETURNING id`
	return r.db.QueryRowContext(ctx, query, g.Descripcion, g.Monto, g.Fecha, g.Categoria).Scan(&g.ID)
}
