package formato

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]FormatoLegal, error) {
	var where []string
	var args []any
	if f.Nombre != "" {
		args = append(args, "%"+f.Nombre+"%")
		where = append(where, fmt.Sprintf("nombre_original ILIKE $%d", len(args)))
	}
	if f.Usuario != "" {
		args = append(args, "%"+f.Usuario+"%")
		where = append(where, fmt.Sprintf("usuario ILIKE $%d", len(args)))
	}
	if f.CausaID != nil {
		args = append(args, *f.CausaID)
		where = append(where, fmt.Sprintf("causa_id = $%d", len(args)))
	}

	query := `SELECT id, nombre_original, filename, usuario, causa_id, observaciones, fecha_subida FROM formatos_legales`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY fecha_subida DESC, id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []FormatoLegal
	for rows.Next() {
		var fl FormatoLegal
		var causaID sql.NullInt64
		if err := rows.Scan(&fl.ID, &fl.NombreOriginal, &fl.Filename, &fl.Usuario, &causaID, &fl.Observaciones, &fl.FechaSubida); err != nil {
			return nil, err
		}
		if causaID.Valid {
			fl.CausaID = &causaID.Int64
		}
		list = append(list, fl)
	}
	return list, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (*FormatoLegal, error) {
	fl := &FormatoLegal{}
	var causaID sql.NullInt64
	query := `SELECT id, nombre_original, filename, usuario, causa_id, observaciones, fecha_subida FROM formatos_legales WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&fl.ID, &fl.NombreOriginal, &fl.Filename, &fl.Usuario, &causaID, &fl.Observaciones, &fl.FechaSubida)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if causaID.Valid {
		fl.CausaID = &causaID.Int64
	}
	return fl, nil
}

func (r *PostgresRepo) Create(ctx context.Context, fl *FormatoLegal) error {
	query := `INSERT INTO formatos_legales (nombre_original, filename, usuario, causa_id, observaciones) VALUES ($1, $2, $3, $4, $5) RETURNING id, fecha_subida`
	return r.db.QueryRowContext(ctx, query, fl.NombreOriginal, fl.Filename, fl.Usuario, fl.CausaID, fl.Observaciones).Scan(&fl.ID, &fl.FechaSubida)
}

func (r *PostgresRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM formatos_legales WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
