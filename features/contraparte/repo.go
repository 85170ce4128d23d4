package contraparte

import (
	"context"
	"database/sql"
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) List(ctx context.Context) ([]Contraparte, error) {
	query := `SELECT id, nombre, rut_num, rut_dv, abogado, email, telefono FROM contrapartes ORDER BY nombre`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []Contraparte
	for rows.Next() {
		var c Contraparte
		if err := rows.Scan(&c.ID, &c.Nombre, &c.RutNum, &c.RutDV, &c.Abogado, &c.Email, &c.Telefono); err != nil {
			return nil, err
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, c *Contraparte) error {
	query := `INSERT INTO contrapartes (nombre, rut_num, rut_dv, abogado, email, telefono) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	return r.db.QueryRowContext(ctx, query, c.Nombre, c.RutNum, c.RutDV, c.Abogado, c.Email, c.Telefono).Scan(&c.ID)
}
