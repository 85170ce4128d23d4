package cliente

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) List(ctx context.Context) ([]Cliente, error) {
	query := `SELECT id, nombre, rut_num, rut_dv, email, telefono, direccion, profesion, fecha_nacimiento, created_at FROM clientes ORDER BY nombre`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clientes []Cliente
	for rows.Next() {
		var c Cliente
		var nacimiento sql.NullTime
		if err := rows.Scan(&c.ID, &c.Nombre, &c.RutNum, &c.RutDV, &c.Email, &c.Telefono, &c.Direccion, &c.Profesion, &nacimiento, &c.CreatedAt); err != nil {
			return nil, err
		}
		if nacimiento.Valid {
			c.FechaNacimiento = &nacimiento.Time
		}
		clientes = append(clientes, c)
	}
	return clientes, rows.Err()
}

func (r *PostgresRepo) Create(ctx context.Context, c *Cliente) error {
	query := `INSERT INTO clientes (nombre, rut_num, rut_dv, email, telefono, direccion, profesion, fecha_nacimiento) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, c.Nombre, c.RutNum, c.RutDV, c.Email, c.Telefono, c.Direccion, c.Profesion, c.FechaNacimiento).Scan(&c.ID, &c.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicateRUT
	}
	return err
}
