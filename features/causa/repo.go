package causa

import (
	"context"
	"database/sql"
	"errors"
)

const selectCausas = `
	SELECT c.id, c.tipo_causa, c.procedimiento, c.judicial, c.corte_apelaciones, c.tribunal, c.letra, c.rol_numero, c.rol_anio,
	       c.fecha_ingreso, c.ultima_gestion, c.fecha_ultima_gestion, c.ingreso_juridico, c.cliente_id, c.contraparte_id,
	       cl.nombre, COALESCE(cp.nombre, ''), (SELECT COUNT(*) FROM documentos d WHERE d.causa_id = c.id)
	FROM causas c
	JOIN clientes cl ON cl.id = c.cliente_id
	LEFT JOIN contrapartes cp ON cp.id = c.contraparte_id`

type rowScanner interface {
	Scan(dest ...any) error
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func scanCausa(s rowScanner) (*Causa, error) {
	c := &Causa{}
	var ultima sql.NullTime
	var contraparte sql.NullInt64
	err := s.Scan(&c.ID, &c.TipoCausa, &c.Procedimiento, &c.Judicial, &c.CorteApelaciones, &c.Tribunal, &c.Letra, &c.RolNumero, &c.RolAnio,
		&c.FechaIngreso, &c.UltimaGestion, &ultima, &c.IngresoJuridico, &c.ClienteID, &contraparte,
		&c.ClienteNombre, &c.ContraparteNombre, &c.NumDocumentos)
	if err != nil {
		return nil, err
	}
	if ultima.Valid {
		c.FechaUltimaGestion = &ultima.Time
	}
	if contraparte.Valid {
		c.ContraparteID = &contraparte.Int64
	}
	return c, nil
}

func (r *PostgresRepo) List(ctx context.Context) ([]Causa, error) {
	rows, err := r.db.QueryContext(ctx, selectCausas+` ORDER BY c.fecha_ingreso DESC, c.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var causas []Causa
	for rows.Next() {
		c, err := scanCausa(rows)
		if err != nil {
			return nil, err
		}
		causas = append(causas, *c)
	}
	return causas, rows.Err()
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (*Causa, error) {
	c, err := scanCausa(r.db.QueryRowContext(ctx, selectCausas+` WHERE c.id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return c, err
}

func (r *PostgresRepo) CreateWithDocumentos(ctx context.Context, c *Causa, docs []Documento) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	query := `INSERT INTO causas (tipo_causa, procedimiento, judicial, corte_apelaciones, tribunal, letra, rol_numero, rol_anio, fecha_ingreso, ultima_gestion, fecha_ultima_gestion, ingreso_juridico, cliente_id, contraparte_id) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`
	err = tx.QueryRowContext(ctx, query, c.TipoCausa, c.Procedimiento, c.Judicial, c.CorteApelaciones, c.Tribunal, c.Letra, c.RolNumero, c.RolAnio,
		c.FechaIngreso, c.UltimaGestion, c.FechaUltimaGestion, c.IngresoJuridico, c.ClienteID, c.ContraparteID).Scan(&c.ID)
	if err != nil {
		return err
	}

	docQuery := `INSERT INTO documentos (causa_id, nombre_archivo, ruta_archivo, tipo) VALUES ($1, $2, $3, $4) RETURNING id, fecha_subida`
	for i := range docs {
		docs[i].CausaID = c.ID
		if err := tx.QueryRowContext(ctx, docQuery, c.ID, docs[i].NombreArchivo, docs[i].RutaArchivo, docs[i].Tipo).Scan(&docs[i].ID, &docs[i].FechaSubida); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	c.NumDocumentos = len(docs)
	return nil
}

func (r *PostgresRepo) ListDocumentos(ctx context.Context, causaID int64) ([]Documento, error) {
	query := `SELECT id, causa_id, nombre_archivo, ruta_archivo, tipo, fecha_subida FROM documentos WHERE causa_id = $1 ORDER BY fecha_subida, id`
	rows, err := r.db.QueryContext(ctx, query, causaID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Documento
	for rows.Next() {
		var d Documento
		if err := rows.Scan(&d.ID, &d.CausaID, &d.NombreArchivo, &d.RutaArchivo, &d.Tipo, &d.FechaSubida); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
