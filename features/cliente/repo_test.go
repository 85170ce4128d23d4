package cliente_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estudio/features/cliente"
)

func TestPostgresRepo_List(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := cliente.NewPostgresRepo(db)
	nacimiento := time.Date(1980, 5, 17, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, nombre, rut_num, rut_dv, email, telefono, direccion, profesion, fecha_nacimiento, created_at FROM clientes ORDER BY nombre")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nombre", "rut_num", "rut_dv", "email", "telefono", "direccion", "profesion", "fecha_nacimiento", "created_at"}).
			AddRow(1, "Ana Pérez", "12345678", "5", "ana@example.cl", "", "", "Ingeniera", nacimiento, now).
			AddRow(2, "Bruno Soto", "11111111", "1", "", "", "", "", nil, now))

	list, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "12.345.678-5", list[0].RUT())
	require.NotNil(t, list[0].FechaNacimiento)
	assert.True(t, nacimiento.Equal(*list[0].FechaNacimiento))
	assert.Nil(t, list[1].FechaNacimiento)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_Create(t *testing.T) {
	query := regexp.QuoteMeta("INSERT INTO clientes (nombre, rut_num, rut_dv, email, telefono, direccion, profesion, fecha_nacimiento) VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id, created_at")

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		c := &cliente.Cliente{Nombre: "Ana", RutNum: "12345678", RutDV: "5"}
		mock.ExpectQuery(query).
			WithArgs("Ana", "12345678", "5", "", "", "", "", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(7, time.Now()))

		require.NoError(t, cliente.NewPostgresRepo(db).Create(context.Background(), c))
		assert.Equal(t, int64(7), c.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Duplicate RUT", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(query).WillReturnError(&pq.Error{Code: "23505", Constraint: "clientes_rut_key"})

		err = cliente.NewPostgresRepo(db).Create(context.Background(), &cliente.Cliente{Nombre: "Ana"})
		assert.ErrorIs(t, err, cliente.ErrDuplicateRUT)
	})
}
