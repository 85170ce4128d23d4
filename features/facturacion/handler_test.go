package facturacion_test

import (
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estudio/features/facturacion"
	"estudio/internal/web/webtest"
)

func newHandler(t *testing.T, repo *MockRepository) *facturacion.Handler {
	t.Helper()
	clientes := clientesStub{{ID: 2, Nombre: "Ana Pérez", RutNum: "10000013", RutDV: "K"}}
	causas := causasStub{{ID: 3, Letra: "C", RolNumero: "1234", RolAnio: 2024, TipoCausa: "Civil"}}
	return facturacion.NewHandler(facturacion.NewService(repo), clientes, causas, webtest.Renderer(t))
}

func TestHandler_Index(t *testing.T) {
	repo := new(MockRepository)
	clienteID := int64(2)
	f := facturacion.Filter{ClienteID: &clienteID, Estado: "pendiente"}
	repo.On("ListHonorarios", mock.Anything, f).Return([]facturacion.Honorario{
		{ID: 1, ClienteID: 2, ClienteNombre: "Ana Pérez", Descripcion: "Demanda ejecutiva", MontoTotal: 1250000, Pagado: 250000, NumeroCuotas: 3, Estado: "pendiente", FechaEmision: time.Now()},
	}, nil)
	repo.On("ListPagos", mock.Anything, f).Return([]facturacion.PagoCuota{}, nil)
	repo.On("ListGastos", mock.Anything).Return([]facturacion.Gasto{}, nil)

	rec := httptest.NewRecorder()
	newHandler(t, repo).Index(rec, httptest.NewRequest(http.MethodGet, "/facturacion?cliente_id=2&estado=pendiente", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "Demanda ejecutiva")
	assert.Contains(t, body, "$1.000.000")
	assert.Contains(t, body, `href="/registrar_pago/1"`)
	assert.Contains(t, body, `<option value="pendiente" selected>`)
	repo.AssertExpectations(t)
}

func TestHandler_RegistrarHonorario(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		setup    func(*MockRepository)
		location string
		wantText string
	}{
		{
			name: "Success",
			form: url.Values{"cliente_id": {"2"}, "causa_id": {"3"}, "descripcion": {"Demanda"}, "monto_total": {"$1.250.000"}, "en_cuotas": {"on"}, "numero_cuotas": {"3"}, "fecha_emision": {"2024-03-05"}},
			setup: func(m *MockRepository) {
				m.On("CreateHonorario", mock.Anything, mock.MatchedBy(func(h *facturacion.Honorario) bool {
					return h.MontoTotal == 1250000 && h.EnCuotas && h.NumeroCuotas == 3 && h.CausaID != nil && *h.CausaID == 3 &&
						h.FechaEmision.Equal(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
				})).Return(nil)
			},
			location: "/facturacion",
			wantText: "Honorario registrado correctamente.",
		},
		{
			name:     "Bad Amount",
			form:     url.Values{"cliente_id": {"2"}, "descripcion": {"Demanda"}, "monto_total": {"mucho"}},
			location: "/registrar_honorario",
			wantText: "Revisa el cliente, la causa, el monto y la fecha.",
		},
		{
			name:     "Missing Descripcion",
			form:     url.Values{"cliente_id": {"2"}, "monto_total": {"1000"}},
			location: "/registrar_honorario",
			wantText: "Revisa los campos: descripcion.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			if tt.setup != nil {
				tt.setup(repo)
			}

			rec := httptest.NewRecorder()
			newHandler(t, repo).RegistrarHonorario(rec, webtest.PostForm("/registrar_honorario", tt.form))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			assert.Equal(t, tt.wantText, webtest.FlashMessage(t, rec))
			repo.AssertExpectations(t)
		})
	}
}

func TestHandler_RegistrarPago(t *testing.T) {
	t.Run("Missing Honorario Is 404", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetHonorario", mock.Anything, int64(9)).Return(nil, facturacion.ErrNotFound)

		req := webtest.PostForm("/registrar_pago/9", url.Values{"numero_cuota": {"1"}, "monto_pagado": {"1000"}})
		req.SetPathValue("honorario_id", "9")
		rec := httptest.NewRecorder()
		newHandler(t, repo).RegistrarPago(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		repo.AssertNotCalled(t, "CreatePago", mock.Anything, mock.Anything)
	})

	t.Run("Form For Missing Honorario Is 404", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetHonorario", mock.Anything, int64(9)).Return(nil, facturacion.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/registrar_pago/9", nil)
		req.SetPathValue("honorario_id", "9")
		rec := httptest.NewRecorder()
		newHandler(t, repo).NuevoPago(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Final Payment Settles", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetHonorario", mock.Anything, int64(4)).Return(&facturacion.Honorario{ID: 4, MontoTotal: 100000, NumeroCuotas: 2}, nil)
		repo.On("CreatePago", mock.Anything, mock.MatchedBy(func(p *facturacion.PagoCuota) bool {
			return p.HonorarioID == 4 && p.NumeroCuota == 2 && p.MontoPagado == 50000
		})).Return(true, nil)

		req := webtest.PostForm("/registrar_pago/4", url.Values{"numero_cuota": {"2"}, "monto_pagado": {"50.000"}})
		req.SetPathValue("honorario_id", "4")
		rec := httptest.NewRecorder()
		newHandler(t, repo).RegistrarPago(rec, req)

		assert.Equal(t, "/facturacion", rec.Header().Get("Location"))
		flashes := webtest.Flashes(t, rec)
		require.Len(t, flashes, 2)
		assert.Equal(t, "Pago registrado correctamente.", flashes[0].Message)
		assert.Equal(t, "El honorario quedó completamente pagado.", flashes[1].Message)
	})
}

func TestHandler_RegistrarGasto(t *testing.T) {
	repo := new(MockRepository)
	repo.On("CreateGasto", mock.Anything, mock.MatchedBy(func(g *facturacion.Gasto) bool {
		return g.Descripcion == "Receptor" && g.Monto == 35000 && g.Categoria == "Receptor judicial" && !g.Fecha.IsZero()
	})).Return(nil)

	rec := httptest.NewRecorder()
	newHandler(t, repo).RegistrarGasto(rec, webtest.PostForm("/registrar_gasto", url.Values{
		"descripcion": {"Receptor"}, "monto": {"35000"}, "categoria": {"Receptor judicial"},
	}))

	assert.Equal(t, "/servicio", rec.Header().Get("Location"))
	assert.Equal(t, "Gasto registrado correctamente.", webtest.FlashMessage(t, rec))
	repo.AssertExpectations(t)
}

func TestHandler_Servicio(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListGastos", mock.Anything).Return([]facturacion.Gasto{
		{Descripcion: "Copias", Monto: 2500, Categoria: "Oficina", Fecha: time.Now()},
	}, nil)

	rec := httptest.NewRecorder()
	newHandler(t, repo).Servicio(rec, httptest.NewRequest(http.MethodGet, "/servicio", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Copias")
	assert.Contains(t, rec.Body.String(), "$2.500")
}

func TestHandler_Export(t *testing.T) {
	repo := new(MockRepository)
	repo.On("ListHonorarios", mock.Anything, facturacion.Filter{}).Return([]facturacion.Honorario{
		{ClienteNombre: "Ana Pérez", Descripcion: "Asesoría", MontoTotal: 1000, NumeroCuotas: 1, Estado: "pendiente"},
	}, nil)

	rec := httptest.NewRecorder()
	newHandler(t, repo).Export(rec, httptest.NewRequest(http.MethodGet, "/exportar_facturacion", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=facturacion.csv", rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))

	records, err := csv.NewReader(rec.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Sin causa", records[1][1])
}
