package facturacion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"estudio/features/causa"
	"estudio/features/cliente"
	"estudio/internal/forms"
	"estudio/internal/web"
)

type ClienteLister interface {
	List(ctx context.Context) ([]cliente.Cliente, error)
}

type CausaLister interface {
	List(ctx context.Context) ([]causa.Causa, error)
}

type Handler struct {
	service  *Service
	clientes ClienteLister
	causas   CausaLister
	render   *web.Renderer
}

func NewHandler(service *Service, clientes ClienteLister, causas CausaLister, render *web.Renderer) *Handler {
	return &Handler{service: service, clientes: clientes, causas: causas, render: render}
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	f := Filter{Estado: strings.TrimSpace(q.Get("estado"))}
	if id, err := forms.OptionalID(q.Get("cliente_id")); err == nil {
		f.ClienteID = id
	}

	res, err := h.service.Resumen(ctx, f)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load facturacion", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}
	clientes, err := h.clientes.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list clientes", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}

	selected := ""
	if f.ClienteID != nil {
		selected = strconv.FormatInt(*f.ClienteID, 10)
	}
	h.render.HTML(w, r, http.StatusOK, "facturacion", web.Page{
		Title: "Facturación",
		Data: map[string]any{
			"Resumen":         res,
			"Clientes":        clientes,
			"SelectedCliente": selected,
			"SelectedEstado":  f.Estado,
		},
	})
}

func (h *Handler) NuevoHonorario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	clientes, err := h.clientes.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list clientes", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}
	causas, err := h.causas.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list causas", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}

	h.render.HTML(w, r, http.StatusOK, "registrar_honorario", web.Page{
		Title:  "Registrar honorario",
		Active: "facturacion",
		Data: map[string]any{
			"Clientes": clientes,
			"Causas":   causas,
			"Hoy":      time.Now(),
		},
	})
}

func (h *Handler) RegistrarHonorario(w http.ResponseWriter, r *http.Request) {
	const back = "/registrar_honorario"
	if err := r.ParseForm(); err != nil {
		h.render.Redirect(w, r, back, web.Failure("No se pudo leer el formulario."))
		return
	}

	hon, err := honorarioFromForm(r)
	if err != nil {
		h.render.Redirect(w, r, back, web.Failure("Revisa el cliente, la causa, el monto y la fecha."))
		return
	}

	err = h.service.RegistrarHonorario(r.Context(), hon)
	var verr *forms.ValidationError
	switch {
	case err == nil:
		slog.InfoContext(r.Context(), "honorario registered", "id", hon.ID, "cliente_id", hon.ClienteID)
		h.render.Redirect(w, r, "/facturacion", web.Success("Honorario registrado correctamente."))
	case errors.As(err, &verr):
		h.render.Redirect(w, r, back, web.Failure("Revisa los campos: "+strings.Join(verr.Fields, ", ")+"."))
	default:
		slog.ErrorContext(r.Context(), "failed to register honorario", "error", err)
		h.render.Redirect(w, r, back, web.Failure("No se pudo registrar el honorario."))
	}
}

func (h *Handler) NuevoPago(w http.ResponseWriter, r *http.Request) {
	hon, ok := h.honorario(w, r)
	if !ok {
		return
	}
	h.render.HTML(w, r, http.StatusOK, "registrar_pago", web.Page{
		Title:  "Registrar pago",
		Active: "facturacion",
		Data:   map[string]any{"Honorario": hon, "Hoy": time.Now()},
	})
}

func (h *Handler) RegistrarPago(w http.ResponseWriter, r *http.Request) {
	hon, ok := h.honorario(w, r)
	if !ok {
		return
	}
	back := fmt.Sprintf("/registrar_pago/%d", hon.ID)
	if err := r.ParseForm(); err != nil {
		h.render.Redirect(w, r, back, web.Failure("No se pudo leer el formulario."))
		return
	}

	p, err := pagoFromForm(r)
	if err != nil {
		h.render.Redirect(w, r, back, web.Failure("Revisa el número de cuota, el monto y las fechas."))
		return
	}
	p.HonorarioID = hon.ID

	pagado, err := h.service.RegistrarPago(r.Context(), p)
	var verr *forms.ValidationError
	switch {
	case err == nil:
		slog.InfoContext(r.Context(), "pago registered", "id", p.ID, "honorario_id", hon.ID, "saldado", pagado)
		flashes := []web.Flash{web.Success("Pago registrado correctamente.")}
		if pagado {
			flashes = append(flashes, web.Info("El honorario quedó completamente pagado."))
		}
		h.render.Redirect(w, r, "/facturacion", flashes...)
	case errors.As(err, &verr):
		h.render.Redirect(w, r, back, web.Failure("Revisa los campos: "+strings.Join(verr.Fields, ", ")+"."))
	case errors.Is(err, ErrNotFound):
		h.render.Error(w, r, http.StatusNotFound)
	default:
		slog.ErrorContext(r.Context(), "failed to register pago", "honorario_id", hon.ID, "error", err)
		h.render.Redirect(w, r, back, web.Failure("No se pudo registrar el pago."))
	}
}

func (h *Handler) NuevoGasto(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "registrar_gasto", web.Page{
		Title:  "Registrar gasto",
		Active: "servicio",
		Data:   map[string]any{"Hoy": time.Now()},
	})
}

func (h *Handler) RegistrarGasto(w http.ResponseWriter, r *http.Request) {
	const back = "/registrar_gasto"
	if err := r.ParseForm(); err != nil {
		h.render.Redirect(w, r, back, web.Failure("No se pudo leer el formulario."))
		return
	}

	monto, err := forms.Amount(r.PostFormValue("monto"))
	if err != nil {
		h.render.Redirect(w, r, back, web.Failure("El monto no es válido."))
		return
	}
	fecha, err := forms.DateOr(r.PostFormValue("fecha"), time.Time{})
	if err != nil {
		h.render.Redirect(w, r, back, web.Failure("La fecha no es válida."))
		return
	}

	g := &Gasto{
		Descripcion: r.PostFormValue("descripcion"),
		Monto:       monto,
		Fecha:       fecha,
		Categoria:   r.PostFormValue("categoria"),
	}
	err = h.service.RegistrarGasto(r.Context(), g)
	var verr *forms.ValidationError
	switch {
	case err == nil:
		slog.InfoContext(r.Context(), "gasto registered", "id", g.ID)
		h.render.Redirect(w, r, "/servicio", web.Success("Gasto registrado correctamente."))
	case errors.As(err, &verr):
		h.render.Redirect(w, r, back, web.Failure("Revisa los campos: "+strings.Join(verr.Fields, ", ")+"."))
	default:
		slog.ErrorContext(r.Context(), "failed to register gasto", "error", err)
		h.render.Redirect(w, r, back, web.Failure("No se pudo registrar el gasto."))
	}
}

// Servicio shows operating expenses grouped by category.
func (h *Handler) Servicio(w http.ResponseWriter, r *http.Request) {
	gastos, err := h.service.ListGastos(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list gastos", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}

	var total float64
	for _, g := range gastos {
		total += g.Monto
	}
	h.render.HTML(w, r, http.StatusOK, "servicio", web.Page{
		Title: "Servicio y gastos",
		Data: map[string]any{
			"Gastos":     gastos,
			"Categorias": Categorias(gastos),
			"Total":      total,
		},
	})
}

func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=facturacion.csv")
	if err := h.service.ExportCSV(r.Context(), w); err != nil {
		// Headers may already be sent; the client sees a truncated file.
		slog.ErrorContext(r.Context(), "failed to export facturacion", "error", err)
	}
}

func (h *Handler) honorario(w http.ResponseWriter, r *http.Request) (*Honorario, bool) {
	id, err := strconv.ParseInt(r.PathValue("honorario_id"), 10, 64)
	if err != nil {
		h.render.Error(w, r, http.StatusNotFound)
		return nil, false
	}
	hon, err := h.service.GetHonorario(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		h.render.Error(w, r, http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to get honorario", "id", id, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return nil, false
	}
	return hon, true
}

func honorarioFromForm(r *http.Request) (*Honorario, error) {
	clienteID, err := forms.ID(r.PostFormValue("cliente_id"))
	if err != nil {
		return nil, err
	}
	causaID, err := forms.OptionalID(r.PostFormValue("causa_id"))
	if err != nil {
		return nil, err
	}
	monto, err := forms.Amount(r.PostFormValue("monto_total"))
	if err != nil {
		return nil, err
	}
	emision, err := forms.DateOr(r.PostFormValue("fecha_emision"), time.Time{})
	if err != nil {
		return nil, err
	}
	cuotas, err := forms.IntOr(r.PostFormValue("numero_cuotas"), 1)
	if err != nil {
		return nil, err
	}

	return &Honorario{
		ClienteID:    clienteID,
		CausaID:      causaID,
		Descripcion:  r.PostFormValue("descripcion"),
		MontoTotal:   monto,
		FechaEmision: emision,
		EnCuotas:     forms.Checkbox(r.PostFormValue("en_cuotas")),
		NumeroCuotas: cuotas,
	}, nil
}

func pagoFromForm(r *http.Request) (*PagoCuota, error) {
	cuota, err := forms.IntOr(r.PostFormValue("numero_cuota"), 1)
	if err != nil {
		return nil, err
	}
	monto, err := forms.Amount(r.PostFormValue("monto_pagado"))
	if err != nil {
		return nil, err
	}
	fechaPago, err := forms.DateOr(r.PostFormValue("fecha_pago"), time.Time{})
	if err != nil {
		return nil, err
	}
	vencimiento, err := forms.DateOr(r.PostFormValue("vencimiento"), time.Time{})
	if err != nil {
		return nil, err
	}
	return &PagoCuota{NumeroCuota: cuota, MontoPagado: monto, FechaPago: fechaPago, Vencimiento: vencimiento}, nil
}
