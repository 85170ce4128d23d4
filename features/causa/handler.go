package causa

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"estudio/features/cliente"
	"estudio/features/contraparte"
	"estudio/internal/forms"
	"estudio/internal/web"
)

type ClienteLister interface {
	List(ctx context.Context) ([]cliente.Cliente, error)
}

type ContraparteLister interface {
	List(ctx context.Context) ([]contraparte.Contraparte, error)
}

type Handler struct {
	service      *Service
	clientes     ClienteLister
	contrapartes ContraparteLister
	render       *web.Renderer
	maxUpload    int64
}

func NewHandler(service *Service, clientes ClienteLister, contrapartes ContraparteLister, render *web.Renderer, maxUpload int64) *Handler {
	return &Handler{service: service, clientes: clientes, contrapartes: contrapartes, render: render, maxUpload: maxUpload}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	causas, err := h.service.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list causas", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}
	clientes, err := h.clientes.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list clientes", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}
	contrapartes, err := h.contrapartes.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list contrapartes", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}

	h.render.HTML(w, r, http.StatusOK, "causas", web.Page{
		Title: "Causas",
		Data: map[string]any{
			"Causas":       causas,
			"Clientes":     clientes,
			"Contrapartes": contrapartes,
		},
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.WarnContext(r.Context(), "failed to parse causa form", "error", err)
		h.render.Redirect(w, r, "/causas", web.Failure("No se pudo leer el formulario o los archivos superan el tamaño permitido."))
		return
	}

	c, err := causaFromForm(r)
	if err != nil {
		h.render.Redirect(w, r, "/causas", web.Failure("Revisa las fechas y los identificadores del formulario."))
		return
	}

	err = h.service.Register(r.Context(), c, documentos(r))
	var verr *forms.ValidationError
	switch {
	case err == nil:
		slog.InfoContext(r.Context(), "causa registered", "id", c.ID, "documentos", c.NumDocumentos)
		h.render.Redirect(w, r, "/causas", web.Success("Causa registrada correctamente."))
	case errors.As(err, &verr):
		h.render.Redirect(w, r, "/causas", web.Failure("Revisa los campos: "+strings.Join(verr.Fields, ", ")+"."))
	default:
		slog.ErrorContext(r.Context(), "failed to register causa", "error", err)
		h.render.Redirect(w, r, "/causas", web.Failure("No se pudo registrar la causa."))
	}
}

func (h *Handler) Documentos(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.render.Error(w, r, http.StatusNotFound)
		return
	}

	c, err := h.service.Get(r.Context(), id)
	if errors.Is(err, ErrNotFound) {
		h.render.Error(w, r, http.StatusNotFound)
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to get causa", "id", id, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}

	docs, err := h.service.Documentos(r.Context(), id)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list documentos", "causa_id", id, "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}

	h.render.HTML(w, r, http.StatusOK, "causa_documentos", web.Page{
		Title:  "Documentos de la causa",
		Active: "causas",
		Data:   map[string]any{"Causa": c, "Documentos": docs},
	})
}

func causaFromForm(r *http.Request) (*Causa, error) {
	ingreso, err := forms.Date(r.FormValue("fecha_ingreso"))
	if err != nil {
		return nil, err
	}
	ultima, err := forms.OptionalDate(r.FormValue("fecha_ultima_gestion"))
	if err != nil {
		return nil, err
	}
	rolAnio, err := forms.IntOr(r.FormValue("rol_anio"), 0)
	if err != nil {
		return nil, err
	}
	clienteID, err := forms.ID(r.FormValue("cliente_id"))
	if err != nil {
		return nil, err
	}
	contraparteID, err := forms.OptionalID(r.FormValue("contraparte_id"))
	if err != nil {
		return nil, err
	}

	return &Causa{
		TipoCausa:          strings.TrimSpace(r.FormValue("tipo_causa")),
		Procedimiento:      strings.TrimSpace(r.FormValue("procedimiento")),
		Judicial:           forms.Checkbox(r.FormValue("judicial")),
		CorteApelaciones:   strings.TrimSpace(r.FormValue("corte_apelaciones")),
		Tribunal:           strings.TrimSpace(r.FormValue("tribunal")),
		Letra:              strings.ToUpper(strings.TrimSpace(r.FormValue("letra"))),
		RolNumero:          strings.TrimSpace(r.FormValue("rol_numero")),
		RolAnio:            rolAnio,
		FechaIngreso:       ingreso,
		UltimaGestion:      strings.TrimSpace(r.FormValue("ultima_gestion")),
		FechaUltimaGestion: ultima,
		IngresoJuridico:    strings.TrimSpace(r.FormValue("ingreso_juridico")),
		ClienteID:          clienteID,
		ContraparteID:      contraparteID,
	}, nil
}

func documentos(r *http.Request) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File["documentos"]
}
