package formato

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"estudio/features/causa"
	"estudio/internal/forms"
	"estudio/internal/web"
)

type CausaLister interface {
	List(ctx context.Context) ([]causa.Causa, error)
}

type Handler struct {
	service   *Service
	causas    CausaLister
	render    *web.Renderer
	maxUpload int64
}

func NewHandler(service *Service, causas CausaLister, render *web.Renderer, maxUpload int64) *Handler {
	return &Handler{service: service, causas: causas, render: render, maxUpload: maxUpload}
}

type row struct {
	FormatoLegal
	CausaRol string
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	filter := Filter{
		Nombre:  strings.TrimSpace(q.Get("nombre")),
		Usuario: strings.TrimSpace(q.Get("usuario")),
	}
	// An unparsable causa filter is ignored rather than rejected.
	if id, err := forms.OptionalID(q.Get("causa_id")); err == nil {
		filter.CausaID = id
	}

	list, err := h.service.List(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list formatos", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}
	causas, err := h.causas.List(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list causas", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}

	roles := make(map[int64]string, len(causas))
	for _, c := range causas {
		roles[c.ID] = c.Rol()
	}
	rows := make([]row, len(list))
	for i, f := range list {
		rows[i] = row{FormatoLegal: f}
		if f.CausaID != nil {
			rows[i].CausaRol = roles[*f.CausaID]
		}
	}

	filterCausa := ""
	if filter.CausaID != nil {
		filterCausa = strconv.FormatInt(*filter.CausaID, 10)
	}
	h.render.HTML(w, r, http.StatusOK, "formatos", web.Page{
		Title: "Formatos legales",
		Data: map[string]any{
			"Formatos":      rows,
			"Causas":        causas,
			"FiltroNombre":  filter.Nombre,
			"FiltroUsuario": filter.Usuario,
			"FiltroCausa":   filterCausa,
		},
	})
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		slog.WarnContext(r.Context(), "failed to parse formato upload", "error", err)
		h.render.Redirect(w, r, "/formatos", web.Failure("Archivo y nombre de usuario son obligatorios."))
		return
	}

	causaID, err := forms.OptionalID(r.FormValue("causa_id"))
	if err != nil {
		h.render.Redirect(w, r, "/formatos", web.Failure("La causa seleccionada no es válida."))
		return
	}

	u := Upload{
		Usuario:       r.FormValue("usuario"),
		CausaID:       causaID,
		Observaciones: r.FormValue("observaciones"),
	}
	if files := r.MultipartForm.File["archivo"]; len(files) > 0 {
		u.File = files[0]
	}

	f, err := h.service.Upload(r.Context(), u)
	switch {
	case err == nil:
		slog.InfoContext(r.Context(), "formato uploaded", "id", f.ID, "file", f.Filename)
		h.render.Redirect(w, r, "/formatos", web.Success("Formato subido correctamente."))
	case errors.Is(err, ErrMissingFields):
		h.render.Redirect(w, r, "/formatos", web.Failure("Archivo y nombre de usuario son obligatorios."))
	case errors.Is(err, ErrUnsupportedType):
		h.render.Redirect(w, r, "/formatos", web.Failure("Formato inválido. Solo se permiten archivos PDF, DOCX, TXT, JPG, PNG."))
	default:
		slog.ErrorContext(r.Context(), "failed to upload formato", "error", err)
		h.render.Redirect(w, r, "/formatos", web.Failure("No se pudo guardar el formato."))
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.render.Redirect(w, r, "/formatos", web.Failure("Formato no encontrado."))
		return
	}

	err = h.service.Delete(r.Context(), id)
	switch {
	case err == nil:
		h.render.Redirect(w, r, "/formatos", web.Success("Formato eliminado correctamente."))
	case errors.Is(err, ErrNotFound):
		h.render.Redirect(w, r, "/formatos", web.Failure("Formato no encontrado."))
	default:
		slog.ErrorContext(r.Context(), "failed to delete formato", "id", id, "error", err)
		h.render.Redirect(w, r, "/formatos", web.Failure("No se pudo eliminar el formato."))
	}
}
