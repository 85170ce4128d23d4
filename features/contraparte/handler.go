package contraparte

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"estudio/internal/forms"
	"estudio/internal/web"
)

type Handler struct {
	service *Service
	render  *web.Renderer
}

func NewHandler(service *Service, render *web.Renderer) *Handler {
	return &Handler{service: service, render: render}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list contrapartes", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "contrapartes", web.Page{
		Title: "Contrapartes",
		Data:  map[string]any{"Contrapartes": list},
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Redirect(w, r, "/contrapartes", web.Failure("No se pudo leer el formulario."))
		return
	}

	c := &Contraparte{
		Nombre:   strings.TrimSpace(r.PostFormValue("nombre")),
		RutNum:   r.PostFormValue("rut_num"),
		RutDV:    r.PostFormValue("rut_dv"),
		Abogado:  strings.TrimSpace(r.PostFormValue("abogado")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Telefono: strings.TrimSpace(r.PostFormValue("telefono")),
	}

	err := h.service.Register(r.Context(), c)
	var verr *forms.ValidationError
	switch {
	case err == nil:
		h.render.Redirect(w, r, "/contrapartes", web.Success("Contraparte registrada correctamente."))
	case errors.As(err, &verr):
		h.render.Redirect(w, r, "/contrapartes", web.Failure("Revisa los campos: "+strings.Join(verr.Fields, ", ")+"."))
	case errors.Is(err, ErrInvalidRUT):
		h.render.Redirect(w, r, "/contrapartes", web.Failure("El RUT ingresado no es válido."))
	default:
		slog.ErrorContext(r.Context(), "failed to register contraparte", "error", err)
		h.render.Redirect(w, r, "/contrapartes", web.Failure("No se pudo registrar la contraparte."))
	}
}
