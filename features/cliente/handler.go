package cliente

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
	clientes, err := h.service.List(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list clientes", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "clientes", web.Page{
		Title: "Clientes",
		Data:  map[string]any{"Clientes": clientes},
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Redirect(w, r, "/clientes", web.Failure("No se pudo leer el formulario."))
		return
	}

	nacimiento, err := forms.OptionalDate(r.PostFormValue("fecha_nacimiento"))
	if err != nil {
		h.render.Redirect(w, r, "/clientes", web.Failure("La fecha de nacimiento no es válida."))
		return
	}

	c := &Cliente{
		Nombre:          strings.TrimSpace(r.PostFormValue("nombre")),
		RutNum:          r.PostFormValue("rut_num"),
		RutDV:           r.PostFormValue("rut_dv"),
		Email:           strings.TrimSpace(r.PostFormValue("email")),
		Telefono:        strings.TrimSpace(r.PostFormValue("telefono")),
		Direccion:       strings.TrimSpace(r.PostFormValue("direccion")),
		Profesion:       strings.TrimSpace(r.PostFormValue("profesion")),
		FechaNacimiento: nacimiento,
	}

	err = h.service.Register(r.Context(), c)
	var verr *forms.ValidationError
	switch {
	case err == nil:
		slog.InfoContext(r.Context(), "cliente registered", "id", c.ID)
		h.render.Redirect(w, r, "/clientes", web.Success("Cliente registrado correctamente."))
	case errors.As(err, &verr):
		h.render.Redirect(w, r, "/clientes", web.Failure("Revisa los campos: "+strings.Join(verr.Fields, ", ")+"."))
	case errors.Is(err, ErrInvalidRUT):
		h.render.Redirect(w, r, "/clientes", web.Failure("El RUT ingresado no es válido."))
	case errors.Is(err, ErrDuplicateRUT):
		h.render.Redirect(w, r, "/clientes", web.Failure("Ya existe un cliente con ese RUT."))
	default:
		slog.ErrorContext(r.Context(), "failed to register cliente", "error", err)
		h.render.Redirect(w, r, "/clientes", web.Failure("No se pudo registrar el cliente."))
	}
}
