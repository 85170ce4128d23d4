package ia

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"estudio/internal/retrieval"
	"estudio/internal/storage"
	"estudio/internal/web"
)

type Handler struct {
	service   *Service
	render    *web.Renderer
	maxUpload int64
}

func NewHandler(service *Service, render *web.Renderer, maxUpload int64) *Handler {
	return &Handler{service: service, render: render, maxUpload: maxUpload}
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.page(w, r, nil, "")
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		slog.WarnContext(r.Context(), "failed to parse ia upload", "error", err)
		h.render.Redirect(w, r, "/ia", web.Failure("Selecciona un archivo para subir."))
		return
	}

	name, err := h.service.Upload(firstFile(r))
	switch {
	case err == nil:
		slog.InfoContext(r.Context(), "ia document uploaded", "file", name)
		h.render.Redirect(w, r, "/ia", web.Success("Archivo IA subido exitosamente."))
	case errors.Is(err, ErrMissingFile):
		h.render.Redirect(w, r, "/ia", web.Failure("Selecciona un archivo para subir."))
	case errors.Is(err, ErrUnsupportedType):
		h.render.Redirect(w, r, "/ia", web.Failure("Solo se pueden consultar archivos PDF, DOCX o TXT."))
	default:
		slog.ErrorContext(r.Context(), "failed to store ia document", "error", err)
		h.render.Redirect(w, r, "/ia", web.Failure("No se pudo guardar el archivo."))
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("nombre")
	err := h.service.Delete(name)
	switch {
	case err == nil:
		slog.InfoContext(r.Context(), "ia document deleted", "file", name)
		h.render.Redirect(w, r, "/ia", web.Success("Archivo IA eliminado correctamente."))
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidName):
		h.render.Redirect(w, r, "/ia", web.Failure("El archivo no existe."))
	default:
		slog.ErrorContext(r.Context(), "failed to delete ia document", "file", name, "error", err)
		h.render.Redirect(w, r, "/ia", web.Failure("No se pudo eliminar el archivo."))
	}
}

// Ask accepts the question as "pregunta" or "question".
func (h *Handler) Ask(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render.Redirect(w, r, "/ia", web.Failure("No se pudo leer el formulario."))
		return
	}
	question := r.PostFormValue("pregunta")
	if strings.TrimSpace(question) == "" {
		question = r.PostFormValue("question")
	}

	answer, err := h.service.Ask(r.Context(), question)
	if err != nil {
		h.render.Redirect(w, r, "/ia", web.Failure(askFailure(r, err)))
		return
	}
	h.page(w, r, answer, question)
}

func askFailure(r *http.Request, err error) string {
	switch {
	case errors.Is(err, retrieval.ErrNoDocumentAvailable):
		return "No hay archivos para consultar."
	case errors.Is(err, retrieval.ErrEmptyDocument):
		return "El documento más reciente no contiene texto legible."
	case errors.Is(err, retrieval.ErrEmptyQuestion):
		return "Escribe una pregunta."
	}
	slog.ErrorContext(r.Context(), "failed to answer question", "error", err)
	return "Error al procesar la pregunta. Intenta nuevamente más tarde."
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, answer *retrieval.Answer, question string) {
	docs, err := h.service.Documents()
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list ia documents", "error", err)
		h.render.Error(w, r, http.StatusInternalServerError)
		return
	}

	var flashes []web.Flash
	if answer != nil {
		for _, warn := range answer.Warnings {
			flashes = append(flashes, web.Info(warn))
		}
	}
	h.render.HTML(w, r, http.StatusOK, "ia", web.Page{
		Title:   "Asistente IA",
		Flashes: flashes,
		Data: map[string]any{
			"Archivos":  docs,
			"Respuesta": answer,
			"Pregunta":  question,
		},
	})
}

func firstFile(r *http.Request) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	if files := r.MultipartForm.File["archivo"]; len(files) > 0 {
		return files[0]
	}
	return nil
}
