package ia_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estudio/features/ia"
	"estudio/internal/retrieval"
	"estudio/internal/storage"
	"estudio/internal/web/webtest"
)

type MockAsker struct{ mock.Mock }

func (m *MockAsker) Ask(ctx context.Context, dir, question string) (*retrieval.Answer, error) {
	args := m.Called(ctx, dir, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*retrieval.Answer), args.Error(1)
}

func setup(t *testing.T) (*ia.Handler, *MockAsker, string) {
	t.Helper()
	root := t.TempDir()
	dir, err := storage.NewDir(root)
	require.NoError(t, err)
	asker := new(MockAsker)
	return ia.NewHandler(ia.NewService(dir, asker), webtest.Renderer(t), 10<<20), asker, root
}

func TestHandler_Ask(t *testing.T) {
	t.Run("Renders Answer", func(t *testing.T) {
		h, asker, root := setup(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, "contract.txt"), []byte("Plazo de pago: 30 días."), 0o600))
		asker.On("Ask", mock.Anything, root, "¿Cuál es el plazo de pago?").Return(&retrieval.Answer{
			Text:        "El plazo de pago es de 30 días.",
			Document:    "contract.txt",
			ChunkText:   "Plazo de pago: 30 días.",
			Score:       0.98,
			ChunksTotal: 1,
			Warnings:    []string{"Solo se consideraron los primeros 30 de 45 fragmentos del documento."},
		}, nil)

		rec := httptest.NewRecorder()
		h.Ask(rec, webtest.PostForm("/preguntar_ia", url.Values{"pregunta": {"¿Cuál es el plazo de pago?"}}))

		body := rec.Body.String()
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, body, "El plazo de pago es de 30 días.")
		assert.Contains(t, body, "contract.txt")
		assert.Contains(t, body, "Solo se consideraron los primeros 30 de 45 fragmentos")
		asker.AssertExpectations(t)
	})

	t.Run("Accepts Question Field", func(t *testing.T) {
		h, asker, root := setup(t)
		asker.On("Ask", mock.Anything, root, "plazo").Return(&retrieval.Answer{Text: "30 días"}, nil)

		rec := httptest.NewRecorder()
		h.Ask(rec, webtest.PostForm("/preguntar_ia", url.Values{"question": {"plazo"}}))

		assert.Equal(t, http.StatusOK, rec.Code)
		asker.AssertExpectations(t)
	})

	failures := []struct {
		name string
		err  error
		want string
	}{
		{"No Document", retrieval.ErrNoDocumentAvailable, "No hay archivos para consultar."},
		{"Empty Document", retrieval.ErrEmptyDocument, "El documento más reciente no contiene texto legible."},
		{"Empty Question", retrieval.ErrEmptyQuestion, "Escribe una pregunta."},
		{"Embedding Failure", retrieval.ErrEmbeddingService, "Error al procesar la pregunta. Intenta nuevamente más tarde."},
		{"Completion Failure", retrieval.ErrCompletionService, "Error al procesar la pregunta. Intenta nuevamente más tarde."},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			h, asker, _ := setup(t)
			asker.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return(nil, tt.err)

			rec := httptest.NewRecorder()
			h.Ask(rec, webtest.PostForm("/preguntar_ia", url.Values{"pregunta": {"¿plazo?"}}))

			assert.Equal(t, http.StatusSeeOther, rec.Code)
			assert.Equal(t, "/ia", rec.Header().Get("Location"))
			assert.Equal(t, tt.want, webtest.FlashMessage(t, rec))
		})
	}
}

func TestHandler_Upload(t *testing.T) {
	tests := []struct {
		name     string
		file     webtest.File
		want     string
		wantFile string
	}{
		{"Text", webtest.File{Field: "archivo", Name: "Contrato arriendo.txt", Content: "Plazo."}, "Archivo IA subido exitosamente.", "Contrato_arriendo.txt"},
		{"Non-ASCII Name", webtest.File{Field: "archivo", Name: "合同.pdf", Content: "%PDF-1.4"}, "Archivo IA subido exitosamente.", "archivo.pdf"},
		{"Unsupported", webtest.File{Field: "archivo", Name: "foto.png", Content: "x"}, "Solo se pueden consultar archivos PDF, DOCX o TXT.", ""},
		{"Wrong Field", webtest.File{Field: "otro", Name: "a.txt", Content: "x"}, "Selecciona un archivo para subir.", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, root := setup(t)

			rec := httptest.NewRecorder()
			h.Upload(rec, webtest.PostMultipart(t, "/subir_ia", nil, tt.file))

			assert.Equal(t, tt.want, webtest.FlashMessage(t, rec))
			if tt.wantFile != "" {
				assert.FileExists(t, filepath.Join(root, tt.wantFile))
				latest, err := retrieval.LatestDocument(root)
				require.NoError(t, err)
				assert.Equal(t, filepath.Join(root, tt.wantFile), latest)
			} else {
				entries, err := os.ReadDir(root)
				require.NoError(t, err)
				assert.Empty(t, entries)
			}
		})
	}
}

func TestHandler_Delete(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"Existing", "contract.txt", "Archivo IA eliminado correctamente."},
		{"Missing", "otro.txt", "El archivo no existe."},
		{"Traversal", "..", "El archivo no existe."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _, root := setup(t)
			require.NoError(t, os.WriteFile(filepath.Join(root, "contract.txt"), []byte("x"), 0o600))

			req := httptest.NewRequest(http.MethodPost, "/eliminar_ia/x", nil)
			req.SetPathValue("nombre", tt.file)
			rec := httptest.NewRecorder()
			h.Delete(rec, req)

			assert.Equal(t, tt.want, webtest.FlashMessage(t, rec))
		})
	}
}

func TestHandler_Index(t *testing.T) {
	h, _, root := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, storage.KeepFile), nil, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(root, "contract.txt"), []byte("x"), 0o600))

	rec := httptest.NewRecorder()
	h.Index(rec, httptest.NewRequest(http.MethodGet, "/ia", nil))

	body := rec.Body.String()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "contract.txt")
	assert.NotContains(t, body, storage.KeepFile)
}
