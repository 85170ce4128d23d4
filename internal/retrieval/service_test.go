package retrieval_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"estudio/internal/retrieval"
	"estudio/internal/settings"
	"estudio/internal/text"
)

type MockEmbedder struct{ mock.Mock }

func (m *MockEmbedder) Embed(ctx context.Context, input string) (retrieval.Vector, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(retrieval.Vector), args.Error(1)
}

type MockCompleter struct{ mock.Mock }

func (m *MockCompleter) Complete(ctx context.Context, msgs []retrieval.Message) (string, error) {
	args := m.Called(ctx, msgs)
	return args.String(0), args.Error(1)
}

type MockSettings struct{ mock.Mock }

func (m *MockSettings) Get(ctx context.Context) (*settings.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.Settings), args.Error(1)
}

type wordTokenizer struct{}

func (wordTokenizer) Count(s string) int { return len(strings.Fields(s)) }

const contract = "Plazo de pago: 30 días. Multa por atraso: 10% mensual."

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func sentences(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("Frase%d cláusula.", i)
	}
	return strings.Join(parts, " ")
}

func TestService_Ask_Contract(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "contract.txt", contract)
	question := "¿Cuál es el plazo de pago?"

	e := new(MockEmbedder)
	c := new(MockCompleter)
	e.On("Embed", mock.Anything, contract).Return(retrieval.Vector{1, 0, 0}, nil).Once()
	e.On("Embed", mock.Anything, question).Return(retrieval.Vector{0.9, 0.1, 0}, nil).Once()
	c.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []retrieval.Message) bool {
		return len(msgs) == 2 &&
			msgs[0].Role == retrieval.RoleSystem &&
			msgs[1].Role == retrieval.RoleUser &&
			strings.Contains(msgs[1].Content, contract) &&
			strings.Contains(msgs[1].Content, question)
	})).Return("El plazo de pago es de 30 días.", nil).Once()

	var buf bytes.Buffer
	svc := retrieval.NewService(e, c, text.NewExtractor(false), nil, retrieval.NewQueryLogger(&buf), retrieval.Options{})

	ans, err := svc.Ask(context.Background(), dir, question)
	require.NoError(t, err)
	assert.Equal(t, "El plazo de pago es de 30 días.", ans.Text)
	assert.Equal(t, "contract.txt", ans.Document)
	assert.Equal(t, contract, ans.ChunkText)
	assert.Equal(t, 0, ans.ChunkIndex)
	assert.Equal(t, 1, ans.ChunksTotal)
	assert.Empty(t, ans.Warnings)
	e.AssertExpectations(t)
	c.AssertExpectations(t)

	var entry retrieval.QueryLogEntry
	require.NoError(t, json.NewDecoder(&buf).Decode(&entry))
	assert.Equal(t, "contract.txt", entry.Document)
	assert.Equal(t, question, entry.Question)
	assert.Equal(t, 0, entry.ChunkIndex)
	assert.Empty(t, entry.Error)
}

func TestService_Ask_Failures(t *testing.T) {
	tests := []struct {
		name      string
		files     map[string]string
		setup     func(*MockEmbedder, *MockCompleter)
		wantErr   error
		embeds    int
		completes int
	}{
		{
			name:    "Empty Directory",
			wantErr: retrieval.ErrNoDocumentAvailable,
		},
		{
			name:    "Only Unsupported Files",
			files:   map[string]string{"notas.md": "hola", "foto.png": "x"},
			wantErr: retrieval.ErrNoDocumentAvailable,
		},
		{
			name:    "Blank Document",
			files:   map[string]string{"vacio.txt": "   \n "},
			wantErr: retrieval.ErrEmptyDocument,
		},
		{
			name:  "Embedding Fails",
			files: map[string]string{"contract.txt": contract},
			setup: func(e *MockEmbedder, c *MockCompleter) {
				e.On("Embed", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused"))
			},
			wantErr: retrieval.ErrEmbeddingService,
			embeds:  1,
		},
		{
			name:  "Completion Fails",
			files: map[string]string{"contract.txt": contract},
			setup: func(e *MockEmbedder, c *MockCompleter) {
				e.On("Embed", mock.Anything, mock.Anything).Return(retrieval.Vector{1, 1}, nil)
				c.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("503"))
			},
			wantErr:   retrieval.ErrCompletionService,
			embeds:    2,
			completes: 1,
		},
		{
			name:  "Zero Question Vector",
			files: map[string]string{"contract.txt": contract},
			setup: func(e *MockEmbedder, c *MockCompleter) {
				e.On("Embed", mock.Anything, contract).Return(retrieval.Vector{1, 1}, nil)
				e.On("Embed", mock.Anything, mock.Anything).Return(retrieval.Vector{0, 0}, nil)
			},
			wantErr: retrieval.ErrDegenerateVector,
			embeds:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeDoc(t, dir, name, content)
			}
			e := new(MockEmbedder)
			c := new(MockCompleter)
			if tt.setup != nil {
				tt.setup(e, c)
			}

			svc := retrieval.NewService(e, c, nil, nil, nil, retrieval.Options{})
			ans, err := svc.Ask(context.Background(), dir, "¿Plazo?")

			assert.Nil(t, ans)
			assert.ErrorIs(t, err, tt.wantErr)
			e.AssertNumberOfCalls(t, "Embed", tt.embeds)
			c.AssertNumberOfCalls(t, "Complete", tt.completes)
		})
	}
}

func TestService_Ask_MissingDirectory(t *testing.T) {
	e := new(MockEmbedder)
	c := new(MockCompleter)
	svc := retrieval.NewService(e, c, nil, nil, nil, retrieval.Options{})

	_, err := svc.Ask(context.Background(), filepath.Join(t.TempDir(), "nope"), "¿Plazo?")
	assert.ErrorIs(t, err, retrieval.ErrNoDocumentAvailable)
	e.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestService_Ask_EmptyQuestion(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "contract.txt", contract)
	e := new(MockEmbedder)
	svc := retrieval.NewService(e, new(MockCompleter), nil, nil, nil, retrieval.Options{})

	_, err := svc.Ask(context.Background(), dir, "  ")
	assert.ErrorIs(t, err, retrieval.ErrEmptyQuestion)
	e.AssertNotCalled(t, "Embed", mock.Anything, mock.Anything)
}

func TestService_Ask_ChunkCap(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "largo.txt", sentences(45))

	e := new(MockEmbedder)
	c := new(MockCompleter)
	e.On("Embed", mock.Anything, mock.Anything).Return(retrieval.Vector{1, 0}, nil)
	c.On("Complete", mock.Anything, mock.Anything).Return("respuesta", nil)

	svc := retrieval.NewService(e, c, nil, nil, nil, retrieval.Options{
		MaxTokens: 2,
		MaxChunks: 30,
		Tokenizer: wordTokenizer{},
	})
	ans, err := svc.Ask(context.Background(), dir, "¿Qué dice?")
	require.NoError(t, err)

	// 30 chunks plus the question.
	e.AssertNumberOfCalls(t, "Embed", 31)
	e.AssertNotCalled(t, "Embed", mock.Anything, "Frase30 cláusula.")
	assert.Equal(t, 45, ans.ChunksTotal)
	assert.Equal(t, 30, ans.ChunksEmbedded)
	assert.Equal(t, 0, ans.ChunkIndex)
	require.Len(t, ans.Warnings, 1)
	assert.Contains(t, ans.Warnings[0], "30 de 45")
}

func TestService_Ask_SettingsOverride(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "largo.txt", sentences(45))

	e := new(MockEmbedder)
	c := new(MockCompleter)
	set := new(MockSettings)
	set.On("Get", mock.Anything).Return(&settings.Settings{ChunkMaxTokens: 2, ChunkCap: 5}, nil)
	e.On("Embed", mock.Anything, mock.Anything).Return(retrieval.Vector{1, 0}, nil)
	c.On("Complete", mock.Anything, mock.Anything).Return("respuesta", nil)

	svc := retrieval.NewService(e, c, nil, set, nil, retrieval.Options{Tokenizer: wordTokenizer{}})
	ans, err := svc.Ask(context.Background(), dir, "¿Qué dice?")
	require.NoError(t, err)

	e.AssertNumberOfCalls(t, "Embed", 6)
	assert.Equal(t, 5, ans.ChunksEmbedded)
}

func TestService_Ask_SettingsErrorFallsBack(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "contract.txt", contract)

	e := new(MockEmbedder)
	c := new(MockCompleter)
	set := new(MockSettings)
	set.On("Get", mock.Anything).Return(nil, errors.New("db down"))
	e.On("Embed", mock.Anything, mock.Anything).Return(retrieval.Vector{1, 0}, nil)
	c.On("Complete", mock.Anything, mock.Anything).Return("respuesta", nil)

	svc := retrieval.NewService(e, c, nil, set, nil, retrieval.Options{})
	ans, err := svc.Ask(context.Background(), dir, "¿Plazo?")
	require.NoError(t, err)
	assert.Equal(t, 1, ans.ChunksTotal)
}

func TestService_Ask_CallsCarryDeadline(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "contract.txt", contract)

	hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	})
	e := new(MockEmbedder)
	c := new(MockCompleter)
	e.On("Embed", hasDeadline, mock.Anything).Return(retrieval.Vector{1, 0}, nil)
	c.On("Complete", hasDeadline, mock.Anything).Return("respuesta", nil)

	svc := retrieval.NewService(e, c, nil, nil, nil, retrieval.Options{})
	_, err := svc.Ask(context.Background(), dir, "¿Plazo?")
	require.NoError(t, err)
	e.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestService_Ask_PicksBestChunk(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "contrato.txt", "Las partes son dos. El plazo es 30 días. La multa es 10%.")

	e := new(MockEmbedder)
	c := new(MockCompleter)
	e.On("Embed", mock.Anything, "Las partes son dos.").Return(retrieval.Vector{1, 0, 0}, nil)
	e.On("Embed", mock.Anything, "El plazo es 30 días.").Return(retrieval.Vector{0, 1, 0}, nil)
	e.On("Embed", mock.Anything, "La multa es 10%.").Return(retrieval.Vector{0, 0, 1}, nil)
	e.On("Embed", mock.Anything, "¿Plazo?").Return(retrieval.Vector{0.1, 0.9, 0.1}, nil)
	c.On("Complete", mock.Anything, retrieval.BuildPrompt("El plazo es 30 días.", "¿Plazo?")).Return("30 días", nil)

	svc := retrieval.NewService(e, c, nil, nil, nil, retrieval.Options{MaxTokens: 5, Tokenizer: wordTokenizer{}})
	ans, err := svc.Ask(context.Background(), dir, "¿Plazo?")
	require.NoError(t, err)
	assert.Equal(t, 1, ans.ChunkIndex)
	assert.Equal(t, "30 días", ans.Text)
	c.AssertExpectations(t)
}
