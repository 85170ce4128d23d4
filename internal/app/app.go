package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"estudio/features/causa"
	"estudio/features/cliente"
	"estudio/features/contraparte"
	"estudio/features/dashboard"
	"estudio/features/facturacion"
	"estudio/features/formato"
	"estudio/features/ia"
	"estudio/internal/adapter/llm"
	"estudio/internal/config"
	"estudio/internal/middleware"
	"estudio/internal/retrieval"
	"estudio/internal/settings"
	"estudio/internal/storage"
	"estudio/internal/text"
	"estudio/internal/web"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Handler  http.Handler
	Settings *settings.Service
	port     int
}

// Options carry the collaborators main chooses at runtime.
type Options struct {
	Tokenizer text.Tokenizer
	LLM       llm.Options
	// QueryLog overrides the file named by QUERY_LOG_PATH.
	QueryLog io.Writer
}

func New(ctx context.Context, cfg *config.Config, db *sql.DB, opts Options) (*App, error) {
	render, err := web.NewRenderer(cfg.SessionSecret)
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	maxUpload := cfg.MaxUploadSizeMB << 20

	iaDir, err := storage.NewDir(cfg.IADir())
	if err != nil {
		return nil, err
	}
	formatosDir, err := storage.NewDir(cfg.FormatosDir())
	if err != nil {
		return nil, err
	}
	documentosDir, err := storage.NewDir(cfg.DocumentosDir())
	if err != nil {
		return nil, err
	}

	// Feature: Settings
	settingsService := settings.NewService(settings.NewPostgresRepo(db))
	if err := settingsService.Seed(ctx, SettingsDefaults(cfg)); err != nil {
		slog.WarnContext(ctx, "failed to seed settings from environment", "error", err)
	}
	settingsHandler := settings.NewHandler(settingsService)

	// Feature: Clientes & Contrapartes
	clienteService := cliente.NewService(cliente.NewPostgresRepo(db))
	clienteHandler := cliente.NewHandler(clienteService, render)
	contraparteService := contraparte.NewService(contraparte.NewPostgresRepo(db))
	contraparteHandler := contraparte.NewHandler(contraparteService, render)

	// Feature: Causas
	causaService := causa.NewService(causa.NewPostgresRepo(db), documentosDir)
	causaHandler := causa.NewHandler(causaService, clienteService, contraparteService, render, maxUpload)

	// Feature: Formatos
	formatoService := formato.NewService(formato.NewPostgresRepo(db), formatosDir)
	formatoHandler := formato.NewHandler(formatoService, causaService, render, maxUpload)

	// Feature: Facturación
	facturacionService := facturacion.NewService(facturacion.NewPostgresRepo(db))
	facturacionHandler := facturacion.NewHandler(facturacionService, clienteService, causaService, render)

	// Feature: Dashboard
	dashboardHandler := dashboard.NewHandler(dashboard.NewService(dashboard.NewPostgresRepo(db)), render)

	// Feature: Retrieval
	queryLog := opts.QueryLog
	var queryLogger *retrieval.QueryLogger
	if queryLog != nil {
		queryLogger = retrieval.NewQueryLogger(queryLog)
	} else if queryLogger, err = retrieval.NewFileQueryLogger(cfg.QueryLogPath); err != nil {
		slog.WarnContext(ctx, "failed to create query logger, falling back to stdout", "error", err)
		queryLogger = retrieval.NewQueryLogger(os.Stdout)
	}

	provider := llm.NewProvider(settingsService, opts.LLM)
	retrievalService := retrieval.NewService(provider, provider, text.NewExtractor(cfg.StrictExtraction), settingsService, queryLogger, retrieval.Options{
		MaxTokens:   cfg.ChunkMaxTokens,
		MaxChunks:   cfg.ChunkCap,
		CallTimeout: time.Duration(cfg.LLMTimeoutSeconds) * time.Second,
		Tokenizer:   opts.Tokenizer,
	})
	iaHandler := ia.NewHandler(ia.NewService(iaDir, retrievalService), render, maxUpload)

	// Routes
	mux := http.NewServeMux()

	mux.Handle("GET /{$}", http.RedirectHandler("/dashboard", http.StatusFound))
	mux.HandleFunc("GET /dashboard", dashboardHandler.Dashboard)
	mux.HandleFunc("GET /api/stats", dashboardHandler.GetStats)
	mux.HandleFunc("GET /login", dashboardHandler.Login)
	mux.HandleFunc("GET /logout", dashboardHandler.Logout)

	mux.HandleFunc("GET /clientes", clienteHandler.List)
	mux.HandleFunc("POST /registrar_cliente", clienteHandler.Register)
	mux.HandleFunc("GET /contrapartes", contraparteHandler.List)
	mux.HandleFunc("POST /registrar_contraparte", contraparteHandler.Register)

	mux.HandleFunc("GET /causas", causaHandler.List)
	mux.HandleFunc("POST /causas", causaHandler.Create)
	mux.HandleFunc("GET /causas/{id}/documentos", causaHandler.Documentos)

	mux.HandleFunc("GET /formatos", formatoHandler.List)
	mux.HandleFunc("POST /subir_formato", formatoHandler.Upload)
	mux.HandleFunc("POST /formatos/eliminar/{id}", formatoHandler.Delete)

	mux.HandleFunc("GET /facturacion", facturacionHandler.Index)
	mux.HandleFunc("GET /registrar_honorario", facturacionHandler.NuevoHonorario)
	mux.HandleFunc("POST /registrar_honorario", facturacionHandler.RegistrarHonorario)
	mux.HandleFunc("GET /registrar_pago/{honorario_id}", facturacionHandler.NuevoPago)
	mux.HandleFunc("POST /registrar_pago/{honorario_id}", facturacionHandler.RegistrarPago)
	mux.HandleFunc("GET /registrar_gasto", facturacionHandler.NuevoGasto)
	mux.HandleFunc("POST /registrar_gasto", facturacionHandler.RegistrarGasto)
	mux.HandleFunc("GET /servicio", facturacionHandler.Servicio)
	mux.HandleFunc("GET /exportar_facturacion", facturacionHandler.Export)

	mux.HandleFunc("GET /ia", iaHandler.Index)
	mux.HandleFunc("POST /subir_ia", iaHandler.Upload)
	mux.HandleFunc("POST /eliminar_ia/{nombre}", iaHandler.Delete)
	mux.HandleFunc("POST /preguntar_ia", iaHandler.Ask)

	mux.HandleFunc("GET /settings", settingsHandler.GetSettings)
	mux.HandleFunc("PUT /settings", settingsHandler.UpdateSettings)

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	onPanic := func(w http.ResponseWriter, r *http.Request) { render.Error(w, r, http.StatusInternalServerError) }
	handler := middleware.Chain(mux, middleware.CorrelationID, middleware.Recover(onPanic))

	return &App{
		Handler:  handler,
		Settings: settingsService,
		port:     cfg.ServerPort,
	}, nil
}

// SettingsDefaults maps the environment onto the runtime settings row,
// picking the model names of the configured provider.
func SettingsDefaults(cfg *config.Config) settings.Settings {
	s := settings.Settings{
		Provider:        cfg.LLMProvider,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		EmbeddingModel:  cfg.EmbeddingModel,
		CompletionModel: cfg.CompletionModel,
		ChunkMaxTokens:  cfg.ChunkMaxTokens,
		ChunkCap:        cfg.ChunkCap,
	}
	if cfg.LLMProvider == config.ProviderGemini {
		s.EmbeddingModel = cfg.GeminiEmbeddingModel
		s.CompletionModel = cfg.GeminiCompletionModel
	}
	return s
}

func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.port),
		Handler:           a.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown failed", "error", err)
		}
	}()

	slog.Info("server starting", "port", a.port)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
