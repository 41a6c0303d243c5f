package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contacts-cli/internal/config"
	"github.com/sells-group/contacts-cli/internal/model"
	"github.com/sells-group/contacts-cli/internal/pipeline"
	"github.com/sells-group/contacts-cli/internal/schema"
	"github.com/sells-group/contacts-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server for starting and inspecting runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		mgr := newRunManager(ctx, st, cfg.Pipeline, cfg.Validate)
		err = startServer(ctx, buildRouter(mgr), resolvePort(servePort, cfg.Server.Port))
		mgr.wait()
		return err
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// resolvePort prefers the flag value over the configured port.
func resolvePort(flagPort, cfgPort int) int {
	if flagPort != 0 {
		return flagPort
	}
	return cfgPort
}

// startServer serves handler until ctx is done, then shuts down gracefully.
func startServer(ctx context.Context, handler http.Handler, port int) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	zap.L().Info("starting server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return eris.Wrap(err, "server listen")
	}
	return nil
}

// activeRun is a run executing in the background.
type activeRun struct {
	pipeline  *pipeline.Pipeline
	cancel    context.CancelFunc
	cancelled atomic.Bool

	mu      sync.Mutex
	percent int
	label   string
}

func (a *activeRun) setProgress(percent int, label string) {
	a.mu.Lock()
	a.percent, a.label = percent, label
	a.mu.Unlock()
}

func (a *activeRun) progress() *progressView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &progressView{Percent: a.percent, Label: a.label}
}

// runManager starts runs in the background and tracks the ones in flight.
type runManager struct {
	ctx      context.Context
	st       store.Store
	pc       config.PipelineConfig
	validate config.ValidateConfig

	mu     sync.Mutex
	active map[string]*activeRun
	wg     sync.WaitGroup
}

func newRunManager(ctx context.Context, st store.Store, pc config.PipelineConfig, vc config.ValidateConfig) *runManager {
	return &runManager{
		ctx:      ctx,
		st:       st,
		pc:       pc,
		validate: vc,
		active:   make(map[string]*activeRun),
	}
}

// start records the run and executes it in a goroutine bound to the server
// lifetime.
func (m *runManager) start(params pipeline.Params) (*model.Run, error) {
	run, err := beginRun(m.ctx, m.st, params)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(m.ctx)
	a := &activeRun{pipeline: newPipeline(m.pc), cancel: cancel}
	params.ShouldCancel = a.cancelled.Load
	params.OnProgress = a.setProgress

	m.mu.Lock()
	m.active[run.ID] = a
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer cancel()

		report, err := a.pipeline.Run(ctx, params)
		finishRun(ctx, m.st, run, report, err)

		m.mu.Lock()
		delete(m.active, run.ID)
		m.mu.Unlock()

		if err != nil {
			zap.L().Warn("server: run ended", zap.String("run_id", run.ID), zap.Error(err))
			return
		}
		zap.L().Info("server: run complete",
			zap.String("run_id", run.ID),
			zap.Int("contacts", report.Counts.DedupedContacts),
		)
	}()
	return run, nil
}

// cancel requests cooperative cancellation. It reports false when the run is
// not in flight.
func (m *runManager) cancel(id string) bool {
	m.mu.Lock()
	a, ok := m.active[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	a.cancelled.Store(true)
	a.cancel()
	return true
}

func (m *runManager) lookup(id string) (*activeRun, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.active[id]
	return a, ok
}

func (m *runManager) wait() {
	m.wg.Wait()
}

type progressView struct {
	Percent int    `json:"percent"`
	Label   string `json:"label"`
}

// runView is a stored run overlaid with live state while it executes.
type runView struct {
	*model.Run
	Progress *progressView `json:"progress,omitempty"`
}

type startRunRequest struct {
	CRMPath    string                `json:"crm_path"`
	GooglePath string                `json:"google_path"`
	OutDir     string                `json:"out_dir"`
	DryRun     bool                  `json:"dry_run"`
	Overrides  model.ColumnOverrides `json:"overrides"`
}

type validateRequest struct {
	CRMPath      string                `json:"crm_path"`
	GooglePath   string                `json:"google_path"`
	Overrides    model.ColumnOverrides `json:"overrides"`
	PreviewLimit int                   `json:"preview_limit"`
}

func buildRouter(m *runManager) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/runs", func(r chi.Router) {
		r.Post("/", m.handleStartRun)
		r.Get("/", m.handleListRuns)
		r.Get("/{id}", m.handleGetRun)
		r.Delete("/{id}", m.handleCancelRun)
	})
	r.Post("/validate", m.handleValidate)
	return r
}

func (m *runManager) handleStartRun(w http.ResponseWriter, r *http.Request) {
	var req startRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CRMPath == "" && req.GooglePath == "" {
		writeError(w, http.StatusBadRequest, "crm_path or google_path is required")
		return
	}
	if req.OutDir == "" {
		writeError(w, http.StatusBadRequest, "out_dir is required")
		return
	}
	overrides, err := resolveOverrides(req.Overrides, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := m.start(pipeline.Params{
		CRMPath:    req.CRMPath,
		GooglePath: req.GooglePath,
		OutDir:     req.OutDir,
		DryRun:     req.DryRun,
		Overrides:  overrides,
	})
	if err != nil {
		zap.L().Error("server: start run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not start run")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"id":     run.ID,
		"status": "accepted",
	})
}

func (m *runManager) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	run, err := m.st.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	view := runView{Run: run}
	if a, ok := m.lookup(id); ok {
		if status := a.pipeline.Status(); !status.Terminal() && status != model.RunStatusIdle {
			view.Run.Status = status
		}
		view.Progress = a.progress()
	}
	writeJSON(w, http.StatusOK, view)
}

func (m *runManager) handleCancelRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if m.cancel(id) {
		writeJSON(w, http.StatusAccepted, map[string]string{"id": id, "status": "cancelling"})
		return
	}
	if _, err := m.st.GetRun(r.Context(), id); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	writeError(w, http.StatusConflict, "run is not in progress")
}

func (m *runManager) handleListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{Status: model.RunStatus(q.Get("status"))}
	var err error
	if v := q.Get("limit"); v != "" {
		if filter.Limit, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if filter.Offset, err = strconv.Atoi(v); err != nil {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
	}

	runs, err := m.st.ListRuns(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (m *runManager) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	overrides, err := resolveOverrides(req.Overrides, "")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	previewLimit := m.validate.PreviewLimit
	if req.PreviewLimit > 0 {
		previewLimit = req.PreviewLimit
	}

	v, err := newPipeline(m.pc).Validate(r.Context(), pipeline.ValidateParams{
		CRMPath:            req.CRMPath,
		GooglePath:         req.GooglePath,
		Overrides:          overrides,
		PreviewLimit:       previewLimit,
		FastScanLimitBytes: m.validate.FastScanLimitBytes,
	})
	var cfgErr *schema.ConfigError
	switch {
	case errors.As(err, &cfgErr):
		writeError(w, http.StatusBadRequest, cfgErr.Error())
	case err != nil:
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeJSON(w, http.StatusOK, v)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
