// Package server exposes the org chart over HTTP: the layout payload the
// frontend renders, settings management, reports, exports, and the
// refresh scheduler.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/dbauto/orgchart/pkg/config"
	"github.com/dbauto/orgchart/pkg/errors"
	"github.com/dbauto/orgchart/pkg/org"
	"github.com/dbauto/orgchart/pkg/pipeline"
	"github.com/dbauto/orgchart/pkg/report"
	"github.com/dbauto/orgchart/pkg/store"
)

// Server wires the pipeline, settings store, and scheduler behind the
// HTTP API. Handlers are stateless; all mutable state lives in the
// settings store and the snapshot store.
type Server struct {
	cfg      config.Config
	settings *config.SettingsStore
	runner   *pipeline.Runner
	sched    *Scheduler
	logger   *log.Logger
}

// New assembles a server. The scheduler is created but not started;
// call Run or Scheduler().Start.
func New(cfg config.Config, settings *config.SettingsStore, runner *pipeline.Runner, logger *log.Logger) *Server {
	s := &Server{cfg: cfg, settings: settings, runner: runner, logger: logger}
	s.sched = NewScheduler(s.refreshNow, logger.WithPrefix("scheduler"))
	return s
}

// Scheduler exposes the refresh scheduler, mostly for tests and the CLI.
func (s *Server) Scheduler() *Scheduler { return s.sched }

// Run starts the scheduler and serves until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if err := s.sched.Start(s.cfg.Refresh); err != nil {
		return err
	}
	defer s.sched.Stop()

	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.logger.Info("listening", "addr", s.cfg.Listen)

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(requestLogger(s.logger))
	r.Use(securityHeaders)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/employees", s.handleEmployees)
		r.Get("/settings", s.handleGetSettings)
		r.Post("/settings", s.handlePostSettings)
		r.Get("/metadata/options", s.handleMetadataOptions)
		r.Post("/set-top-user", s.handleSetTopUser)
		r.Post("/set-packing", s.handleSetPacking)
		r.Get("/search", s.handleSearch)
		r.Get("/employee/{id}", s.handleEmployee)
		r.Get("/photo/{id}", s.handlePhoto)
		r.Post("/update-now", s.handleUpdateNow)

		r.Get("/reports/{kind}", s.handleReport)
		r.Get("/reports/{kind}/export", s.handleReportExport)

		r.Get("/export/svg", s.handleExport(pipeline.FormatSVG, "image/svg+xml", "orgchart.svg"))
		r.Get("/export/png", s.handleExport(pipeline.FormatPNG, "image/png", "orgchart.png"))
		r.Get("/export/xlsx", s.handleExport(pipeline.FormatXLSX,
			"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "directory.xlsx"))
	})
	return r
}

func (s *Server) refreshNow(ctx context.Context) error {
	opts, err := s.pipelineOptions(false)
	if err != nil {
		return err
	}
	_, err = s.runner.Refresh(ctx, opts)
	return err
}

// pipelineOptions builds pipeline options from the persisted settings.
func (s *Server) pipelineOptions(full bool) (pipeline.Options, error) {
	settings, err := s.settings.Load()
	if err != nil {
		return pipeline.Options{}, err
	}
	return pipeline.Options{Settings: settings, Full: full}, nil
}

// ===== Handlers =====

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	running, lastRun, lastErr := s.sched.Status()
	payload := map[string]any{
		"status":         "ok",
		"refreshRunning": running,
	}
	if !lastRun.IsZero() {
		payload["lastRefresh"] = lastRun.UTC()
	}
	if lastErr != nil {
		payload["lastRefreshError"] = lastErr.Error()
	}
	if stamp, err := s.runner.Store.Stamp(r.Context()); err == nil {
		payload["snapshotAt"] = stamp
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleEmployees(w http.ResponseWriter, r *http.Request) {
	opts, err := s.pipelineOptions(r.URL.Query().Get("full") == "1")
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts.Formats = []string{pipeline.FormatJSON}

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"snapshotHash":%q,"fetchedAt":%q,"layout":`,
		res.SnapshotHash, res.Snapshot.FetchedAt.Format(time.RFC3339))
	_, _ = w.Write(res.Artifacts[pipeline.FormatJSON])
	fmt.Fprint(w, "}")
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Load()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePostSettings(w http.ResponseWriter, r *http.Request) {
	var settings config.ChartSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse settings"))
		return
	}
	if err := s.settings.Save(settings); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleMetadataOptions(w http.ResponseWriter, r *http.Request) {
	snap, err := s.runner.Store.Load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"departments": org.UniqueFieldValues(snap.Employees, func(e org.Employee) string { return e.Department }),
		"titles":      org.UniqueFieldValues(snap.Employees, func(e org.Employee) string { return e.Title }),
		"locations":   org.UniqueFieldValues(snap.Employees, func(e org.Employee) string { return e.Location }),
		"users":       org.OptionLabels(snap.Employees),
	})
}

func (s *Server) handleSetTopUser(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
		ID    string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse body"))
		return
	}

	settings, err := s.settings.Load()
	if err != nil {
		s.writeError(w, err)
		return
	}
	settings.TopUserEmail = body.Email
	settings.TopUserID = body.ID
	if err := s.settings.Save(settings); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSetPacking(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled   *bool `json:"enabled"`
		Threshold int   `json:"threshold"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse body"))
		return
	}

	settings, err := s.settings.Load()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if body.Enabled != nil {
		settings.Layout.PackingEnabled = *body.Enabled
	}
	if body.Threshold != 0 {
		settings.Layout.PackThreshold = body.Threshold
	}
	if err := s.settings.Save(settings); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		s.writeError(w, errors.New(errors.ErrCodeInvalidInput, "query parameter q is required"))
		return
	}
	snap, err := s.runner.Store.Load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, org.Search(snap.Tree, q))
}

func (s *Server) handleEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateEmployeeID(id); err != nil {
		s.writeError(w, err)
		return
	}
	snap, err := s.runner.Store.Load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	node := snap.Tree.Find(id)
	if node == nil {
		s.writeError(w, errors.New(errors.ErrCodeEmployeeNotFound, "no employee %q", id))
		return
	}

	reports := make([]org.Employee, 0, len(node.Children))
	for _, c := range node.Children {
		reports = append(reports, c.Employee)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"employee": node.Employee,
		"reports":  reports,
	})
}

// photoFetcher is the optional directory capability behind /api/photo.
// The fake fetchers used in tests and the CLI's cache-only mode do not
// implement it.
type photoFetcher interface {
	Photo(ctx context.Context, id string) ([]byte, error)
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := errors.ValidateEmployeeID(id); err != nil {
		s.writeError(w, err)
		return
	}
	pf, ok := s.runner.Fetcher.(photoFetcher)
	if !ok {
		s.writeError(w, errors.New(errors.ErrCodeNotFound, "no photo source configured"))
		return
	}
	photo, err := pf.Photo(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "private, max-age=86400")
	_, _ = w.Write(photo)
}

func (s *Server) handleUpdateNow(w http.ResponseWriter, r *http.Request) {
	job, started := s.sched.Trigger(context.WithoutCancel(r.Context()))
	status := http.StatusAccepted
	if !started {
		status = http.StatusConflict
	}
	s.writeJSON(w, status, map[string]any{"job": job, "started": started})
}

func (s *Server) buildReport(r *http.Request) (report.Report, *store.Snapshot, map[string]bool, error) {
	kind := report.Kind(chi.URLParam(r, "kind"))

	settings, err := s.settings.Load()
	if err != nil {
		return report.Report{}, nil, nil, err
	}
	snap, err := s.runner.Store.Load(r.Context())
	if err != nil {
		return report.Report{}, nil, nil, err
	}

	days := settings.RecentDays
	if kind == report.KindRecentlyHired {
		days = settings.NewHireDays
	}
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return report.Report{}, nil, nil, errors.New(errors.ErrCodeInvalidInput, "invalid days %q", v)
		}
		days = n
	}

	rep, err := report.NewBuilder(snap.Employees, snap.Tree).Build(kind, days)
	if err != nil {
		return report.Report{}, nil, nil, errors.Wrap(errors.ErrCodeNotFound, err, "unknown report")
	}
	return rep, snap, settings.Columns, nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, _, _, err := s.buildReport(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportExport(w http.ResponseWriter, r *http.Request) {
	rep, _, columns, err := s.buildReport(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data, err := report.WriteXLSX(rep, columns)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", string(rep.Kind)+".xlsx"))
	_, _ = w.Write(data)
}

func (s *Server) handleExport(format, contentType, filename string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := s.pipelineOptions(r.URL.Query().Get("full") == "1")
		if err != nil {
			s.writeError(w, err)
			return
		}
		opts.Formats = []string{format}
		opts.Title = r.URL.Query().Get("title")

		res, err := s.runner.Execute(r.Context(), opts)
		if err != nil {
			s.writeError(w, err)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		_, _ = w.Write(res.Artifacts[format])
	}
}

// ===== Response helpers =====

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusForCode(code)
	if status >= 500 {
		s.logger.Error("request failed", "code", code, "err", err)
	}
	s.writeJSON(w, status, map[string]any{
		"error": errors.UserMessage(err),
		"code":  code,
	})
}

func statusForCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidSettings,
		errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidTree:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeEmployeeNotFound, errors.ErrCodeSnapshotNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrCodeForbidden:
		return http.StatusForbidden
	case errors.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
