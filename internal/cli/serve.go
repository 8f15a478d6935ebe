package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/lanegraph/lanegraph/pkg/dataset"
	"github.com/lanegraph/lanegraph/pkg/discovery"
	apperrors "github.com/lanegraph/lanegraph/pkg/errors"
	"github.com/lanegraph/lanegraph/pkg/render"
	"github.com/lanegraph/lanegraph/pkg/runner"
	"github.com/lanegraph/lanegraph/pkg/store"
)

// serveCommand creates the "serve" command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve <dataset.toml>",
		Short: "Expose discovery and optimization over HTTP",
		Long: `Serve starts an HTTP API bound to the given dataset file. The dataset is
re-read on every discovery or optimization trigger, so edits to the file
take effect without a restart. The current year is fixed when the server
starts.

Routes:
  GET  /healthz                 liveness probe
  POST /discover                run a discovery pass
  POST /optimize                optimize pending families (body: {"hashes": [...]})
  GET  /families                list cache rows
  GET  /families/{hash}         one cache row
  GET  /families/{hash}/status  lifecycle state of one family
  GET  /families/{hash}/svg     render the optimized layout`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			_, datasetYear, err := dataset.Load(args[0])
			if err != nil {
				return err
			}

			st, err := newStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			api := newAPIServer(args[0], cfg, st, c.Logger, cfg.effectiveYear(datasetYear))

			srv := &http.Server{
				Addr:              addr,
				Handler:           api.routes(),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe() }()
			c.Logger.Info("listening", "addr", addr, "dataset", args[0])

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to lanegraph.toml")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// apiServer holds the HTTP handler state. The runner is shared across
// requests so per-hash run serialization and the in-flight set span
// concurrent optimize calls.
type apiServer struct {
	datasetPath string
	cfg         Config
	store       store.Store
	logger      *log.Logger
	runner      *runner.Runner
}

func newAPIServer(datasetPath string, cfg Config, st store.Store, logger *log.Logger, year int) *apiServer {
	return &apiServer{
		datasetPath: datasetPath,
		cfg:         cfg,
		store:       st,
		logger:      logger,
		runner:      runner.New(st, logger, cfg.runnerConfig(year)),
	}
}

func (s *apiServer) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(s.withRequestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Post("/discover", s.handleDiscover)
	r.Post("/optimize", s.handleOptimize)
	r.Get("/families", s.handleListFamilies)
	r.Get("/families/{hash}", s.handleGetFamily)
	r.Get("/families/{hash}/status", s.handleFamilyStatus)
	r.Get("/families/{hash}/svg", s.handleFamilySVG)
	return r
}

// withRequestLogger attaches the server logger to each request context so
// handlers and the libraries they call pick it up via loggerFromContext.
func (s *apiServer) withRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(withLogger(r.Context(), s.logger)))
	})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleDiscover(w http.ResponseWriter, r *http.Request) {
	g, datasetYear, err := dataset.Load(s.datasetPath)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	svc := discovery.NewService(s.store, loggerFromContext(r.Context()), s.cfg.discoveryConfig(s.cfg.effectiveYear(datasetYear)))
	report, err := svc.Discover(r.Context(), g)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// optimizeRequest optionally restricts an optimization run to given hashes.
type optimizeRequest struct {
	Hashes []string `json:"hashes"`
}

func (s *apiServer) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, r, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "decode request body"))
			return
		}
	}

	g, _, err := dataset.Load(s.datasetPath)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var summary runner.Summary
	if len(req.Hashes) > 0 {
		summary, err = s.runner.OptimizeHashes(r.Context(), g, req.Hashes)
	} else {
		summary, err = s.runner.OptimizeAll(r.Context(), g)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *apiServer) handleListFamilies(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// statusResponse reports a family's lifecycle state.
type statusResponse struct {
	Hash  string       `json:"hash"`
	State runner.State `json:"state"`
}

func (s *apiServer) handleFamilyStatus(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	state, err := s.runner.Status(r.Context(), hash)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Hash: hash, State: state})
}

func (s *apiServer) handleGetFamily(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if err := apperrors.ValidateFamilyHash(hash); err != nil {
		s.writeError(w, r, err)
		return
	}

	row, err := s.store.Get(r.Context(), hash)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeFamilyNotFound, "no family with hash %s", hash))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *apiServer) handleFamilySVG(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if err := apperrors.ValidateFamilyHash(hash); err != nil {
		s.writeError(w, r, err)
		return
	}

	row, err := s.store.Get(r.Context(), hash)
	if errors.Is(err, store.ErrNotFound) {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeFamilyNotFound, "no family with hash %s", hash))
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if row.Pending() {
		s.writeError(w, r, apperrors.New(apperrors.ErrCodeNotFound, "family %s has no optimized layout yet", hash))
		return
	}

	svg, err := render.RenderSVG(render.LayoutDOT(row.Data))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(svg)
}

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Code    apperrors.Code `json:"code"`
	Message string         `json:"message"`
}

// writeError maps application error codes to HTTP statuses.
func (s *apiServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, store.ErrDuplicateHash) {
		err = apperrors.Wrap(apperrors.ErrCodeStoreConflict, err, "layout cache invariant violated")
	}
	code := apperrors.GetCode(err)
	status := http.StatusInternalServerError
	switch code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidHash,
		apperrors.ErrCodeInvalidFormat, apperrors.ErrCodeInvalidGraph,
		apperrors.ErrCodeGraphCycle:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodeFamilyNotFound,
		apperrors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeStoreConflict:
		status = http.StatusConflict
	case apperrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	case "":
		code = apperrors.ErrCodeInternal
	}

	loggerFromContext(r.Context()).Error("request failed", "code", code, "err", err)
	writeJSON(w, status, errorResponse{Code: code, Message: apperrors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
