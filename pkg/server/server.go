// Package server exposes the aggregation outputs over HTTP as plain JSON
// (and CSV for the report), which is all the rendering layer needs.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/finscope/finscope/pkg/aggregate"
	"github.com/finscope/finscope/pkg/api"
	"github.com/finscope/finscope/pkg/config"
	"github.com/finscope/finscope/pkg/filter"
	"github.com/finscope/finscope/pkg/models"
	"github.com/finscope/finscope/pkg/report"
	"github.com/finscope/finscope/pkg/service"
)

// Server handles HTTP requests for chart data and report exports.
type Server struct {
	config *config.Config
	loader *service.Loader
	logger *log.Logger
	mux    *http.ServeMux
}

// New creates a new HTTP server.
func New(cfg *config.Config, loader *service.Loader, logger *log.Logger) *Server {
	return &Server{
		config: cfg,
		loader: loader,
		logger: logger,
		mux:    http.NewServeMux(),
	}
}

// Start starts the HTTP server.
func (s *Server) Start(addr string) error {
	s.setupRoutes()
	return http.ListenAndServe(addr, s.mux)
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/series", s.withLogging(s.handleSeries))
	s.mux.HandleFunc("/api/flows", s.withLogging(s.handleFlows))
	s.mux.HandleFunc("/api/stats", s.withLogging(s.handleStats))
	s.mux.HandleFunc("/api/report.csv", s.withLogging(s.handleReportCSV))
	s.mux.HandleFunc("/api/refresh", s.withLogging(s.handleRefresh))
}

// snapshot loads data and applies params plus the global category
// exclusions every chart aggregation honors.
func (s *Server) snapshot(r *http.Request, params filter.Params) (*service.Snapshot, []models.Transaction, error) {
	snap, err := s.loader.Load(r.Context())
	if err != nil {
		return nil, nil, err
	}
	params.ExcludeCategoryIDs = append(params.ExcludeCategoryIDs, s.config.ExcludeCategoryIDs...)
	return snap, snap.Filter(params), nil
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	params, err := filterParams(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "bad filter parameters", err)
		return
	}
	snap, txs, err := s.snapshot(r, params)
	if err != nil {
		s.respondLoadError(w, r, err)
		return
	}
	data := aggregate.Series(txs, snap.Index, aggregate.SeriesOptions{
		Cumulative: r.URL.Query().Get("cumulative") != "false",
		ActiveOnly: r.URL.Query().Get("active") == "true",
	})
	if err := s.writeJSON(w, http.StatusOK, data); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	params, err := filterParams(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "bad filter parameters", err)
		return
	}
	snap, txs, err := s.snapshot(r, params)
	if err != nil {
		s.respondLoadError(w, r, err)
		return
	}
	edges := aggregate.Flows(txs, snap.Index, s.config.BudgetRootIDs)
	if err := s.writeJSON(w, http.StatusOK, edges); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	params, err := filterParams(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "bad filter parameters", err)
		return
	}
	snap, txs, err := s.snapshot(r, params)
	if err != nil {
		s.respondLoadError(w, r, err)
		return
	}

	q := r.URL.Query()
	aggParams := aggregate.Params{Calc: aggregate.CalcMedian, Now: time.Now()}
	if q.Get("calc") == string(aggregate.CalcAverage) {
		aggParams.Calc = aggregate.CalcAverage
	}
	aggParams.Year, _ = strconv.Atoi(q.Get("year"))
	aggParams.BeforeYear, _ = strconv.Atoi(q.Get("before"))
	if m, err := strconv.Atoi(q.Get("month")); err == nil && m >= 1 && m <= 12 {
		aggParams.Month = time.Month(m)
	}

	preparer, err := aggregate.New(aggregate.KindStats)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "aggregator unavailable", err)
		return
	}
	values, err := preparer.Prepare(txs, snap.Index, aggParams)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "aggregation failed", err)
		return
	}
	if err := s.writeJSON(w, http.StatusOK, values); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

func (s *Server) handleReportCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	// The report keeps globally excluded categories on purpose; only the
	// request's own exclusions apply.
	snap, err := s.loader.Load(r.Context())
	if err != nil {
		s.respondLoadError(w, r, err)
		return
	}
	params, err := filterParams(r)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "bad filter parameters", err)
		return
	}
	rows := report.Rows(snap.Transactions, snap.Index, snap.Accounts, report.Options{
		Start:              params.Start,
		End:                params.End,
		AccountIDs:         params.AccountIDs,
		ExcludeCategoryIDs: params.ExcludeCategoryIDs,
	})
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="report.csv"`)
	if _, err := w.Write([]byte(report.CSV(rows))); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
		return
	}
	if err := s.loader.Refresh(r.Context()); err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "refresh failed", err)
		return
	}
	if err := s.writeJSON(w, http.StatusOK, map[string]string{"status": "success"}); err != nil {
		s.logger.Warn("failed to write json response", "err", err)
	}
}

// filterParams reads start/end/accounts/exclude query parameters.
func filterParams(r *http.Request) (filter.Params, error) {
	q := r.URL.Query()
	var params filter.Params
	if v := q.Get("start"); v != "" {
		start, err := models.ParseDate(v)
		if err != nil {
			return filter.Params{}, fmt.Errorf("bad start date %q: %w", v, err)
		}
		params.Start = start
	}
	if v := q.Get("end"); v != "" {
		end, err := models.ParseDate(v)
		if err != nil {
			return filter.Params{}, fmt.Errorf("bad end date %q: %w", v, err)
		}
		params.End = end
	}
	params.AccountIDs = splitList(q.Get("accounts"))
	params.ExcludeCategoryIDs = splitList(q.Get("exclude"))
	return params, nil
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// respondLoadError maps pipeline failures onto HTTP statuses: auth problems
// are the caller's to fix, everything upstream-shaped is a bad gateway.
func (s *Server) respondLoadError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case api.IsAuth(err):
		s.respondError(w, r, http.StatusUnauthorized, "authentication failed", err)
	default:
		s.respondError(w, r, http.StatusBadGateway, "failed to load data", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// respondError logs the error and returns a minimal JSON error body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		s.logger.Warn("request error", "status", status, "msg", message, "err", err, "method", r.Method, "path", r.URL.Path)
	} else {
		s.logger.Warn("request error", "status", status, "msg", message, "method", r.Method, "path", r.URL.Path)
	}
	_ = s.writeJSON(w, status, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// withLogging wraps a handler to log request start/end and recover panics.
func (s *Server) withLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				s.respondError(w, r, http.StatusInternalServerError, "internal server error", fmt.Errorf("panic: %v", rec))
			}
		}()
		next(w, r)
	}
}
