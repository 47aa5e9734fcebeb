package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/finscope/finscope/pkg/aggregate"
	"github.com/finscope/finscope/pkg/api"
	"github.com/finscope/finscope/pkg/cache"
	"github.com/finscope/finscope/pkg/config"
	"github.com/finscope/finscope/pkg/service"
	"github.com/finscope/finscope/pkg/store"
)

func fakeUpstream(t *testing.T, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		switch r.URL.Path {
		case api.PathTransactions:
			fmt.Fprint(w, `{"resources":[
				{"id":"1","amount":"-50","account_id":"a1","date":"2023-01-15","category_id":"10","description":"market"},
				{"id":"2","amount":"-30","account_id":"a1","date":"2023-01-20","category_id":"7","description":"transfer"}
			]}`)
		case api.PathCategories:
			fmt.Fprint(w, `{"resources":[
				{"id":"1","name":"Food","children":[{"id":"10","name":"Groceries"}]},
				{"id":"7","name":"Transfers"}
			]}`)
		case api.PathAccounts:
			fmt.Fprint(w, `{"resources":[{"id":"a1","name":"Checking"}]}`)
		}
	}))
}

func testServer(upstream *httptest.Server, cfg *config.Config) *Server {
	logger := log.New(io.Discard)
	client := api.NewClient(upstream.URL, api.Static(nil), logger)
	client.MaxAttempts = 1
	loader := service.NewLoader(client, cache.New(store.NewMemory(), time.Minute, logger), logger)
	s := New(cfg, loader, logger)
	s.setupRoutes()
	return s
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandleSeries(t *testing.T) {
	upstream := fakeUpstream(t, http.StatusOK)
	defer upstream.Close()
	s := testServer(upstream, &config.Config{ExcludeCategoryIDs: []string{"7"}})

	rec := get(t, s, "/api/series")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var data aggregate.ChartData
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(data.Labels) != 1 || data.Labels[0] != "2023-01" {
		t.Errorf("labels = %v", data.Labels)
	}
	var labels []string
	for _, ds := range data.Datasets {
		labels = append(labels, ds.Label)
	}
	// The globally excluded Transfers root still appears as an empty
	// legend entry; its transaction must not.
	joined := strings.Join(labels, ",")
	if !strings.Contains(joined, "Food") || !strings.Contains(joined, "Transfers") {
		t.Errorf("datasets = %v", labels)
	}
	for _, ds := range data.Datasets {
		if ds.Label == "Transfers" && len(ds.Data) != 0 {
			t.Errorf("excluded category has data points: %+v", ds.Data)
		}
	}
}

func TestHandleSeriesBadDate(t *testing.T) {
	upstream := fakeUpstream(t, http.StatusOK)
	defer upstream.Close()
	s := testServer(upstream, &config.Config{})

	rec := get(t, s, "/api/series?start=nonsense")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleFlows(t *testing.T) {
	upstream := fakeUpstream(t, http.StatusOK)
	defer upstream.Close()
	s := testServer(upstream, &config.Config{})

	rec := get(t, s, "/api/flows")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var edges []aggregate.Edge
	if err := json.Unmarshal(rec.Body.Bytes(), &edges); err != nil {
		t.Fatalf("decode: %v", err)
	}
	found := false
	for _, e := range edges {
		if e.From == aggregate.NodeExpenses && e.To == "Food" {
			found = true
		}
	}
	if !found {
		t.Errorf("missing expenses edge in %+v", edges)
	}
}

func TestHandleStats(t *testing.T) {
	upstream := fakeUpstream(t, http.StatusOK)
	defer upstream.Close()
	s := testServer(upstream, &config.Config{})

	rec := get(t, s, "/api/stats?calc=average&year=2023")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	var values map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &values); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if values["Food"] != "50" {
		t.Errorf("Food = %q, want 50", values["Food"])
	}
}

func TestHandleReportCSVKeepsGlobalExclusions(t *testing.T) {
	upstream := fakeUpstream(t, http.StatusOK)
	defer upstream.Close()
	s := testServer(upstream, &config.Config{ExcludeCategoryIDs: []string{"7"}})

	rec := get(t, s, "/api/report.csv")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("content type = %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "transfer") {
		t.Errorf("report dropped globally excluded transaction:\n%s", body)
	}
}

func TestHandleRefreshMethod(t *testing.T) {
	upstream := fakeUpstream(t, http.StatusOK)
	defer upstream.Close()
	s := testServer(upstream, &config.Config{})

	rec := get(t, s, "/api/refresh")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET refresh status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("POST refresh status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestLoadErrorsMapToStatuses(t *testing.T) {
	denied := fakeUpstream(t, http.StatusUnauthorized)
	defer denied.Close()
	s := testServer(denied, &config.Config{})
	if rec := get(t, s, "/api/series"); rec.Code != http.StatusUnauthorized {
		t.Errorf("auth failure status = %d, want 401", rec.Code)
	}

	down := fakeUpstream(t, http.StatusNotFound)
	defer down.Close()
	s = testServer(down, &config.Config{})
	if rec := get(t, s, "/api/flows"); rec.Code != http.StatusBadGateway {
		t.Errorf("upstream failure status = %d, want 502", rec.Code)
	}
}
