package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/jobsitesnap/rescue-engine/internal/cluster"
	"github.com/jobsitesnap/rescue-engine/internal/config"
	"github.com/jobsitesnap/rescue-engine/internal/geocode"
	"github.com/jobsitesnap/rescue-engine/internal/scan"
	"github.com/jobsitesnap/rescue-engine/internal/store"
)

const testOrg = "org-test"

// testConfig creates a minimal config for testing.
func testConfig() *config.Config {
	return &config.Config{
		Organization: config.OrganizationConfig{ID: testOrg},
		Scan: config.ScanConfig{
			MaxLimit:     2000,
			FetchTimeout: 5 * time.Second,
			SessionTTL:   time.Hour,
			UndoTTL:      time.Hour,
		},
		Clustering: cluster.DefaultConfig(),
	}
}

// seedPhotos adds n photos at one location, 10 minutes apart.
func seedPhotos(m *store.Mock, prefix string, lat, lng float64, start time.Time, n int) {
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * 10 * time.Minute)
		la, ln := lat, lng
		m.AddPhoto(testOrg, cluster.CandidatePhoto{
			ID:        fmt.Sprintf("%s%02d", prefix, i),
			TakenAt:   &ts,
			CreatedAt: ts,
			Lat:       &la,
			Lng:       &ln,
		})
	}
}

type fixture struct {
	cfg     *config.Config
	mock    *store.Mock
	manager *scan.Manager
}

// newFixture seeds two clusters' worth of photos and builds a manager.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	mock := store.NewMock()
	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	seedPhotos(mock, "a", 49.2609, -123.1139, base, 4)
	seedPhotos(mock, "b", 49.2827, -123.1207, base.Add(48*time.Hour), 3)

	cfg := testConfig()
	return &fixture{
		cfg:     cfg,
		mock:    mock,
		manager: scan.NewManager(mock, geocode.Noop{}, cfg, zerolog.Nop()),
	}
}

// runScan starts a session directly on the manager.
func (f *fixture) runScan(t *testing.T) *scan.Session {
	t.Helper()
	session, err := f.manager.Run(context.Background(), testOrg, scan.ScanOptions{})
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	return session
}

// requestWithChiParams creates a request with chi URL parameters.
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// jsonRequest builds a request with a JSON body.
func jsonRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// decodeResponse parses a recorded JSON response body.
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

// assertStatus fails the test when the recorded status differs.
func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}
