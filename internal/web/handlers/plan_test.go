package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobsitesnap/rescue-engine/internal/rescue"
	"github.com/jobsitesnap/rescue-engine/internal/scan"
)

func getPlan(t *testing.T, h *PlanHandler, scanID string) (rescue.Plan, *httptest.ResponseRecorder) {
	t.Helper()
	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/plan", nil),
		map[string]string{"scanID": scanID},
	)
	rec := httptest.NewRecorder()
	h.Plan(rec, req)

	var plan rescue.Plan
	if rec.Code == http.StatusOK {
		decodeResponse(t, rec, &plan)
	}
	return plan, rec
}

// Full review flow over the API: scan, name one group, skip the other,
// inspect the plan, apply it, and undo.
func TestReviewFlow(t *testing.T) {
	f := newFixture(t)
	scanHandler := NewScanHandler(f.cfg, f.manager)
	namingHandler := NewNamingHandler(f.manager)
	planHandler := NewPlanHandler(f.manager)

	rec := httptest.NewRecorder()
	scanHandler.Start(rec, jsonRequest(t, http.MethodPost, "/scan", map[string]any{
		"scope": map[string]string{"mode": "unassigned"},
	}))
	assertStatus(t, rec, http.StatusOK)
	var view scanView
	decodeResponse(t, rec, &view)
	if len(view.Clusters) != 2 {
		t.Fatalf("clusters = %d, want 2", len(view.Clusters))
	}

	confirmID := view.Clusters[0].ClusterID
	skipID := view.Clusters[1].ClusterID

	rec = postCluster(t, namingHandler, namingHandler.Confirm, view.ScanID, confirmID, map[string]string{"name": "Main St Job"})
	assertStatus(t, rec, http.StatusOK)
	rec = postCluster(t, namingHandler, namingHandler.Skip, view.ScanID, skipID, nil)
	assertStatus(t, rec, http.StatusOK)

	plan, rec := getPlan(t, planHandler, view.ScanID)
	assertStatus(t, rec, http.StatusOK)
	if plan.Summary.ProjectsToCreate != 1 {
		t.Fatalf("projectsToCreate = %d, want 1", plan.Summary.ProjectsToCreate)
	}
	if plan.Summary.PhotosToOrganize+plan.Summary.PhotosUnassigned != 7 {
		t.Errorf("plan summary does not cover all photos: %+v", plan.Summary)
	}

	// Apply.
	req := requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/apply", nil),
		map[string]string{"scanID": view.ScanID},
	)
	rec = httptest.NewRecorder()
	planHandler.Apply(rec, req)
	assertStatus(t, rec, http.StatusOK)

	var receipt scan.ApplyReceipt
	decodeResponse(t, rec, &receipt)
	if len(receipt.ProjectIDs) != 1 || receipt.UndoToken == "" {
		t.Fatalf("receipt = %+v", receipt)
	}
	if f.mock.ProjectName(receipt.ProjectIDs[0]) != "Main St Job" {
		t.Errorf("project name = %q", f.mock.ProjectName(receipt.ProjectIDs[0]))
	}

	// Double apply conflicts.
	rec = httptest.NewRecorder()
	planHandler.Apply(rec, requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/apply", nil),
		map[string]string{"scanID": view.ScanID},
	))
	assertStatus(t, rec, http.StatusConflict)

	// Undo with the issued token.
	rec = httptest.NewRecorder()
	planHandler.Undo(rec, requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/undo/"+receipt.UndoToken, nil),
		map[string]string{"token": receipt.UndoToken},
	))
	assertStatus(t, rec, http.StatusOK)

	if n, _ := f.mock.CountCandidates(req.Context(), testOrg); n != 7 {
		t.Errorf("candidates after undo = %d, want 7", n)
	}

	// The token is spent.
	rec = httptest.NewRecorder()
	planHandler.Undo(rec, requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/undo/"+receipt.UndoToken, nil),
		map[string]string{"token": receipt.UndoToken},
	))
	assertStatus(t, rec, http.StatusNotFound)
}

func TestPlan_NotFound(t *testing.T) {
	f := newFixture(t)
	h := NewPlanHandler(f.manager)

	_, rec := getPlan(t, h, "rs_missing")
	assertStatus(t, rec, http.StatusNotFound)
}

func TestApply_Conflict(t *testing.T) {
	f := newFixture(t)
	namingHandler := NewNamingHandler(f.manager)
	planHandler := NewPlanHandler(f.manager)
	session := f.runScan(t)

	for _, c := range session.Result.Clusters {
		rec := postCluster(t, namingHandler, namingHandler.Confirm, session.ScanID, c.ClusterID, map[string]string{"name": "Site " + c.ClusterID})
		assertStatus(t, rec, http.StatusOK)
	}

	// A concurrent writer steals a photo before apply.
	f.mock.AssignDirectly("a01", "someone-else")

	rec := httptest.NewRecorder()
	planHandler.Apply(rec, requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/apply", nil),
		map[string]string{"scanID": session.ScanID},
	))
	assertStatus(t, rec, http.StatusConflict)
}
