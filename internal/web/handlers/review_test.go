package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobsitesnap/rescue-engine/internal/store"
)

func postMark(t *testing.T, h *ReviewHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := jsonRequest(t, http.MethodPost, "/api/v1/rescue/review/mark", body)
	rec := httptest.NewRecorder()
	h.Mark(rec, req)
	return rec
}

func TestReviewMark(t *testing.T) {
	f := newFixture(t)
	h := NewReviewHandler(f.cfg, f.manager)

	rec := postMark(t, h, map[string]any{
		"photo_ids":           []string{"a00", "a01"},
		"user_classification": "jobsite",
	})
	assertStatus(t, rec, http.StatusOK)

	var resp markResponse
	decodeResponse(t, rec, &resp)
	if resp.Updated != 2 {
		t.Errorf("updated = %d, want 2", resp.Updated)
	}
	if f.mock.PhotoClassification("a00") != store.ClassificationJobsite {
		t.Errorf("classification = %q, want jobsite", f.mock.PhotoClassification("a00"))
	}

	// Classification is a label, not a review decision: the photos stay
	// in the candidate pool.
	session := f.runScan(t)
	if session.Stats.TotalCandidates != 7 {
		t.Errorf("candidates after mark = %d, want 7", session.Stats.TotalCandidates)
	}

	// A null classification clears the label.
	rec = postMark(t, h, map[string]any{
		"photo_ids":           []string{"a00"},
		"user_classification": nil,
	})
	assertStatus(t, rec, http.StatusOK)
	if f.mock.PhotoClassification("a00") != "" {
		t.Errorf("classification = %q, want cleared", f.mock.PhotoClassification("a00"))
	}
}

func TestReviewMark_Validation(t *testing.T) {
	f := newFixture(t)
	h := NewReviewHandler(f.cfg, f.manager)

	rec := postMark(t, h, map[string]any{
		"photo_ids":           []string{},
		"user_classification": "jobsite",
	})
	assertStatus(t, rec, http.StatusBadRequest)

	rec = postMark(t, h, map[string]any{
		"photo_ids":           []string{"a00"},
		"user_classification": "blurry",
	})
	assertStatus(t, rec, http.StatusBadRequest)
	if f.mock.PhotoClassification("a00") != "" {
		t.Error("rejected mark must not write a classification")
	}

	oversized := make([]string, maxMarkBatch+1)
	for i := range oversized {
		oversized[i] = fmt.Sprintf("p%04d", i)
	}
	rec = postMark(t, h, map[string]any{
		"photo_ids":           oversized,
		"user_classification": "personal",
	})
	assertStatus(t, rec, http.StatusBadRequest)
}
