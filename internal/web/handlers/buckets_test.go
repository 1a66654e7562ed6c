package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jobsitesnap/rescue-engine/internal/rescue"
	"github.com/jobsitesnap/rescue-engine/internal/scan"
)

func listBuckets(t *testing.T, h *BucketsHandler, scanID string) []bucketView {
	t.Helper()
	req := requestWithChiParams(
		httptest.NewRequest(http.MethodGet, "/buckets", nil),
		map[string]string{"scanID": scanID},
	)
	rec := httptest.NewRecorder()
	h.List(rec, req)
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Buckets []bucketView `json:"buckets"`
	}
	decodeResponse(t, rec, &body)
	return body.Buckets
}

func postSession(t *testing.T, method func(http.ResponseWriter, *http.Request), scanID, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := requestWithChiParams(
		jsonRequest(t, http.MethodPost, "/sessions/"+sessionID, body),
		map[string]string{"scanID": scanID, "sessionID": sessionID},
	)
	rec := httptest.NewRecorder()
	method(rec, req)
	return rec
}

func firstSession(t *testing.T, session *scan.Session) (bucketID, sessionID string, count int) {
	t.Helper()
	for id, b := range session.Buckets {
		if len(b.Sessions) > 0 {
			return id, b.Sessions[0].SessionID, b.Sessions[0].Count
		}
	}
	t.Fatal("fixture has no sessions")
	return "", "", 0
}

func TestBucketsList(t *testing.T) {
	f := newFixture(t)
	h := NewBucketsHandler(f.manager)
	session := f.runScan(t)

	buckets := listBuckets(t, h, session.ScanID)
	if len(buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(buckets))
	}
	for _, b := range buckets {
		if len(b.Sessions) == 0 {
			t.Errorf("bucket %s has no sessions", b.BucketID)
		}
		for _, s := range b.Sessions {
			if s.DisplayState != "unassigned" {
				t.Errorf("initial display state = %q, want unassigned", s.DisplayState)
			}
		}
	}
}

func TestSessionAssign(t *testing.T) {
	f := newFixture(t)
	h := NewBucketsHandler(f.manager)
	session := f.runScan(t)
	_, sessionID, _ := firstSession(t, session)

	rec := postSession(t, h.Assign, session.ScanID, sessionID, map[string]any{"unit_id": "unit-12"})
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		DisplayState string      `json:"display_state"`
		LastUsedUnit rescue.Unit `json:"last_used_unit"`
	}
	decodeResponse(t, rec, &body)
	if body.DisplayState != "assigned" {
		t.Errorf("display state = %q, want assigned", body.DisplayState)
	}
	if body.LastUsedUnit != rescue.UnitOf("unit-12") {
		t.Errorf("last used unit = %+v, want unit-12", body.LastUsedUnit)
	}

	// Unknown session is a 404.
	rec = postSession(t, h.Assign, session.ScanID, "ses_missing", map[string]any{"unit_id": "unit-12"})
	assertStatus(t, rec, http.StatusNotFound)
}

func TestSessionAssign_PartialMakesMixed(t *testing.T) {
	f := newFixture(t)
	h := NewBucketsHandler(f.manager)
	session := f.runScan(t)

	var sessionID string
	var photoIDs []string
	for _, b := range session.Buckets {
		for _, s := range b.Sessions {
			if s.Count >= 2 {
				sessionID = s.SessionID
				photoIDs = s.PhotoIDs
			}
		}
	}
	if sessionID == "" {
		t.Fatal("fixture needs a session with at least 2 photos")
	}

	rec := postSession(t, h.Assign, session.ScanID, sessionID, map[string]any{
		"unit_id":   "unit-12",
		"photo_ids": photoIDs[:1],
	})
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		DisplayState string `json:"display_state"`
	}
	decodeResponse(t, rec, &body)
	if body.DisplayState != "mixed" {
		t.Errorf("display state = %q, want mixed", body.DisplayState)
	}
}

func TestSessionAutoPick(t *testing.T) {
	f := newFixture(t)
	h := NewBucketsHandler(f.manager)
	session := f.runScan(t)

	// Find the 4-photo session and assign 3 of 4 to one unit (75%).
	var sessionID string
	var photoIDs []string
	for _, b := range session.Buckets {
		for _, s := range b.Sessions {
			if s.Count == 4 {
				sessionID = s.SessionID
				photoIDs = s.PhotoIDs
			}
		}
	}
	if sessionID == "" {
		t.Fatal("fixture needs the 4-photo session")
	}

	rec := postSession(t, h.Assign, session.ScanID, sessionID, map[string]any{
		"unit_id":   "unit-12",
		"photo_ids": photoIDs[:3],
	})
	assertStatus(t, rec, http.StatusOK)

	rec = postSession(t, h.AutoPick, session.ScanID, sessionID, map[string]any{"apply": true})
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		Result  rescue.AutoPickResult `json:"result"`
		Applied bool                  `json:"applied"`
	}
	decodeResponse(t, rec, &body)
	if !body.Result.AutoPick {
		t.Fatalf("autoPick = false at 75%% (ratio %v)", body.Result.MajorityRatio)
	}
	if !body.Applied {
		t.Error("apply requested but not applied")
	}

	// The whole session is now on one unit.
	rec = postSession(t, h.AutoPick, session.ScanID, sessionID, nil)
	assertStatus(t, rec, http.StatusOK)
	decodeResponse(t, rec, &body)
	if body.Result.MajorityRatio != 1 {
		t.Errorf("ratio after applied pick = %v, want 1", body.Result.MajorityRatio)
	}
}

func TestSessionSplit(t *testing.T) {
	f := newFixture(t)
	h := NewBucketsHandler(f.manager)
	session := f.runScan(t)

	var sessionID string
	var photoIDs []string
	for _, b := range session.Buckets {
		for _, s := range b.Sessions {
			if s.Count == 4 {
				sessionID = s.SessionID
				photoIDs = s.PhotoIDs
			}
		}
	}
	if sessionID == "" {
		t.Fatal("fixture needs the 4-photo session")
	}

	rec := postSession(t, h.Split, session.ScanID, sessionID, map[string]any{
		"photo_ids": photoIDs[2:],
	})
	assertStatus(t, rec, http.StatusOK)

	var body struct {
		NewSessionID string     `json:"new_session_id"`
		Bucket       bucketView `json:"bucket"`
	}
	decodeResponse(t, rec, &body)
	if body.NewSessionID == "" {
		t.Fatal("missing new session id")
	}
	if len(body.Bucket.Sessions) != 2 {
		t.Errorf("sessions after split = %d, want 2", len(body.Bucket.Sessions))
	}

	// Splitting photos outside the session is a validation error.
	rec = postSession(t, h.Split, session.ScanID, body.NewSessionID, map[string]any{
		"photo_ids": []string{"stranger"},
	})
	assertStatus(t, rec, http.StatusUnprocessableEntity)
}
