package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jobsitesnap/rescue-engine/internal/cluster"
)

func seedPhoto(id string) cluster.CandidatePhoto {
	ts := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	lat, lng := 49.2609, -123.1139
	return cluster.CandidatePhoto{ID: id, TakenAt: &ts, CreatedAt: ts, Lat: &lat, Lng: &lng}
}

func TestMockCandidates_FiltersPool(t *testing.T) {
	m := NewMock()
	m.AddPhoto("org1", seedPhoto("a"))
	m.AddPhoto("org1", seedPhoto("b"))
	m.AddPhoto("org2", seedPhoto("c"))
	m.AssignDirectly("b", "proj-existing")

	ctx := context.Background()
	photos, err := m.Candidates(ctx, CandidateQuery{OrganizationID: "org1", Limit: 100})
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(photos) != 1 || photos[0].ID != "a" {
		t.Errorf("candidates = %v, want only photo a", photos)
	}

	if _, err := m.Candidates(ctx, CandidateQuery{}); err == nil {
		t.Error("expected error for missing organization")
	}
}

func TestMockCreateProject_Conflict(t *testing.T) {
	m := NewMock()
	m.AddPhoto("org1", seedPhoto("a"))
	m.AddPhoto("org1", seedPhoto("b"))
	m.AssignDirectly("b", "proj-existing")

	ctx := context.Background()
	_, err := m.CreateProject(ctx, "org1", "Main St", []string{"a", "b"})

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if !errors.Is(err, ErrConflict) {
		t.Error("ConflictError must unwrap to ErrConflict")
	}
	if len(conflict.PhotoIDs) != 1 || conflict.PhotoIDs[0] != "b" {
		t.Errorf("conflicted photos = %v, want [b]", conflict.PhotoIDs)
	}
	// All-or-nothing: photo a must stay unassigned.
	if m.PhotoProject("a") != "" {
		t.Error("conflicting create must not partially assign photos")
	}
}

func TestMockMark(t *testing.T) {
	m := NewMock()
	m.AddPhoto("org1", seedPhoto("a"))
	m.AddPhoto("org1", seedPhoto("b"))
	m.AddPhoto("org2", seedPhoto("c"))

	ctx := context.Background()
	updated, err := m.Mark(ctx, "org1", []string{"a", "b", "c", "ghost"}, ClassificationJobsite)
	if err != nil {
		t.Fatalf("Mark: %v", err)
	}
	// Foreign-org and unknown photos are left alone.
	if updated != 2 {
		t.Errorf("updated = %d, want 2", updated)
	}
	if m.PhotoClassification("a") != ClassificationJobsite {
		t.Errorf("classification = %q, want jobsite", m.PhotoClassification("a"))
	}
	if m.PhotoClassification("c") != "" {
		t.Error("mark leaked into another organization")
	}

	// Classification never touches the candidate pool.
	n, err := m.CountCandidates(ctx, "org1")
	if err != nil {
		t.Fatalf("CountCandidates: %v", err)
	}
	if n != 2 {
		t.Errorf("candidates after mark = %d, want 2", n)
	}

	// Empty classification clears the label.
	if _, err := m.Mark(ctx, "org1", []string{"a"}, ""); err != nil {
		t.Fatalf("clearing mark: %v", err)
	}
	if m.PhotoClassification("a") != "" {
		t.Errorf("classification = %q, want cleared", m.PhotoClassification("a"))
	}

	if _, err := m.Mark(ctx, "org1", []string{"a"}, "blurry"); err == nil {
		t.Error("expected rejection for unknown classification")
	}
}

func TestMockApplyAndRevert(t *testing.T) {
	m := NewMock()
	m.AddPhoto("org1", seedPhoto("a"))
	m.AddPhoto("org1", seedPhoto("b"))
	m.AddPhoto("org1", seedPhoto("c"))

	ctx := context.Background()
	projectID, err := m.CreateProject(ctx, "org1", "Main St", []string{"a", "b"})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if m.ProjectName(projectID) != "Main St" {
		t.Errorf("project name = %q", m.ProjectName(projectID))
	}
	if err := m.MarkReviewed(ctx, "org1", []string{"c"}); err != nil {
		t.Fatalf("MarkReviewed: %v", err)
	}

	// Organized and reviewed photos drop out of the pool.
	n, err := m.CountCandidates(ctx, "org1")
	if err != nil {
		t.Fatalf("CountCandidates: %v", err)
	}
	if n != 0 {
		t.Errorf("candidates after apply = %d, want 0", n)
	}

	if err := m.Revert(ctx, "org1", []string{projectID}, []string{"c"}); err != nil {
		t.Fatalf("Revert: %v", err)
	}
	n, _ = m.CountCandidates(ctx, "org1")
	if n != 3 {
		t.Errorf("candidates after revert = %d, want 3", n)
	}
	if m.ProjectName(projectID) != "" {
		t.Error("reverted project still exists")
	}
}
