package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/jobsitesnap/rescue-engine/internal/cluster"
)

// Mock is an in-memory Store for tests and dry runs. Photos move
// through the same states the SQL implementation uses.
type Mock struct {
	mu       sync.RWMutex
	photos   map[string]*mockPhoto
	projects map[string]string // project ID -> name

	// Error injection
	CandidatesError    error
	CreateProjectError error
	MarkReviewedError  error
	MarkError          error
	RevertError        error
}

type mockPhoto struct {
	photo          cluster.CandidatePhoto
	org            string
	projectID      string
	classification string
	reviewed       bool
	deleted        bool
}

// NewMock creates an empty in-memory store.
func NewMock() *Mock {
	return &Mock{
		photos:   make(map[string]*mockPhoto),
		projects: make(map[string]string),
	}
}

// AddPhoto seeds a candidate photo into the unreviewed pool.
func (m *Mock) AddPhoto(org string, p cluster.CandidatePhoto) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos[p.ID] = &mockPhoto{photo: p, org: org}
}

// AssignDirectly puts a photo into a project out-of-band, simulating a
// concurrent writer for conflict tests.
func (m *Mock) AssignDirectly(photoID, projectID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.photos[photoID]; ok {
		p.projectID = projectID
	}
}

// ProjectName returns the name of a created project, or "" if absent.
func (m *Mock) ProjectName(projectID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.projects[projectID]
}

// PhotoClassification returns a photo's user classification, or "".
func (m *Mock) PhotoClassification(photoID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.photos[photoID]; ok {
		return p.classification
	}
	return ""
}

// PhotoReviewed reports whether a photo has been marked reviewed.
func (m *Mock) PhotoReviewed(photoID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.photos[photoID]; ok {
		return p.reviewed
	}
	return false
}

// PhotoProject returns the project a photo is assigned to, or "".
func (m *Mock) PhotoProject(photoID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.photos[photoID]; ok {
		return p.projectID
	}
	return ""
}

func (m *Mock) Candidates(ctx context.Context, q CandidateQuery) ([]cluster.CandidatePhoto, error) {
	if m.CandidatesError != nil {
		return nil, m.CandidatesError
	}
	if q.OrganizationID == "" {
		return nil, errors.New("organization ID is required")
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	var photos []cluster.CandidatePhoto
	for _, p := range m.photos {
		if p.org != q.OrganizationID || p.projectID != "" || p.reviewed || p.deleted {
			continue
		}
		photos = append(photos, p.photo)
		if q.Limit > 0 && len(photos) >= q.Limit {
			break
		}
	}
	return photos, nil
}

func (m *Mock) CountCandidates(ctx context.Context, organizationID string) (int, error) {
	photos, err := m.Candidates(ctx, CandidateQuery{OrganizationID: organizationID})
	if err != nil {
		return 0, err
	}
	return len(photos), nil
}

func (m *Mock) CreateProject(ctx context.Context, organizationID, name string, photoIDs []string) (string, error) {
	if m.CreateProjectError != nil {
		return "", m.CreateProjectError
	}
	if len(photoIDs) == 0 {
		return "", errors.New("project needs at least one photo")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var conflicted []string
	for _, id := range photoIDs {
		p, ok := m.photos[id]
		if !ok || p.org != organizationID || p.projectID != "" || p.deleted {
			conflicted = append(conflicted, id)
		}
	}
	if len(conflicted) > 0 {
		return "", &ConflictError{PhotoIDs: conflicted}
	}

	projectID := uuid.NewString()
	m.projects[projectID] = name
	for _, id := range photoIDs {
		m.photos[id].projectID = projectID
	}
	return projectID, nil
}

func (m *Mock) MarkReviewed(ctx context.Context, organizationID string, photoIDs []string) error {
	if m.MarkReviewedError != nil {
		return m.MarkReviewedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range photoIDs {
		if p, ok := m.photos[id]; ok && p.org == organizationID && !p.deleted {
			p.reviewed = true
		}
	}
	return nil
}

func (m *Mock) Mark(ctx context.Context, organizationID string, photoIDs []string, classification string) (int, error) {
	if m.MarkError != nil {
		return 0, m.MarkError
	}
	if !ValidClassification(classification) {
		return 0, fmt.Errorf("invalid classification %q", classification)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	updated := 0
	for _, id := range photoIDs {
		if p, ok := m.photos[id]; ok && p.org == organizationID && !p.deleted {
			p.classification = classification
			updated++
		}
	}
	return updated, nil
}

func (m *Mock) Revert(ctx context.Context, organizationID string, projectIDs, reviewedPhotoIDs []string) error {
	if m.RevertError != nil {
		return m.RevertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, projectID := range projectIDs {
		if _, ok := m.projects[projectID]; !ok {
			return fmt.Errorf("project %s not found", projectID)
		}
		for _, p := range m.photos {
			if p.projectID == projectID {
				p.projectID = ""
				p.reviewed = false
			}
		}
		delete(m.projects, projectID)
	}
	for _, id := range reviewedPhotoIDs {
		if p, ok := m.photos[id]; ok && p.org == organizationID && p.projectID == "" {
			p.reviewed = false
		}
	}
	return nil
}
