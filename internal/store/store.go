// Package store defines the persistence contracts the rescue engine
// depends on. The postgres implementation backs production; the mock
// backs tests and the dry-run CLI.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jobsitesnap/rescue-engine/internal/cluster"
)

var (
	// ErrNotFound is returned when a referenced photo or group does not
	// exist in the organization's library.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when an apply step races with another
	// writer, e.g. a photo was assigned to a project since the scan ran.
	ErrConflict = errors.New("store: conflict")
)

// ConflictError carries which photos made an apply step fail so the
// caller can surface them instead of a bare 409.
type ConflictError struct {
	PhotoIDs []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("store: %d photos already assigned or removed", len(e.PhotoIDs))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// User classifications a photo can carry. An empty classification
// clears the label.
const (
	ClassificationJobsite  = "jobsite"
	ClassificationPersonal = "personal"
)

// ValidClassification reports whether c is a storable classification.
func ValidClassification(c string) bool {
	return c == "" || c == ClassificationJobsite || c == ClassificationPersonal
}

// CandidateQuery narrows the candidate fetch. OrganizationID is
// mandatory; Limit caps the scan size.
type CandidateQuery struct {
	OrganizationID string
	Limit          int
}

// CandidateSource reads rescue candidates: photos with no project,
// unreviewed, and not soft-deleted.
type CandidateSource interface {
	Candidates(ctx context.Context, q CandidateQuery) ([]cluster.CandidatePhoto, error)
	CountCandidates(ctx context.Context, organizationID string) (int, error)
}

// Mutator applies a confirmed plan. Each method is transactional: it
// either moves every named photo or none of them.
type Mutator interface {
	// CreateProject creates a project and assigns the photos to it,
	// returning the new project ID. Photos that are no longer
	// assignable surface as a ConflictError.
	CreateProject(ctx context.Context, organizationID, name string, photoIDs []string) (string, error)

	// MarkReviewed flags photos as reviewed without assigning them, so
	// skipped groups stop reappearing in future scans.
	MarkReviewed(ctx context.Context, organizationID string, photoIDs []string) error

	// Mark writes a user classification (jobsite or personal) on photos
	// without touching their assignment or review state. An empty
	// classification clears the label. Returns how many photos changed.
	Mark(ctx context.Context, organizationID string, photoIDs []string, classification string) (int, error)

	// Revert undoes a previous apply: deletes the created projects and
	// returns their photos to the unreviewed pool.
	Revert(ctx context.Context, organizationID string, projectIDs, reviewedPhotoIDs []string) error
}

// Store is the full persistence surface the engine needs.
type Store interface {
	CandidateSource
	Mutator
}
