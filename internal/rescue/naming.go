// Package rescue holds the per-group confirmation state: the naming state
// machine, multi-unit building buckets with session assignment, the
// majority/minority auto-pick rule and the plan generator. Nothing in this
// package touches storage; it only records explicit user decisions.
package rescue

import (
	"fmt"
	"strings"
)

// NamingState is the confirmation state of one suggested group.
type NamingState string

const (
	StateEmpty          NamingState = "EMPTY"
	StateSuggestedShown NamingState = "SUGGESTED_SHOWN"
	StateUserEditing    NamingState = "USER_EDITING"
	StateUserConfirmed  NamingState = "USER_CONFIRMED"
	StateSkipped        NamingState = "SKIPPED"
)

// InvalidTransitionError reports a rejected state-machine event. The state is
// left unchanged; Field carries a validation hint for form-level errors.
type InvalidTransitionError struct {
	From   NamingState
	Event  string
	Reason string
	Field  string
}

func (e *InvalidTransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition: %s from %s: %s", e.Event, e.From, e.Reason)
	}
	return fmt.Sprintf("invalid transition: %s from %s", e.Event, e.From)
}

// Naming is the state machine for one group. The authoritative name can only
// ever be written by Confirm; pre-filled suggestions live in Suggested and
// stay non-authoritative.
type Naming struct {
	State     NamingState `json:"state"`
	Name      string      `json:"name,omitempty"`
	Suggested string      `json:"suggested,omitempty"`
	Draft     string      `json:"draft,omitempty"`
}

// NewNaming returns a machine in the EMPTY state.
func NewNaming() *Naming {
	return &Naming{State: StateEmpty}
}

// ShowSuggestion records a pre-filled display name (possibly empty when no
// geocode result was available) and moves EMPTY to SUGGESTED_SHOWN.
// Calling it again in SUGGESTED_SHOWN just refreshes the suggestion.
func (n *Naming) ShowSuggestion(suggested string) error {
	switch n.State {
	case StateEmpty, StateSuggestedShown:
		n.Suggested = suggested
		n.State = StateSuggestedShown
		return nil
	default:
		return &InvalidTransitionError{From: n.State, Event: "show_suggestion"}
	}
}

// Edit records user typing. Allowed from SUGGESTED_SHOWN and USER_EDITING,
// and from USER_CONFIRMED to re-open an already confirmed name.
func (n *Naming) Edit(draft string) error {
	switch n.State {
	case StateSuggestedShown, StateUserEditing, StateUserConfirmed:
		n.Draft = draft
		n.State = StateUserEditing
		return nil
	default:
		return &InvalidTransitionError{From: n.State, Event: "edit"}
	}
}

// Confirm makes a user-entered name authoritative. An empty or whitespace
// name is rejected and the machine drops into USER_EDITING so the UI can
// surface a field-level validation error. Re-confirming an unchanged name is
// a no-op. SKIPPED groups may be revisited and confirmed.
func (n *Naming) Confirm(name string) error {
	trimmed := strings.TrimSpace(name)

	switch n.State {
	case StateSuggestedShown, StateUserEditing, StateSkipped:
		if trimmed == "" {
			from := n.State
			n.State = StateUserEditing
			return &InvalidTransitionError{
				From: from, Event: "confirm",
				Reason: "name required", Field: "name",
			}
		}
		n.Name = trimmed
		n.Draft = ""
		n.State = StateUserConfirmed
		return nil
	case StateUserConfirmed:
		if trimmed == n.Name {
			return nil // idempotent re-confirm
		}
		return &InvalidTransitionError{
			From: n.State, Event: "confirm",
			Reason: "already confirmed; edit the name first",
		}
	default:
		return &InvalidTransitionError{From: n.State, Event: "confirm"}
	}
}

// Skip marks the group as deliberately left unassigned. No name is written.
// Skipping an already skipped group is a no-op; a confirmed group cannot be
// skipped without editing first.
func (n *Naming) Skip() error {
	switch n.State {
	case StateEmpty, StateSuggestedShown, StateUserEditing:
		n.Draft = ""
		n.State = StateSkipped
		return nil
	case StateSkipped:
		return nil
	default:
		return &InvalidTransitionError{From: n.State, Event: "skip"}
	}
}

// Reopen returns a decided group to USER_EDITING so the user can change
// their mind. A previously confirmed name becomes the editing draft and
// stops being authoritative.
func (n *Naming) Reopen() error {
	switch n.State {
	case StateUserConfirmed:
		n.Draft = n.Name
		n.Name = ""
		n.State = StateUserEditing
		return nil
	case StateSkipped:
		n.Draft = ""
		n.State = StateUserEditing
		return nil
	default:
		return &InvalidTransitionError{From: n.State, Event: "reopen"}
	}
}

// Terminal reports whether the group has reached a decision.
func (n *Naming) Terminal() bool {
	return n.State == StateUserConfirmed || n.State == StateSkipped
}
