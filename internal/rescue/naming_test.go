package rescue

import (
	"errors"
	"testing"
)

func TestNaming_ConfirmFlow(t *testing.T) {
	n := NewNaming()
	if n.State != StateEmpty {
		t.Fatalf("initial state = %s, want EMPTY", n.State)
	}

	if err := n.ShowSuggestion("123 Main St"); err != nil {
		t.Fatalf("ShowSuggestion: %v", err)
	}
	if n.State != StateSuggestedShown || n.Suggested != "123 Main St" {
		t.Fatalf("after suggestion: state=%s suggested=%q", n.State, n.Suggested)
	}
	if n.Name != "" {
		t.Fatal("pre-fill must not write the authoritative name")
	}

	if err := n.Edit("Main St"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if n.State != StateUserEditing {
		t.Fatalf("after edit: state=%s", n.State)
	}

	if err := n.Confirm("Main St Job"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if n.State != StateUserConfirmed || n.Name != "Main St Job" {
		t.Fatalf("after confirm: state=%s name=%q", n.State, n.Name)
	}
}

// Full confirm/skip cycle: suggestion shown, user clears the field,
// skips, then revisits and confirms.
func TestNaming_SkipThenRevisit(t *testing.T) {
	n := NewNaming()
	if err := n.ShowSuggestion("123 Main St"); err != nil {
		t.Fatalf("ShowSuggestion: %v", err)
	}
	if err := n.Edit(""); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := n.Skip(); err != nil {
		t.Fatalf("Skip: %v", err)
	}
	if n.State != StateSkipped || n.Name != "" {
		t.Fatalf("after skip: state=%s name=%q", n.State, n.Name)
	}

	if err := n.Confirm("Main St Job"); err != nil {
		t.Fatalf("Confirm after skip: %v", err)
	}
	if n.State != StateUserConfirmed || n.Name != "Main St Job" {
		t.Fatalf("after revisit: state=%s name=%q, want USER_CONFIRMED %q", n.State, n.Name, "Main St Job")
	}
}

func TestNaming_EmptyNameRejected(t *testing.T) {
	n := NewNaming()
	_ = n.ShowSuggestion("")

	err := n.Confirm("   ")
	var tErr *InvalidTransitionError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	if tErr.Field != "name" {
		t.Errorf("validation field = %q, want name", tErr.Field)
	}
	if tErr.From != StateSuggestedShown {
		t.Errorf("error From = %s, want the state before the rejected confirm", tErr.From)
	}
	if n.State != StateUserEditing {
		t.Errorf("state after empty confirm = %s, want USER_EDITING", n.State)
	}
	if n.Name != "" {
		t.Error("empty confirm must not write a name")
	}
}

func TestNaming_IdempotentReconfirm(t *testing.T) {
	n := NewNaming()
	_ = n.ShowSuggestion("")
	if err := n.Confirm("Depot"); err != nil {
		t.Fatalf("Confirm: %v", err)
	}

	// Same name: no-op.
	if err := n.Confirm("Depot"); err != nil {
		t.Errorf("idempotent re-confirm returned %v", err)
	}
	// Different name without editing first: rejected, state unchanged.
	if err := n.Confirm("Warehouse"); err == nil {
		t.Error("expected rejection for direct rename")
	}
	if n.Name != "Depot" || n.State != StateUserConfirmed {
		t.Errorf("state mutated by rejected confirm: %s %q", n.State, n.Name)
	}

	// Editing reopens the name for a new confirmation.
	if err := n.Edit("Warehouse"); err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if err := n.Confirm("Warehouse"); err != nil {
		t.Fatalf("Confirm after edit: %v", err)
	}
	if n.Name != "Warehouse" {
		t.Errorf("name = %q, want Warehouse", n.Name)
	}
}

func TestNaming_SkipRules(t *testing.T) {
	n := NewNaming()
	if err := n.Skip(); err != nil {
		t.Fatalf("skip from EMPTY: %v", err)
	}
	if err := n.Skip(); err != nil {
		t.Errorf("skip of skipped group should be a no-op, got %v", err)
	}

	confirmed := NewNaming()
	_ = confirmed.ShowSuggestion("")
	_ = confirmed.Confirm("Site A")
	if err := confirmed.Skip(); err == nil {
		t.Error("skipping a confirmed group must be rejected")
	}
	if confirmed.State != StateUserConfirmed {
		t.Errorf("state changed by rejected skip: %s", confirmed.State)
	}
}

func TestNaming_Reopen(t *testing.T) {
	n := NewNaming()
	_ = n.ShowSuggestion("")
	_ = n.Confirm("Main St Job")

	if err := n.Reopen(); err != nil {
		t.Fatalf("Reopen: %v", err)
	}
	if n.State != StateUserEditing {
		t.Errorf("state = %s, want USER_EDITING", n.State)
	}
	if n.Name != "" {
		t.Error("reopened name must stop being authoritative")
	}
	if n.Draft != "Main St Job" {
		t.Errorf("draft = %q, want previous name", n.Draft)
	}

	skipped := NewNaming()
	_ = skipped.Skip()
	if err := skipped.Reopen(); err != nil {
		t.Fatalf("Reopen skipped: %v", err)
	}
	if skipped.State != StateUserEditing {
		t.Errorf("state = %s, want USER_EDITING", skipped.State)
	}

	fresh := NewNaming()
	if err := fresh.Reopen(); err == nil {
		t.Error("reopen of an undecided group must be rejected")
	}
}

func TestNaming_EditFromEmptyRejected(t *testing.T) {
	n := NewNaming()
	if err := n.Edit("x"); err == nil {
		t.Error("edit before suggestion shown must be rejected")
	}
	if n.State != StateEmpty {
		t.Errorf("state = %s, want EMPTY", n.State)
	}
}

func TestNaming_ConfirmTrimsWhitespace(t *testing.T) {
	n := NewNaming()
	_ = n.ShowSuggestion("")
	if err := n.Confirm("  Main St Job  "); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if n.Name != "Main St Job" {
		t.Errorf("name = %q, want trimmed", n.Name)
	}
}
