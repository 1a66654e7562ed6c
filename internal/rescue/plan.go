package rescue

// Action types in a rescue plan.
const (
	ActionCreateProject  = "create_project"
	ActionKeepUnassigned = "keep_unassigned"
)

// Group is the plan generator's view of one suggested cluster: its photos
// and the confirmation state the user left it in.
type Group struct {
	ID       string
	PhotoIDs []string
	Naming   *Naming
}

// Action is one entry of a rescue plan. A create_project action carries the
// confirmed name; the keep_unassigned action aggregates everything else.
type Action struct {
	Type     string   `json:"type"`
	GroupID  string   `json:"group_id,omitempty"`
	Name     string   `json:"name,omitempty"`
	PhotoIDs []string `json:"photo_ids"`
}

// Summary reports the plan's totals. It is always derived by counting the
// actions, never computed independently, so it cannot drift from them.
type Summary struct {
	ProjectsToCreate int `json:"projects_to_create"`
	PhotosToOrganize int `json:"photos_to_organize"`
	PhotosUnassigned int `json:"photos_unassigned"`
}

// Plan is the reviewable action list generated from confirm/skip decisions.
// Generating a plan never mutates anything; applying it belongs to an
// external collaborator.
type Plan struct {
	ScanID  string   `json:"scan_id"`
	Actions []Action `json:"actions"`
	Summary Summary  `json:"summary"`
}

// GeneratePlan converts confirmation state into an explicit action list: one
// create_project per USER_CONFIRMED group, and a single aggregated
// keep_unassigned action covering every other group's photos (skipped or
// still undecided).
func GeneratePlan(scanID string, groups []Group) Plan {
	actions := []Action{}
	var unassigned []string

	for _, g := range groups {
		if g.Naming != nil && g.Naming.State == StateUserConfirmed {
			actions = append(actions, Action{
				Type:     ActionCreateProject,
				GroupID:  g.ID,
				Name:     g.Naming.Name,
				PhotoIDs: append([]string{}, g.PhotoIDs...),
			})
			continue
		}
		unassigned = append(unassigned, g.PhotoIDs...)
	}

	if len(unassigned) > 0 {
		actions = append(actions, Action{
			Type:     ActionKeepUnassigned,
			PhotoIDs: unassigned,
		})
	}

	return Plan{ScanID: scanID, Actions: actions, Summary: summarize(actions)}
}

func summarize(actions []Action) Summary {
	var s Summary
	for _, a := range actions {
		switch a.Type {
		case ActionCreateProject:
			s.ProjectsToCreate++
			s.PhotosToOrganize += len(a.PhotoIDs)
		case ActionKeepUnassigned:
			s.PhotosUnassigned += len(a.PhotoIDs)
		}
	}
	return s
}
