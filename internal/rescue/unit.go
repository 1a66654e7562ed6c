package rescue

// Unit identifies a building unit assignment. The zero value means
// unassigned, which removes the null-as-valid-value ambiguity a nullable
// string would carry.
type Unit struct {
	Assigned bool   `json:"assigned"`
	ID       string `json:"id,omitempty"`
}

// Unassigned is the zero Unit.
var Unassigned = Unit{}

// UnitOf returns an assigned Unit with the given id.
func UnitOf(id string) Unit {
	return Unit{Assigned: true, ID: id}
}

func (u Unit) String() string {
	if !u.Assigned {
		return "unassigned"
	}
	return u.ID
}
