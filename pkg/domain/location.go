package domain

import "slices"

// Location is a node of the location graph. ConnectedTo holds directed edges.
type Location struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ConnectedTo []string `json:"connected_to,omitempty"`
	Occupants   []string `json:"occupants,omitempty"`
}

// ConnectsTo reports whether there is an edge from l to id.
func (l Location) ConnectsTo(id string) bool {
	return slices.Contains(l.ConnectedTo, id)
}

// Clone returns a deep copy of l.
func (l Location) Clone() Location {
	l.ConnectedTo = slices.Clone(l.ConnectedTo)
	l.Occupants = slices.Clone(l.Occupants)
	return l
}
