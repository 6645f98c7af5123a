package selection

import "github.com/matzehuels/feedsolve/pkg/version"

// ChangeKind classifies a Change.
type ChangeKind int

const (
	Added ChangeKind = iota
	Removed
	Updated
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Removed:
		return "removed"
	}
	return "updated"
}

// Change describes how one interface differs between two Selections.
// OldVersion is zero for Added; NewVersion is zero for Removed.
type Change struct {
	Kind         ChangeKind
	InterfaceURI string
	OldVersion   version.Version
	NewVersion   version.Version
}

// GetDiff compares two selections documents. Removed interfaces come first
// in old order, followed by added and updated interfaces in new order.
// Interfaces whose version is unchanged produce no entry.
func GetDiff(before, after *Selections) []Change {
	var changes []Change
	for _, o := range before.Implementations {
		if !after.Contains(o.InterfaceURI) {
			changes = append(changes, Change{Kind: Removed, InterfaceURI: o.InterfaceURI, OldVersion: o.Version})
		}
	}
	for _, n := range after.Implementations {
		o := before.Get(n.InterfaceURI)
		switch {
		case o == nil:
			changes = append(changes, Change{Kind: Added, InterfaceURI: n.InterfaceURI, NewVersion: n.Version})
		case !o.Version.Equal(n.Version):
			changes = append(changes, Change{Kind: Updated, InterfaceURI: n.InterfaceURI,
				OldVersion: o.Version, NewVersion: n.Version})
		}
	}
	return changes
}
