package models

// ReconcileAction describes what the reconcile service did to a catalog
// entity, or to an index membership entry, for one scraped snapshot. Actions
// are always reported back to the caller, including the no-change case.
type ReconcileAction int

const (
	ActionNone ReconcileAction = iota
	ActionCreated
	ActionUpdated
	ActionAdded
	ActionRemoved
)

var actionNames = map[ReconcileAction]string{
	ActionNone:    "none",
	ActionCreated: "created",
	ActionUpdated: "updated",
	ActionAdded:   "added",
	ActionRemoved: "removed",
}

func (a ReconcileAction) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// IndexResult pairs a reconciled index with the action taken on it
type IndexResult struct {
	Index  *Index          `json:"index"`
	Action ReconcileAction `json:"action"`
}

// AssetResult pairs a reconciled asset with the action taken on it
type AssetResult struct {
	Asset  *Asset          `json:"asset"`
	Action ReconcileAction `json:"action"`
}

// ConstituentResult reports the outcome of reconciling one index constituent.
// FieldAction covers the asset's own identity fields, MembershipAction covers
// its presence in the index's constituent set. The two are independent and
// never merged: an asset can be updated yet keep its membership untouched.
type ConstituentResult struct {
	Asset            *Asset          `json:"asset"`
	FieldAction      ReconcileAction `json:"field_action"`
	MembershipAction ReconcileAction `json:"membership_action"`
}
