package domain

// ReconcileResult tags how a record reached the observation store.
type ReconcileResult int

const (
	Inserted ReconcileResult = iota + 1
	Updated
	Failed
)

func (r ReconcileResult) String() string {
	switch r {
	case Inserted:
		return "inserted"
	case Updated:
		return "updated"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// ReconcileOutcome is the result of reconciling one normalized record.
// Observation holds the stored row for Inserted and Updated; Reason is set
// only for Failed.
type ReconcileOutcome struct {
	Result      ReconcileResult
	Observation Observation
	Ignored     []string
	Reason      error
}
