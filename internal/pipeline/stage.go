package pipeline

// Stage is a state of one input's run. Runs move strictly forward through
// the stages in declaration order; any failure ends in Failed.
type Stage string

const (
	Pending   Stage = "pending"
	Loaded    Stage = "loaded"
	Cleaned   Stage = "cleaned"
	Encoded   Stage = "encoded"
	Split     Stage = "split"
	Scaled    Stage = "scaled"
	Trained   Stage = "trained"
	Evaluated Stage = "evaluated"
	Persisted Stage = "persisted"
	Failed    Stage = "failed"
)

var order = []Stage{Pending, Loaded, Cleaned, Encoded, Split, Scaled, Trained, Evaluated, Persisted}

// Next returns the stage that follows s, or Failed for terminal stages.
func (s Stage) Next() Stage {
	for i, st := range order[:len(order)-1] {
		if st == s {
			return order[i+1]
		}
	}
	return Failed
}
