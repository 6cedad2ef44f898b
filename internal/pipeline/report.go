package pipeline

import "time"

// Phase is a step of an ingestion cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseResolvingTimestep
	PhaseLocatingFile
	PhaseConverting
	PhaseDecoding
	PhaseReconciling
	PhaseUpdatingState
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResolvingTimestep:
		return "resolving_timestep"
	case PhaseLocatingFile:
		return "locating_file"
	case PhaseConverting:
		return "converting"
	case PhaseDecoding:
		return "decoding"
	case PhaseReconciling:
		return "reconciling"
	case PhaseUpdatingState:
		return "updating_state"
	default:
		return "unknown"
	}
}

// Outcome is how a cycle ended.
type Outcome int

const (
	// OutcomeCompleted means the timestep was ingested and the state advanced.
	OutcomeCompleted Outcome = iota + 1
	// OutcomeSkipped means the timestep's file is not published yet.
	OutcomeSkipped
	// OutcomeAborted means a hard failure; the state is unchanged.
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// CycleReport summarizes one cycle. Phase is the last phase entered, which
// for aborted cycles is the one that failed.
type CycleReport struct {
	Timestep   time.Time
	Outcome    Outcome
	Phase      Phase
	Records    int
	Inserted   int
	Updated    int
	Failed     int
	Unresolved int
	Err        error
}

func (r CycleReport) abort(err error) CycleReport {
	r.Outcome = OutcomeAborted
	r.Err = err
	return r
}
