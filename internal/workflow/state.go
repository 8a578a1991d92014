package workflow

import (
	"sort"
	"time"
)

// Status is the lifecycle state of a whole goal run.
type Status string

const (
	StatusRunning          Status = "running"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusCompleted        Status = "completed"
	StatusFailed           Status = "failed"
	StatusCancelled        Status = "cancelled"
)

// Terminal reports whether the run can no longer change.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// StepStatus is the lifecycle state of a single step within a run.
type StepStatus string

const (
	StepWaiting    StepStatus = "waiting"
	StepInProgress StepStatus = "in_progress"
	StepDone       StepStatus = "done"
	StepFailed     StepStatus = "failed"
)

// Terminal reports whether the step can no longer change.
func (s StepStatus) Terminal() bool {
	return s == StepDone || s == StepFailed
}

// StepRecord is one unit of requested work inside a goal run. Payload is
// opaque to the engine; only the executor and the specification interpret it.
type StepRecord struct {
	Kind      string
	Status    StepStatus
	Payload   any
	CreatedAt time.Time
	// Failure holds the typed executor error for a failed step. The
	// specification reads it from state to decide retry versus escalate;
	// it stays nil for every other status.
	Failure *AgentError
}

// LogLevel classifies a LogEntry.
type LogLevel string

const (
	LogInfo LogLevel = "info"
	LogWarn LogLevel = "warn"
)

// LogEntry is one append-only record of an engine transition. Entries are
// part of the state value itself, distinct from operational slog output.
type LogEntry struct {
	Seq     int
	At      time.Time
	Level   LogLevel
	Message string
	StepID  string
}

// State is the canonical ledger of one goal run: every requested step,
// every accumulated artifact, and the ordered transition log.
//
// State values are immutable. Transition functions return a new State that
// shares unmodified maps with its predecessor only through the clone
// helpers below; callers must never mutate a State they received.
type State struct {
	GoalID    string
	Status    Status
	Steps     map[string]StepRecord
	Artifacts map[string]any
	Log       []LogEntry
}

// NewState creates the initial ledger for a goal run.
func NewState(goalID string) State {
	return State{
		GoalID:    goalID,
		Status:    StatusRunning,
		Steps:     map[string]StepRecord{},
		Artifacts: map[string]any{},
		Log:       nil,
	}
}

// StepsWithStatus returns the IDs of all steps currently in the given
// status, in lexicographic order so callers iterate deterministically.
func (s State) StepsWithStatus(status StepStatus) []string {
	var ids []string
	for id, rec := range s.Steps {
		if rec.Status == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// OpenSteps reports whether any step is still waiting or in progress.
func (s State) OpenSteps() bool {
	for _, rec := range s.Steps {
		if !rec.Status.Terminal() {
			return true
		}
	}
	return false
}

// cloneSteps returns a fresh step map one entry larger than the source.
func (s State) cloneSteps() map[string]StepRecord {
	steps := make(map[string]StepRecord, len(s.Steps)+1)
	for id, rec := range s.Steps {
		steps[id] = rec
	}
	return steps
}

// cloneArtifacts returns a fresh artifact map one entry larger than the source.
func (s State) cloneArtifacts() map[string]any {
	arts := make(map[string]any, len(s.Artifacts)+1)
	for k, v := range s.Artifacts {
		arts[k] = v
	}
	return arts
}

// appendLog returns a fresh log slice with the entry appended. The shared
// backing array is never written through: the copy guarantees the previous
// State's log is untouched even if both values keep growing.
func (s State) appendLog(entry LogEntry) []LogEntry {
	log := make([]LogEntry, len(s.Log), len(s.Log)+1)
	copy(log, s.Log)
	return append(log, entry)
}
