package entities

import "time"

// StageEventKind is the closed discriminator for the event bus's typed
// payloads (spec §4.8, §9 "tagged variants with a closed discriminator").
type StageEventKind string

const (
	StageStart    StageEventKind = "stage:start"
	StageComplete StageEventKind = "stage:complete"
	StageError    StageEventKind = "stage:error"
)

// StageEvent is the payload published for every pipeline stage transition.
type StageEvent struct {
	Kind          StageEventKind
	Stage         string
	Timestamp     time.Time
	CorrelationID string
	Attributes    map[string]any
	Err           error
}
