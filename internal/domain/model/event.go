package model

import (
	"encoding/json"
	"fmt"
)

// EventKind classifies a match event.
type EventKind int

const (
	EventGoal EventKind = iota + 1
	EventYellowCard
	EventRedCard
	EventSubstitution
	EventShot
	EventSave
	EventFoul
	EventCorner
	EventThrowIn
)

var eventKindNames = map[EventKind]string{
	EventGoal:         "goal",
	EventYellowCard:   "yellow-card",
	EventRedCard:      "red-card",
	EventSubstitution: "substitution",
	EventShot:         "shot",
	EventSave:         "save",
	EventFoul:         "foul",
	EventCorner:       "corner",
	EventThrowIn:      "throw-in",
}

// FillerKinds are the cosmetic kinds used to pad a timeline.
var FillerKinds = []EventKind{EventShot, EventSave, EventFoul, EventCorner, EventThrowIn}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// ParseEventKind maps a wire name back to its kind.
func ParseEventKind(s string) (EventKind, error) {
	for k, name := range eventKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

func (k EventKind) MarshalJSON() ([]byte, error) {
	name, ok := eventKindNames[k]
	if !ok {
		return nil, fmt.Errorf("unknown event kind %d", int(k))
	}
	return json.Marshal(name)
}

func (k *EventKind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseEventKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// MatchEvent is one entry of a match timeline. Side is 1 or 2.
type MatchEvent struct {
	Minute int       `json:"minute"`
	Kind   EventKind `json:"kind"`
	Actor  string    `json:"actor"`
	Side   int       `json:"side"`
	Note   string    `json:"note,omitempty"`
}
