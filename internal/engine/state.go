package engine

import (
	"fmt"
	"strings"
)

// State is the lifecycle phase of an Engine.
type State int32

const (
	Idle State = iota
	Configuring
	Visiting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Configuring:
		return "configuring"
	case Visiting:
		return "visiting"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Mode selects how Run orders scanning and injection.
type Mode int

const (
	Barrier Mode = iota
	Streaming
)

func (m Mode) String() string {
	switch m {
	case Barrier:
		return "barrier"
	case Streaming:
		return "streaming"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode maps "barrier" and "streaming" to their Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "barrier":
		return Barrier, nil
	case "streaming":
		return Streaming, nil
	default:
		return 0, fmt.Errorf("unknown mode %q, want barrier or streaming", s)
	}
}
