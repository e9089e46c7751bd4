package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Mode selects the scoring scheme of a grooming session. It is fixed when the
// room is created.
type Mode int

const (
	// ModeStoryPoint averages a single story point metric and snaps the
	// result to the Fibonacci scale.
	ModeStoryPoint Mode = iota
	// ModeWeightedRubric scores five 1-5 dimensions and reports story points
	// as an informational sixth metric.
	ModeWeightedRubric
)

func (m Mode) String() string {
	switch m {
	case ModeStoryPoint:
		return "storyPoint"
	case ModeWeightedRubric:
		return "weightedRubric"
	default:
		return "mode(" + strconv.Itoa(int(m)) + ")"
	}
}

func (m Mode) Valid() bool {
	return m == ModeStoryPoint || m == ModeWeightedRubric
}

// ParseMode accepts the wire ids "0" and "1" as well as the mode names.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "0", "storyPoint":
		return ModeStoryPoint, nil
	case "1", "weightedRubric":
		return ModeWeightedRubric, nil
	}
	return 0, fmt.Errorf("unknown grooming mode %q", s)
}

// MarshalJSON encodes the mode as its wire id ("0" or "1").
func (m Mode) MarshalJSON() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("unknown grooming mode %d", int(m))
	}
	return json.Marshal(strconv.Itoa(int(m)))
}

func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("grooming mode must be a string or number: %w", err)
		}
		s = strconv.Itoa(n)
	}

	mode, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = mode
	return nil
}
