package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	UnknownVote = "?"
	BreakVote   = "break"
)

// VoteKind tags the variant held by a Vote.
type VoteKind int

const (
	VoteBlank VoteKind = iota
	VoteNumeric
	VoteUnknown
	VoteBreak
	VoteInvalid
)

// Vote is a single participant's choice for one metric. It is parsed once
// when the vote is received and keeps its raw text for the wire.
type Vote struct {
	Kind  VoteKind
	Value float64
	raw   string
	// falsy marks a JSON number zero, which reads as no vote.
	falsy bool
}

// Votes maps metric names to votes.
type Votes map[string]Vote

func ParseVote(raw string) Vote {
	switch raw {
	case "":
		return Vote{Kind: VoteBlank}
	case UnknownVote:
		return Vote{Kind: VoteUnknown, raw: raw}
	case BreakVote:
		return Vote{Kind: VoteBreak, raw: raw}
	}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		// whitespace only reads as zero
		return Vote{Kind: VoteNumeric, raw: raw}
	}

	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return Vote{Kind: VoteInvalid, raw: raw}
	}

	return Vote{Kind: VoteNumeric, Value: v, raw: raw}
}

// NumericVote builds a numeric vote from a number.
func NumericVote(v float64) Vote {
	return Vote{Kind: VoteNumeric, Value: v, raw: strconv.FormatFloat(v, 'f', -1, 64)}
}

func (v Vote) String() string {
	return v.raw
}

// Present reports whether a non-empty value was cast. A number zero is not
// a cast value, while the text "0" is.
func (v Vote) Present() bool {
	return v.raw != "" && !v.falsy
}

// Scorable returns the numeric value of the vote when it contributes to an
// average. Zero never contributes, so a "0" vote behaves like no vote.
func (v Vote) Scorable() (float64, bool) {
	if v.Kind != VoteNumeric || v.Value == 0 {
		return 0, false
	}
	return v.Value, true
}

func (v Vote) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.raw)
}

func (v *Vote) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = ParseVote(s)
		return nil
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("vote must be a string or number: %w", err)
	}
	*v = NumericVote(n)
	v.falsy = n == 0
	return nil
}

// ParseVotes converts raw metric/value pairs into Votes.
func ParseVotes(raw map[string]string) Votes {
	if raw == nil {
		return nil
	}

	votes := make(Votes, len(raw))
	for metric, value := range raw {
		votes[metric] = ParseVote(value)
	}
	return votes
}

// Clone returns a copy of the votes. A nil map stays nil.
func (vs Votes) Clone() Votes {
	if vs == nil {
		return nil
	}

	c := make(Votes, len(vs))
	for k, v := range vs {
		c[k] = v
	}
	return c
}
