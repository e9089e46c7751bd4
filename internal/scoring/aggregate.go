package scoring

import (
	"encoding/json"
	"strconv"
)

// ZeroScore is the score of a session without computed votes.
const ZeroScore = "0"

// Ballot is the scoring view of one participant.
type Ballot struct {
	// Votes is nil when the participant never voted; an empty map means
	// the votes were cleared by a reset.
	Votes     Votes
	Connected bool
}

// MetricStats summarizes the votes cast for one metric.
type MetricStats struct {
	Total        float64
	Average      string
	MissingVotes int
	// numeric is set when Average goes on the wire as a number rather than
	// as fixed point text.
	numeric bool
}

type metricStatsJSON struct {
	Total        float64         `json:"total"`
	Average      json.RawMessage `json:"average"`
	MissingVotes int             `json:"missing_votes"`
}

func (s MetricStats) MarshalJSON() ([]byte, error) {
	avg, err := json.Marshal(s.Average)
	if err != nil {
		return nil, err
	}
	if s.numeric && s.Average != "" {
		avg = json.RawMessage(s.Average)
	}

	return json.Marshal(metricStatsJSON{
		Total:        s.Total,
		Average:      avg,
		MissingVotes: s.MissingVotes,
	})
}

func (s *MetricStats) UnmarshalJSON(data []byte) error {
	var w metricStatsJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*s = MetricStats{Total: w.Total, MissingVotes: w.MissingVotes}
	if len(w.Average) == 0 {
		return nil
	}
	if err := json.Unmarshal(w.Average, &s.Average); err == nil {
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(w.Average, &n); err != nil {
		return err
	}
	s.Average, s.numeric = n.String(), true
	return nil
}

// Result is the outcome of a score computation.
type Result struct {
	Score string
	// MetricAverages is only set by the weighted rubric.
	MetricAverages map[string]MetricStats
}

// Aggregate computes the headline score for the mode from the participants'
// ballots.
func Aggregate(mode Mode, ballots []Ballot) Result {
	switch mode {
	case ModeStoryPoint:
		return Result{Score: storyPointScore(ballots)}
	case ModeWeightedRubric:
		return weightedRubricScore(mode.Metrics(), ballots)
	default:
		return Result{Score: ZeroScore}
	}
}

func storyPointScore(ballots []Ballot) string {
	var (
		voters int
		total  float64
	)

	for _, b := range ballots {
		if len(b.Votes) == 0 {
			continue
		}

		if v, ok := b.Votes[StoryPointMetric].Scorable(); ok {
			voters++
			total += v
		}
	}

	// 0/0 is NaN, which rounds to 0
	return FormatFixed(ClosestFibonacci(total/float64(voters)), 2)
}

func weightedRubricScore(metrics []Metric, ballots []Ballot) Result {
	stats := make(map[string]MetricStats, len(metrics))

	for _, metric := range metrics {
		var s MetricStats
		for _, b := range ballots {
			s.MissingVotes += missingVotes(b, metric.Name)

			if b.Votes == nil || !b.Connected {
				continue
			}
			if v, ok := b.Votes[metric.Name].Scorable(); ok {
				s.Total += v
			}
		}

		voters := len(ballots) - s.MissingVotes
		switch {
		case voters <= 0:
			s.Average, s.numeric = formatPlain(0), true
		case metric.Name == StoryPointMetric:
			s.Average, s.numeric = formatPlain(ClosestFibonacci(s.Total/float64(voters))), true
		default:
			s.Average = FormatFixed(s.Total/float64(voters), 2)
		}

		stats[metric.Name] = s
	}

	var (
		scored     int
		averageSum float64
	)
	for _, metric := range metrics {
		if metric.Name == StoryPointMetric {
			continue
		}

		avg, _ := strconv.ParseFloat(stats[metric.Name].Average, 64)
		averageSum += avg
		scored++
	}

	score := (averageSum/float64(scored))*25 - 25
	return Result{
		Score:          FormatFixed(score, 2),
		MetricAverages: stats,
	}
}

// missingVotes counts how many times a ballot is considered missing for the
// metric. The checks are independent, so a disconnected participant without
// a vote, or with a "?" vote, counts twice.
func missingVotes(b Ballot, metric string) int {
	n := 0
	if b.Votes == nil {
		n++
	}

	vote, ok := b.Votes[metric]
	if (b.Votes != nil && !(ok && vote.Present())) || !b.Connected {
		n++
	}

	if ok && vote.Kind == VoteUnknown {
		n++
	}

	return n
}
