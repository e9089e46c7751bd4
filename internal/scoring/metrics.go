package scoring

import "slices"

// StoryPointMetric is the metric name shared by both modes. In the weighted
// rubric it is informational and excluded from the headline score.
const StoryPointMetric = "storyPoint"

// Metric is one independently voted dimension of a mode.
type Metric struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Weight      int      `json:"weight,omitempty"`
	Points      []string `json:"points"`
	Text        string   `json:"text"`
}

var storyPointCatalog = []Metric{
	{
		ID:          1,
		Name:        StoryPointMetric,
		DisplayName: "Story Point",
		Points:      []string{"0.3", "1", "2", "3", "4", "5", "6", "7", "?", "break"},
		Text:        "Story point of task",
	},
}

var rubricPoints = []string{"1", "2", "3", "4", "5", "?"}

var weightedRubricCatalog = []Metric{
	{
		ID:          1,
		Name:        "developmentEase",
		DisplayName: "Development Ease",
		Weight:      20,
		Points:      rubricPoints,
		Text:        "Complexity and time taken by the developer when preparing a product at the time of development. 1 - very complex, 5 - not that complex",
	},
	{
		ID:          2,
		Name:        "customerEffect",
		DisplayName: "Customer Effect",
		Weight:      10,
		Points:      rubricPoints,
		Text:        "Impact on the customer 1 - very bad, 5 - very good",
	},
	{
		ID:          3,
		Name:        "performance",
		DisplayName: "Performance",
		Weight:      30,
		Points:      rubricPoints,
		Text:        "Contribution to performance 1 - very bad, 5 - very good",
	},
	{
		ID:          4,
		Name:        "security",
		DisplayName: "Security",
		Weight:      10,
		Points:      rubricPoints,
		Text:        "Impact on web security 1 - very bad, 5 - very good",
	},
	{
		ID:          5,
		Name:        "maintenance",
		DisplayName: "Maintenance",
		Weight:      25,
		Points:      rubricPoints,
		Text:        "How developer-friendly the post-development process is (after the product is released) 1 - very bad, 5 - very good",
	},
	{
		ID:          6,
		Name:        StoryPointMetric,
		DisplayName: "Story Point",
		Weight:      0,
		Points:      []string{"1", "2", "3", "5", "8", "13", "21", "?"},
		Text:        "Story point of task",
	},
}

// Metrics returns a copy of the mode's catalog. Callers may modify the
// returned slice freely.
func (m Mode) Metrics() []Metric {
	var catalog []Metric
	switch m {
	case ModeStoryPoint:
		catalog = storyPointCatalog
	case ModeWeightedRubric:
		catalog = weightedRubricCatalog
	default:
		return nil
	}

	metrics := make([]Metric, len(catalog))
	for i, metric := range catalog {
		metric.Points = slices.Clone(metric.Points)
		metrics[i] = metric
	}
	return metrics
}
