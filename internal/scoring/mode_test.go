package scoring

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tcases := []struct {
		input    string
		expected Mode
		err      bool
	}{
		{input: "0", expected: ModeStoryPoint},
		{input: "1", expected: ModeWeightedRubric},
		{input: "storyPoint", expected: ModeStoryPoint},
		{input: "weightedRubric", expected: ModeWeightedRubric},
		{input: "2", err: true},
		{input: "", err: true},
	}

	for _, tc := range tcases {
		t.Run(tc.input, func(t *testing.T) {
			mode, err := ParseMode(tc.input)
			if tc.err {
				assert.Error(t, err, "expected error for mode %q", tc.input)
				return
			}
			assert.NoError(t, err, "expected no error for mode %q", tc.input)
			assert.Equal(t, tc.expected, mode)
		})
	}
}

func TestMode_JSON(t *testing.T) {
	out, err := json.Marshal(ModeWeightedRubric)
	require.NoError(t, err)
	assert.Equal(t, `"1"`, string(out), "expected mode to encode as its wire id")

	var mode Mode
	require.NoError(t, json.Unmarshal([]byte(`"0"`), &mode))
	assert.Equal(t, ModeStoryPoint, mode)

	require.NoError(t, json.Unmarshal([]byte(`1`), &mode))
	assert.Equal(t, ModeWeightedRubric, mode, "expected numeric mode ids to decode")

	assert.Error(t, json.Unmarshal([]byte(`"5"`), &mode), "expected unknown mode to fail")

	_, err = json.Marshal(Mode(9))
	assert.Error(t, err, "expected unknown mode to fail encoding")
}

func TestMode_Metrics(t *testing.T) {
	storyPoint := ModeStoryPoint.Metrics()
	require.Len(t, storyPoint, 1)
	assert.Equal(t, StoryPointMetric, storyPoint[0].Name)

	rubric := ModeWeightedRubric.Metrics()
	require.Len(t, rubric, 6)

	names := make([]string, len(rubric))
	weights := 0
	for i, m := range rubric {
		names[i] = m.Name
		weights += m.Weight
	}
	assert.Equal(t, []string{"developmentEase", "customerEffect", "performance", "security", "maintenance", StoryPointMetric}, names)
	assert.Equal(t, 95, weights, "expected catalog weights to be preserved")

	assert.Nil(t, Mode(4).Metrics(), "expected no metrics for an unknown mode")
}

func TestMode_MetricsAreCopies(t *testing.T) {
	metrics := ModeWeightedRubric.Metrics()
	metrics[0].Name = "changed"
	metrics[0].Points[0] = "changed"

	fresh := ModeWeightedRubric.Metrics()
	assert.Equal(t, "developmentEase", fresh[0].Name, "expected catalog entry to be immutable")
	assert.Equal(t, "1", fresh[0].Points[0], "expected catalog points to be immutable")
	assert.Equal(t, "1", fresh[1].Points[0], "expected shared point sets to be immutable")
}
