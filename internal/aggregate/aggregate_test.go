package aggregate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectraweb/internal/predict"
)

func pet(progress, microbe string) predict.Result {
	return predict.Result{PlasticType: "PET", DegradationProgress: progress, RecommendedMicrobe: microbe}
}

func TestByPlasticKeepsHighestProgress(t *testing.T) {
	in := []predict.Result{
		pet("10%", "a"),
		pet("40%", "b"),
		pet("25%", "c"),
	}
	out := ByPlastic(in)
	require.Len(t, out, 1)
	assert.Equal(t, 3, out[0].Count)
	assert.Equal(t, "40%", out[0].DegradationProgress)
	assert.Equal(t, "b", out[0].RecommendedMicrobe)

	// input untouched
	assert.Equal(t, 0, in[0].Count)
}

func TestByPlasticFirstSeenOrder(t *testing.T) {
	out := ByPlastic([]predict.Result{
		{PlasticType: "PP", DegradationProgress: "5.0%"},
		{PlasticType: "PET", DegradationProgress: "1.0%"},
		{PlasticType: "PP", DegradationProgress: "9.5%"},
		{PlasticType: "PE", DegradationProgress: "2.0%"},
	})
	require.Len(t, out, 3)
	assert.Equal(t, []string{"PP", "PET", "PE"}, []string{out[0].PlasticType, out[1].PlasticType, out[2].PlasticType})
	assert.Equal(t, []int{2, 1, 1}, []int{out[0].Count, out[1].Count, out[2].Count})
	assert.Equal(t, "9.5%", out[0].DegradationProgress)
}

func TestByPlasticTiesAndGarbage(t *testing.T) {
	out := ByPlastic([]predict.Result{
		pet("20%", "first"),
		pet("20%", "tie"),
		pet("n/a", "garbage"),
	})
	require.Len(t, out, 1)
	assert.Equal(t, "first", out[0].RecommendedMicrobe)
	assert.Equal(t, 3, out[0].Count)

	out = ByPlastic([]predict.Result{pet("n/a", "garbage"), pet("99%", "later")})
	assert.Equal(t, "garbage", out[0].RecommendedMicrobe)
}

func TestByPlasticEmpty(t *testing.T) {
	assert.Empty(t, ByPlastic(nil))
}

func TestParseProgress(t *testing.T) {
	cases := map[string]float64{"40%": 40, " 12.5 % ": 12.5, "0.0%": 0, "7": 7}
	for in, want := range cases {
		got, ok := ParseProgress(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseProgress("")
	assert.False(t, ok)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]predict.Result{
		{PlasticType: "PET", DegradationProgress: "40%", Count: 3},
		{PlasticType: "PE", DegradationProgress: "20%"},
		{PlasticType: "PP", DegradationProgress: "bogus"},
	})
	assert.Equal(t, 5, s.Samples)
	assert.Equal(t, 3, s.Groups)
	assert.InDelta(t, 30.0, s.MeanProgress, 1e-9)
	assert.Equal(t, 40.0, s.MaxProgress)

	assert.Equal(t, Summary{}, Summarize(nil))
}
