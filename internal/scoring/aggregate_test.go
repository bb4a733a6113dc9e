package scoring

import (
	"encoding/json"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_Scenarios(t *testing.T) {
	t.Run("mixed chapter and statuses", func(t *testing.T) {
		agg := Compute([]Outcome{
			{Number: 1, Chapter: "Mechanics", Status: Correct},
			{Number: 2, Chapter: "Mechanics", Status: Wrong},
			{Number: 3, Chapter: "", Status: NotAttempted},
		})

		assert.Equal(t, 1, agg.Correct)
		assert.Equal(t, 1, agg.Wrong)
		assert.Equal(t, 1, agg.NotAttempted)
		assert.Equal(t, 3, agg.Score)
		assert.Equal(t, []string{"Mechanics", "Mixed"}, agg.ByChapter.Keys())

		mech, ok := agg.ByChapter.Get("Mechanics")
		require.True(t, ok)
		assert.Equal(t, ChapterStats{Correct: 1, Wrong: 1, NotAttempted: 0, Score: 3}, mech)

		mixed, ok := agg.ByChapter.Get("Mixed")
		require.True(t, ok)
		assert.Equal(t, ChapterStats{NotAttempted: 1}, mixed)
	})

	t.Run("all correct in one chapter", func(t *testing.T) {
		var in []Outcome
		for i := 1; i <= 4; i++ {
			in = append(in, Outcome{Number: i, Chapter: "Genetics & Evolution", Status: Correct})
		}
		agg := Compute(in)

		assert.Equal(t, 16, agg.Score)
		assert.Equal(t, 4, agg.Correct)
		assert.Zero(t, agg.Wrong)
		assert.Zero(t, agg.NotAttempted)
		require.Equal(t, 1, agg.ByChapter.Len())
		st, _ := agg.ByChapter.Get("Genetics & Evolution")
		assert.Equal(t, 16, st.Score)
	})

	t.Run("empty input", func(t *testing.T) {
		agg := Compute(nil)

		assert.Zero(t, agg.Correct)
		assert.Zero(t, agg.Wrong)
		assert.Zero(t, agg.NotAttempted)
		assert.Zero(t, agg.Score)
		assert.Zero(t, agg.ByChapter.Len())

		out, err := json.Marshal(agg)
		require.NoError(t, err)
		assert.JSONEq(t, `{"correct":0,"wrong":0,"notAttempted":0,"score":0,"byChapter":{}}`, string(out))
	})

	t.Run("padded chapter label", func(t *testing.T) {
		agg := Compute([]Outcome{{Number: 1, Chapter: "  Optics  ", Status: Wrong}})

		assert.Equal(t, -1, agg.Score)
		assert.Equal(t, []string{"Optics"}, agg.ByChapter.Keys())
		st, ok := agg.ByChapter.Get("Optics")
		require.True(t, ok)
		assert.Equal(t, ChapterStats{Wrong: 1, Score: -1}, st)
	})
}

func TestNormalizeChapter(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", MixedChapter},
		{"   ", MixedChapter},
		{"\t\n", MixedChapter},
		{"Optics", "Optics"},
		{"  Optics", "Optics"},
		{"Optics \t", "Optics"},
		{"Ray  Optics", "Ray  Optics"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeChapter(tt.in), "input %q", tt.in)
	}
}

func TestCompute_WhitespaceVariantsShareKey(t *testing.T) {
	agg := Compute([]Outcome{
		{Number: 1, Chapter: "Thermodynamics", Status: Correct},
		{Number: 2, Chapter: " Thermodynamics", Status: Correct},
		{Number: 3, Chapter: "Thermodynamics  ", Status: Wrong},
	})

	require.Equal(t, 1, agg.ByChapter.Len())
	st, _ := agg.ByChapter.Get("Thermodynamics")
	assert.Equal(t, ChapterStats{Correct: 2, Wrong: 1, Score: 7}, st)
}

func TestCompute_IgnoresQuestionNumbers(t *testing.T) {
	a := Compute([]Outcome{{Number: 7, Status: Correct}, {Number: 7, Status: Wrong}})
	b := Compute([]Outcome{{Number: 1, Status: Correct}, {Number: 2, Status: Wrong}})
	assert.Equal(t, a, b)
}

var statuses = []Status{Correct, Wrong, NotAttempted}

var chapterPool = []string{"", "  ", "Mechanics", " Mechanics ", "Optics", "Cell Biology", "Organic  ", "Mixed"}

func randomOutcomes(r *rand.Rand) []Outcome {
	n := r.IntN(60)
	out := make([]Outcome, n)
	for i := range out {
		out[i] = Outcome{
			Number:  r.IntN(n+3) + 1,
			Chapter: chapterPool[r.IntN(len(chapterPool))],
			Status:  statuses[r.IntN(len(statuses))],
		}
	}
	return out
}

func TestCompute_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 1024))

	for iter := 0; iter < 500; iter++ {
		in := randomOutcomes(r)
		agg := Compute(in)

		// totals
		require.Equal(t, len(in), agg.Correct+agg.Wrong+agg.NotAttempted)
		// score formula
		require.Equal(t, 4*agg.Correct-agg.Wrong, agg.Score)

		direct := 0
		perKey := map[string]int{}
		for _, o := range in {
			direct += o.Status.Points()
			perKey[NormalizeChapter(o.Chapter)]++
		}
		require.Equal(t, direct, agg.Score)

		chapterSum := 0
		require.Equal(t, len(perKey), agg.ByChapter.Len())
		agg.ByChapter.Each(func(key string, st ChapterStats) {
			chapterSum += st.Score
			assert.Equal(t, perKey[key], st.Total(), "chapter %q", key)
			assert.Equal(t, 4*st.Correct-st.Wrong, st.Score, "chapter %q", key)
		})
		require.Equal(t, agg.Score, chapterSum)

		// determinism, including chapter order
		again := Compute(append([]Outcome(nil), in...))
		require.Equal(t, agg, again)

		// permutation keeps every value
		shuffled := append([]Outcome(nil), in...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		require.True(t, agg.Equal(Compute(shuffled)))
	}
}

func TestCompute_FirstSeenOrder(t *testing.T) {
	agg := Compute([]Outcome{
		{Chapter: "Optics", Status: Correct},
		{Chapter: "Mechanics", Status: Correct},
		{Chapter: "Optics", Status: Wrong},
		{Chapter: "", Status: Wrong},
	})
	assert.Equal(t, []string{"Optics", "Mechanics", "Mixed"}, agg.ByChapter.Keys())

	reversed := Compute([]Outcome{
		{Chapter: "", Status: Wrong},
		{Chapter: "Optics", Status: Wrong},
		{Chapter: "Mechanics", Status: Correct},
		{Chapter: "Optics", Status: Correct},
	})
	assert.Equal(t, []string{"Mixed", "Optics", "Mechanics"}, reversed.ByChapter.Keys())
	assert.True(t, agg.Equal(reversed))
}

func TestCompute_Concurrent(t *testing.T) {
	in := []Outcome{
		{Chapter: "Optics", Status: Correct},
		{Chapter: "Mechanics", Status: Wrong},
	}
	want := Compute(in)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, Compute(in))
		}()
	}
	wg.Wait()
}
