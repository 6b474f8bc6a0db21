package think_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shivanshkc/koda/pkg/think"
)

// scanAll feeds every fragment to the scanner and returns the observations in order.
func scanAll(scanner *think.Scanner, fragments []string) []think.Observation {
	observations := make([]think.Observation, 0, len(fragments))
	for _, fragment := range fragments {
		observations = append(observations, scanner.Scan(fragment))
	}
	return observations
}

// states extracts the state sequence of the given observations.
func states(observations []think.Observation) []think.State {
	out := make([]think.State, len(observations))
	for i, obs := range observations {
		out[i] = obs.State
	}
	return out
}

func TestScanner_Scan(t *testing.T) {
	// --- Test Case Definitions ---
	type testCase struct {
		name           string
		options        []think.Option
		fragments      []string
		expectedStates []think.State
		// expectedOpened and expectedClosed are the fragment indices of the first sightings, -1 if none.
		expectedOpened int
		expectedClosed int
	}

	testCases := []testCase{
		{
			name:           "No Markers Stays Pre",
			fragments:      []string{"Hello", " world", "", "!"},
			expectedStates: []think.State{think.Pre, think.Pre, think.Pre, think.Pre},
			expectedOpened: -1,
			expectedClosed: -1,
		},
		{
			name:           "Markers in Separate Fragments",
			fragments:      []string{"<think>", "reasoning", "</think>", "Answer", " more"},
			expectedStates: []think.State{think.Thinking, think.Thinking, think.EndThinking, think.Done, think.Done},
			expectedOpened: 0,
			expectedClosed: 2,
		},
		{
			name:           "Both Markers in One Fragment",
			fragments:      []string{"<think>short</think>", "Answer"},
			expectedStates: []think.State{think.EndThinking, think.Done},
			expectedOpened: 0,
			expectedClosed: 0,
		},
		{
			name:           "Closing Marker Before Opening Marker is Ignored",
			fragments:      []string{"</think> stray <think>", "still thinking"},
			expectedStates: []think.State{think.Thinking, think.Thinking},
			expectedOpened: 0,
			expectedClosed: -1,
		},
		{
			name:           "Stream Ends While Thinking",
			fragments:      []string{"<think>", "never", " closes"},
			expectedStates: []think.State{think.Thinking, think.Thinking, think.Thinking},
			expectedOpened: 0,
			expectedClosed: -1,
		},
		{
			name:           "Later Markers are Ignored",
			fragments:      []string{"<think>", "a", "</think>", "b", "<think>", "</think>"},
			expectedStates: []think.State{think.Thinking, think.Thinking, think.EndThinking, think.Done, think.Done, think.Done},
			expectedOpened: 0,
			expectedClosed: 2,
		},
		{
			name:           "Split Opening Marker is Missed by Default",
			fragments:      []string{"<thi", "nk>", "x", "</think>", "y"},
			expectedStates: []think.State{think.Pre, think.Pre, think.Pre, think.Pre, think.Pre},
			expectedOpened: -1,
			expectedClosed: -1,
		},
		{
			name:           "Split Opening Marker is Found with Split Detection",
			options:        []think.Option{think.WithSplitDetection()},
			fragments:      []string{"<thi", "nk>", "x", "</think>", "y"},
			expectedStates: []think.State{think.Pre, think.Thinking, think.Thinking, think.EndThinking, think.Done},
			expectedOpened: 1,
			expectedClosed: 3,
		},
		{
			name:           "Split Closing Marker Across Three Fragments",
			options:        []think.Option{think.WithSplitDetection()},
			fragments:      []string{"<think>x</", "thi", "nk>", "y"},
			expectedStates: []think.State{think.Thinking, think.Thinking, think.EndThinking, think.Done},
			expectedOpened: 0,
			expectedClosed: 2,
		},
		{
			name:           "Custom Markers",
			options:        []think.Option{think.WithMarkers("[[", "]]")},
			fragments:      []string{"[[", "plan", "]]", "go"},
			expectedStates: []think.State{think.Thinking, think.Thinking, think.EndThinking, think.Done},
			expectedOpened: 0,
			expectedClosed: 2,
		},
	}

	// --- Test Runner ---
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			scanner := think.NewScanner(tc.options...)
			observations := scanAll(scanner, tc.fragments)

			assert.Equal(t, tc.expectedStates, states(observations))

			opened, closed := -1, -1
			for i, obs := range observations {
				if obs.Opened {
					assert.Equal(t, -1, opened, "Opening marker should be reported once.")
					opened = i
				}
				if obs.Closed {
					assert.Equal(t, -1, closed, "Closing marker should be reported once.")
					closed = i
				}
			}
			assert.Equal(t, tc.expectedOpened, opened)
			assert.Equal(t, tc.expectedClosed, closed)
			assert.Equal(t, tc.expectedStates[len(tc.expectedStates)-1], scanner.State())
		})
	}
}

// TestScanner_Monotonic verifies that no fragment sequence makes the state regress.
func TestScanner_Monotonic(t *testing.T) {
	fragments := []string{"a", "<think>", "</think>", "<think>", "b", "</think>", "", "c"}

	for _, options := range [][]think.Option{nil, {think.WithSplitDetection()}} {
		scanner := think.NewScanner(options...)
		previous := think.Pre
		for _, fragment := range fragments {
			obs := scanner.Scan(fragment)
			assert.GreaterOrEqual(t, int(obs.State), int(previous))
			previous = obs.State
		}
	}
}

func TestState(t *testing.T) {
	assert.Equal(t, "pre", think.Pre.String())
	assert.Equal(t, "thinking", think.Thinking.String())
	assert.Equal(t, "end-thinking", think.EndThinking.String())
	assert.Equal(t, "done", think.Done.String())
	assert.Equal(t, "unknown", think.State(42).String())

	assert.True(t, think.Pre.Visible())
	assert.False(t, think.Thinking.Visible())
	assert.False(t, think.EndThinking.Visible())
	assert.True(t, think.Done.Visible())
}

func TestScanner_Pending(t *testing.T) {
	split := think.NewScanner(think.WithSplitDetection())

	assert.Equal(t, 4, split.Pending("Hi <thi"))
	assert.Equal(t, 1, split.Pending("a <"))
	assert.Equal(t, 6, split.Pending("<think"))
	assert.Zero(t, split.Pending("<think>"), "a complete marker is not pending")
	assert.Zero(t, split.Pending("<b"))
	assert.Zero(t, split.Pending(""))

	custom := think.NewScanner(think.WithSplitDetection(), think.WithMarkers("[[", "]]"))
	assert.Equal(t, 1, custom.Pending("x ["))

	// Nothing is pending once the opening marker was seen, or without split detection.
	split.Scan("<think>")
	assert.Zero(t, split.Pending("<thi"))
	assert.Zero(t, think.NewScanner().Pending("<thi"))
}
