package mood

import (
	"errors"
	"sort"
	"time"
)

// DefaultHistoryCapacity is how many observations the aggregator keeps
const DefaultHistoryCapacity = 30

// ErrInvalidWindow is returned by Average for a window smaller than one
var ErrInvalidWindow = errors.New("averaging window must be positive")

// Observation is one successful classification
type Observation struct {
	Label      string             `json:"label"`
	Scores     map[string]float64 `json:"scores"`
	ObservedAt time.Time          `json:"observed_at"`
}

// Mood is the smoothed result of several observations
type Mood struct {
	Label  string             `json:"label"`
	Scores map[string]float64 `json:"scores"`
	Color  Color              `json:"color"`
}

// Aggregator keeps a bounded FIFO history of observations and averages
// the most recent of them into a Mood. Not safe for concurrent use.
type Aggregator struct {
	history  []Observation // ring buffer, len == capacity once full
	start    int           // index of the oldest observation
	count    int
	capacity int
}

// NewAggregator creates an aggregator holding at most capacity observations
func NewAggregator(capacity int) *Aggregator {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &Aggregator{
		history:  make([]Observation, 0, capacity),
		capacity: capacity,
	}
}

// Record appends an observation, evicting the oldest once over capacity.
// The scores map is copied.
func (a *Aggregator) Record(label string, scores map[string]float64, at time.Time) {
	obs := Observation{
		Label:      label,
		Scores:     copyScores(scores),
		ObservedAt: at,
	}

	if a.count < a.capacity {
		a.history = append(a.history, obs)
		a.count++
		return
	}

	a.history[a.start] = obs
	a.start = (a.start + 1) % a.capacity
}

// Average averages the last min(window, Len()) observations.
// Each score is summed across the window and divided by the window length,
// so observations missing a key count as zero for it.
// Returns nil with no error when the history is empty.
func (a *Aggregator) Average(window int) (*Mood, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	if a.count == 0 {
		return nil, nil
	}

	n := window
	if n > a.count {
		n = a.count
	}

	sums := make(map[string]float64)
	order := make([]string, 0, len(emotionOrder))
	for i := a.count - n; i < a.count; i++ {
		obs := a.at(i)
		for _, key := range sortedKeys(obs.Scores) {
			if _, seen := sums[key]; !seen {
				order = append(order, key)
			}
			sums[key] += obs.Scores[key]
		}
	}

	dominant := EmotionNeutral
	best := 0.0
	for i, key := range order {
		sums[key] /= float64(n)
		if i == 0 || sums[key] > best {
			dominant = key
			best = sums[key]
		}
	}

	return &Mood{
		Label:  dominant,
		Scores: sums,
		Color:  ColorFor(dominant),
	}, nil
}

// LastLabel returns the label of the most recent observation
func (a *Aggregator) LastLabel() (string, bool) {
	if a.count == 0 {
		return "", false
	}
	return a.at(a.count - 1).Label, true
}

// Len returns the number of observations held
func (a *Aggregator) Len() int {
	return a.count
}

// Capacity returns the maximum number of observations held
func (a *Aggregator) Capacity() int {
	return a.capacity
}

// History returns a copy of the observations, oldest first
func (a *Aggregator) History() []Observation {
	out := make([]Observation, 0, a.count)
	for i := 0; i < a.count; i++ {
		obs := a.at(i)
		obs.Scores = copyScores(obs.Scores)
		out = append(out, obs)
	}
	return out
}

// Reset drops all observations
func (a *Aggregator) Reset() {
	a.history = a.history[:0]
	a.start = 0
	a.count = 0
}

// at returns the i-th observation counting from the oldest
func (a *Aggregator) at(i int) Observation {
	return a.history[(a.start+i)%len(a.history)]
}

func copyScores(scores map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		out[k] = v
	}
	return out
}

func sortedKeys(scores map[string]float64) []string {
	keys := make([]string, 0, len(scores))
	for k := range scores {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
