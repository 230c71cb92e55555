package fallback

import (
	"reflect"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/periodstats/internal/rank"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		empty  []bool
		want   []float64
	}{
		{"leading empty is zero", []float64{9, 1, 2}, []bool{true, false, false}, []float64{0, 1, 2}},
		{"carries previous", []float64{1, 9, 9, 3}, []bool{false, true, true, false}, []float64{1, 1, 1, 3}},
		{"trailing empty", []float64{1, 2, 9}, []bool{false, false, true}, []float64{1, 2, 2}},
		{"zero value is real", []float64{5, 0, 9}, []bool{false, false, true}, []float64{5, 0, 0}},
		{"all empty", []float64{4, 4}, []bool{true, true}, []float64{0, 0}},
		{"none", nil, nil, []float64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			points := Resolve(tt.values, tt.empty)
			got := make([]float64, len(points))
			for i, p := range points {
				got[i] = p.Value
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveMarksCarried(t *testing.T) {
	points := Resolve([]float64{1, 0}, []bool{false, true})
	if points[0].Carried || !points[1].Carried {
		t.Errorf("points = %+v", points)
	}
}

func TestSummaries(t *testing.T) {
	series := []rank.Summary{
		{},
		{Count: 3, Avg: 0.4, Max: 0.6, Min: 0.24},
		{},
	}
	got, carried := Summaries(series)
	if got[0].Avg != 0 || got[0].Max != 0 || got[0].Min != 0 {
		t.Errorf("first empty period = %+v", got[0])
	}
	if got[2].Avg != 0.4 || got[2].Max != 0.6 || got[2].Min != 0.24 || got[2].Count != 0 {
		t.Errorf("carried period = %+v", got[2])
	}
	if !reflect.DeepEqual(carried, []bool{true, false, true}) {
		t.Errorf("carried = %v", carried)
	}
}
