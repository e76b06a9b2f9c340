package input

import (
	"fmt"
	"reflect"
	"testing"
)

type recorder struct {
	events []string
}

func (r *recorder) PointerDown(x, y float64) { r.events = append(r.events, fmt.Sprintf("down %v,%v", x, y)) }
func (r *recorder) PointerMove(x, y float64) { r.events = append(r.events, fmt.Sprintf("move %v,%v", x, y)) }
func (r *recorder) PointerUp(x, y float64) { r.events = append(r.events, fmt.Sprintf("up %v,%v", x, y)) }

func TestTrackerFeed(t *testing.T) {
	tests := []struct {
		name    string
		samples []Sample
		blocked bool
		want    []string
	}{
		{
			name: "press drag release",
			samples: []Sample{
				{X: 1, Y: 1, JustPressed: true},
				{X: 2, Y: 1},
				{X: 2, Y: 1},
				{X: 3, Y: 4, JustReleased: true},
			},
			want: []string{"down 1,1", "move 2,1", "up 3,4"},
		},
		{
			name:    "hover without press",
			samples: []Sample{{X: 1, Y: 1}, {X: 5, Y: 5}, {X: 6, Y: 6, JustReleased: true}},
		},
		{
			name:    "press over ui is ignored",
			samples: []Sample{{X: 1, Y: 1, JustPressed: true}, {X: 2, Y: 2}, {X: 2, Y: 2, JustReleased: true}},
			blocked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tr Tracker
			rec := &recorder{}
			for _, s := range tt.samples {
				tr.Feed(s, rec, tt.blocked)
			}
			if !reflect.DeepEqual(rec.events, tt.want) {
				t.Fatalf("events = %v, want %v", rec.events, tt.want)
			}
			if tr.Held() {
				t.Fatal("tracker still held")
			}
		})
	}
}
