package common

import "testing"

func TestLerpAndClamp(t *testing.T) {
	cases := []struct {
		name string
		got  float64
		want float64
	}{
		{"lerp_start", Lerp(2, 6, 0), 2},
		{"lerp_mid", Lerp(2, 6, 0.5), 4},
		{"lerp_end", Lerp(2, 6, 1), 6},
		{"clamp_low", Clamp(-1, 0, 1), 0},
		{"clamp_high", Clamp(3, 0, 1), 1},
		{"clamp_inside", Clamp(0.25, 0, 1), 0.25},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if c.got != c.want {
				t.Fatalf("got %v, want %v", c.got, c.want)
			}
		})
	}
}
