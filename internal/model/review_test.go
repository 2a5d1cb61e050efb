package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRatingSummary_Average(t *testing.T) {
	tests := []struct {
		name    string
		summary RatingSummary
		want    float64
	}{
		{"no reviews", RatingSummary{}, 0},
		{"single", RatingSummary{Sum: 4, Count: 1}, 4},
		{"five and four", RatingSummary{Sum: 9, Count: 2}, 4.5},
		{"rounds down", RatingSummary{Sum: 13, Count: 3}, 4.3},
		{"rounds up", RatingSummary{Sum: 14, Count: 3}, 4.7},
		{"half rounds up", RatingSummary{Sum: 17, Count: 4}, 4.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.summary.Average(), 1e-9)
		})
	}
}
