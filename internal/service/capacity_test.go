package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intp(n int) *int { return &n }

func TestAvailableSeats(t *testing.T) {
	tests := []struct {
		name     string
		capacity *int
		enrolled int
		want     int
	}{
		{"no capacity means no seats", nil, 0, 0},
		{"empty event", intp(30), 0, 30},
		{"partially filled", intp(30), 12, 18},
		{"full", intp(2), 2, 0},
		{"overfilled never negative", intp(2), 5, 0},
		{"zero capacity", intp(0), 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AvailableSeats(tt.capacity, tt.enrolled))
			assert.Equal(t, tt.want > 0, HasAvailableSeats(tt.capacity, tt.enrolled))
		})
	}
}
