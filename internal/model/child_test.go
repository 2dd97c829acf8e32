package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestChildAgeInMonths(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		birthDate time.Time
		want      int
	}{
		{"newborn", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), 0},
		{"exactly six months", time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 6},
		{"day before the month boundary", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), 6},
		{"eight months across the year", time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 8},
		{"two years", time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC), 24},
		{"future birth date clamps to zero", time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Child{BirthDate: tt.birthDate}
			assert.Equal(t, tt.want, c.AgeInMonths(now))
		})
	}
}
