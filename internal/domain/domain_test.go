package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundingClassInvert(t *testing.T) {
	tests := []struct {
		name      string
		class     RoundingClass
		disclosed float64
		want      DistanceRange
	}{
		{
			name:      "up family bounds true distance below the disclosed value",
			class:     RoundingClass{RoundingKM: 1, Family: RoundingUp},
			disclosed: 5,
			want:      DistanceRange{Lo: 4, Hi: 5},
		},
		{
			name:      "up family clamps the lower bound at zero",
			class:     RoundingClass{RoundingKM: 1, Family: RoundingUp},
			disclosed: 0.4,
			want:      DistanceRange{Lo: 0, Hi: 0.4},
		},
		{
			name:      "down family bounds true distance above the disclosed value",
			class:     RoundingClass{RoundingKM: 1, Family: RoundingDown},
			disclosed: 5,
			want:      DistanceRange{Lo: 5, Hi: 6},
		},
		{
			name:      "both family bounds true distance on either side",
			class:     RoundingClass{RoundingKM: 1, Family: RoundingBoth},
			disclosed: 5,
			want:      DistanceRange{Lo: 4, Hi: 6},
		},
		{
			name:      "both family clamps the lower bound at zero",
			class:     RoundingClass{RoundingKM: 1, Family: RoundingBoth},
			disclosed: 0.4,
			want:      DistanceRange{Lo: 0, Hi: 1.4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.class.Invert(tt.disclosed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchClass(t *testing.T) {
	classes := []RoundingClass{
		{Range: DistanceRange{Lo: 0, Hi: 10}, RoundingKM: 1, Family: RoundingUp},
		{Range: DistanceRange{Lo: 10, Hi: 100}, RoundingKM: 5, Family: RoundingBoth},
	}

	cls, ok := MatchClass(classes, 50)
	assert.True(t, ok)
	assert.Equal(t, RoundingBoth, cls.Family)

	_, ok = MatchClass(classes, 1000)
	assert.False(t, ok)
}

func TestDistanceRangeContains(t *testing.T) {
	r := DistanceRange{Lo: 1, Hi: 2}
	assert.True(t, r.Contains(1))
	assert.True(t, r.Contains(2))
	assert.True(t, r.Contains(1.5))
	assert.False(t, r.Contains(0.99))
	assert.False(t, r.Contains(2.01))
}
