package badges

import (
	"testing"
	"time"

	"finance-tracker/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	goal := models.FinancialGoal{TargetAmount: 200}
	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(2026, 3, 8, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		spent float64
		now   time.Time
		want  []string
	}{
		{
			name:  "below halfway earns nothing",
			spent: 99.99,
			now:   monday,
			want:  nil,
		},
		{
			name:  "exactly halfway earns the halfway badge",
			spent: 100,
			now:   monday,
			want:  []string{HalfwayThere},
		},
		{
			name:  "reaching the target stacks both badges",
			spent: 200,
			now:   monday,
			want:  []string{HalfwayThere, GoalReached},
		},
		{
			name:  "reaching the target on a Sunday adds the finisher",
			spent: 250,
			now:   sunday,
			want:  []string{HalfwayThere, GoalReached, SundayFinisher},
		},
		{
			name:  "halfway on a Sunday does not add the finisher",
			spent: 100,
			now:   sunday,
			want:  []string{HalfwayThere},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(goal, tt.spent, tt.now))
		})
	}
}

func TestEvaluateDegenerateGoal(t *testing.T) {
	goal := models.FinancialGoal{TargetAmount: 0}
	assert.Nil(t, Evaluate(goal, 1000, time.Now()))
}
