// Package badges decides which achievement badges a user has earned by
// comparing spending against an active goal. The rules are pure so they
// can be tested without a database or an HTTP layer.
package badges

import (
	"time"

	"finance-tracker/internal/models"
)

// Badge names awarded by Evaluate.
const (
	HalfwayThere   = "Halfway There"
	GoalReached    = "Goal Reached"
	SundayFinisher = "Sunday Finisher"
)

// Evaluate returns the badge names earned for the given spend against a
// goal, evaluated at now. Thresholds stack: reaching the full target also
// earns the halfway badge if it was never awarded before.
func Evaluate(goal models.FinancialGoal, spent float64, now time.Time) []string {
	if goal.TargetAmount <= 0 {
		return nil
	}

	var earned []string
	if spent >= goal.TargetAmount/2 {
		earned = append(earned, HalfwayThere)
	}
	if spent >= goal.TargetAmount {
		earned = append(earned, GoalReached)
		if now.Weekday() == time.Sunday {
			earned = append(earned, SundayFinisher)
		}
	}
	return earned
}
