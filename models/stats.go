package models

// Outcome is the result credited to a single user when a bet settles
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
)

// Valid reports whether the outcome is a known value
func (o Outcome) Valid() bool {
	return o == OutcomeWin || o == OutcomeLoss
}

// OutcomeRecord pairs a user with the outcome to credit
type OutcomeRecord struct {
	User    string  `json:"user"`
	Outcome Outcome `json:"outcome"`
}

// UserStats is a user's aggregate win/loss record
type UserStats struct {
	User   string
	Wins   int
	Losses int
}

// Total returns the number of settled bets the user took part in
func (s UserStats) Total() int {
	return s.Wins + s.Losses
}

// WinPercentage returns the share of wins as 0-100
func (s UserStats) WinPercentage() float64 {
	if s.Total() == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Total()) * 100
}

// Apply increments the counter matching the outcome
func (s *UserStats) Apply(outcome Outcome) {
	switch outcome {
	case OutcomeWin:
		s.Wins++
	case OutcomeLoss:
		s.Losses++
	}
}
