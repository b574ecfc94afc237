package questionbank

import "time"

const (
	unseenBoost       = 5.0
	wrongRateWeight   = 4.0
	streakTarget      = 3
	streakPenaltyStep = 0.7
)

// StatRecord tracks performance statistics for a single question.
// Correct + Wrong always equals Seen.
type StatRecord struct {
	Seen    int        `json:"seen"`
	Correct int        `json:"correct"`
	Wrong   int        `json:"wrong"`
	Streak  int        `json:"streak"`
	Last    *time.Time `json:"last"`
}

// Valid reports whether the counters are consistent: none negative and
// every seen answer counted as either correct or wrong.
func (r *StatRecord) Valid() bool {
	if r == nil {
		return false
	}
	if r.Seen < 0 || r.Correct < 0 || r.Wrong < 0 || r.Streak < 0 {
		return false
	}
	return r.Correct+r.Wrong == r.Seen
}

// Record applies one check-answer action.
func (r *StatRecord) Record(correct bool, at time.Time) {
	r.Seen++
	t := at.UTC()
	r.Last = &t
	if correct {
		r.Correct++
		r.Streak++
		return
	}
	r.Wrong++
	r.Streak = 0
}

// WrongRate is 0 for a question that was never answered.
func (r *StatRecord) WrongRate() float64 {
	if r == nil || r.Seen == 0 {
		return 0
	}
	return float64(r.Wrong) / float64(r.Seen)
}

// WeaknessScore ranks questions for review: higher means weaker.
// A nil record scores like a never-seen question.
//
// score = 1 + 5 (unseen) + 4 * wrong/seen + max(0, 3 - streak) * 0.7
func WeaknessScore(r *StatRecord) float64 {
	var seen, streak int
	if r != nil {
		seen, streak = r.Seen, r.Streak
	}

	score := 1.0
	if seen == 0 {
		score += unseenBoost
	}
	score += wrongRateWeight * r.WrongRate()
	if streak < streakTarget {
		score += float64(streakTarget-streak) * streakPenaltyStep
	}
	return score
}

// Stats maps question id to its record. Records are created lazily.
type Stats map[string]*StatRecord

// GetOrCreate returns the record for questionID, inserting a zero record
// when none exists.
func (s Stats) GetOrCreate(questionID string) *StatRecord {
	if r, ok := s[questionID]; ok && r != nil {
		return r
	}
	r := &StatRecord{}
	s[questionID] = r
	return r
}

// Get returns the record for questionID without inserting one.
func (s Stats) Get(questionID string) *StatRecord {
	return s[questionID]
}

// BankStats aggregates statistics for a question bank.
type BankStats struct {
	BankID         string
	TotalQuestions int
	Seen           int // questions answered at least once
	Correct        int
	Wrong          int
}

// Accuracy is the share of correct answers among all answers, 0 when
// nothing was answered yet.
func (b BankStats) Accuracy() float64 {
	total := b.Correct + b.Wrong
	if total == 0 {
		return 0
	}
	return float64(b.Correct) / float64(total)
}

// Summarize aggregates the records of the bank's questions.
func (s Stats) Summarize(bank *QuestionBank) BankStats {
	out := BankStats{BankID: bank.ID, TotalQuestions: len(bank.Questions)}
	for _, q := range bank.Questions {
		r := s[q.ID]
		if r == nil || r.Seen == 0 {
			continue
		}
		out.Seen++
		out.Correct += r.Correct
		out.Wrong += r.Wrong
	}
	return out
}
