package practicesession

import (
	"math/rand"
	"sort"

	"github.com/denkain-drill/backend/internal/domain/questionbank"
)

// ShuffleFunc permutes n elements through swap, like rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// BuildOrder returns the question ids of one session in presentation order.
// Empty input and unknown modes yield an empty order.
func BuildOrder(questions []questionbank.Question, stats questionbank.Stats, mode Mode, shuffle ShuffleFunc) []string {
	if len(questions) == 0 {
		return []string{}
	}
	if shuffle == nil {
		shuffle = rand.Shuffle
	}

	switch mode {
	case ModeOrder:
		sorted := cloneQuestions(questions)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].No.Less(sorted[j].No)
		})
		return questionIDs(sorted)

	case ModeRandom:
		shuffled := cloneQuestions(questions)
		shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		return questionIDs(shuffled)

	case ModeWrong:
		ids := make([]string, 0, len(questions))
		for _, q := range questions {
			if r := stats.Get(q.ID); r != nil && r.Wrong > 0 {
				ids = append(ids, q.ID)
			}
		}
		return ids

	case ModeWeak:
		type scored struct {
			q     questionbank.Question
			score float64
		}
		ranked := make([]scored, len(questions))
		for i, q := range questions {
			ranked[i] = scored{q: q, score: questionbank.WeaknessScore(stats.Get(q.ID))}
		}
		// Equal scores fall back to question number, then input order.
		sort.SliceStable(ranked, func(i, j int) bool {
			if ranked[i].score != ranked[j].score {
				return ranked[i].score > ranked[j].score
			}
			return ranked[i].q.No.Less(ranked[j].q.No)
		})
		ids := make([]string, len(ranked))
		for i, r := range ranked {
			ids[i] = r.q.ID
		}
		return ids
	}

	return []string{}
}

func cloneQuestions(questions []questionbank.Question) []questionbank.Question {
	out := make([]questionbank.Question, len(questions))
	copy(out, questions)
	return out
}

func questionIDs(questions []questionbank.Question) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}
