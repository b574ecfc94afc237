package practicesession

import "fmt"

// Mode is the ordering policy of a practice session.
type Mode string

const (
	ModeOrder  Mode = "order"  // by question number
	ModeRandom Mode = "random" // full shuffle
	ModeWrong  Mode = "wrong"  // only questions answered wrong at least once
	ModeWeak   Mode = "weak"   // weakest first
)

// modeCycle is the order the mode button steps through.
var modeCycle = []Mode{ModeOrder, ModeRandom, ModeWrong, ModeWeak}

var modeLabels = map[Mode]string{
	ModeOrder:  "In order",
	ModeRandom: "Random",
	ModeWrong:  "Mistakes only",
	ModeWeak:   "Weakest first",
}

// DefaultMode is used when no mode was chosen.
const DefaultMode = ModeOrder

// Modes returns every mode in cycle order.
func Modes() []Mode {
	out := make([]Mode, len(modeCycle))
	copy(out, modeCycle)
	return out
}

func ParseMode(s string) (Mode, error) {
	m := Mode(s)
	if !m.Valid() {
		return "", fmt.Errorf("unknown mode %q: must be order, random, wrong or weak", s)
	}
	return m, nil
}

func (m Mode) Valid() bool {
	_, ok := modeLabels[m]
	return ok
}

// Next returns the mode after m in the cycle. Unknown modes restart the cycle.
func (m Mode) Next() Mode {
	for i, c := range modeCycle {
		if c == m {
			return modeCycle[(i+1)%len(modeCycle)]
		}
	}
	return modeCycle[0]
}

func (m Mode) Label() string {
	if l, ok := modeLabels[m]; ok {
		return l
	}
	return string(m)
}
