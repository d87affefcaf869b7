package battle

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	verdictPattern = regexp.MustCompile(`(?is)winner:\s*(.*?)\s*reason:\s*(.*)`)
	labelPattern   = regexp.MustCompile(`(?i)opponent\s*([12])`)
)

// Verdict is the judge's answer reduced to a winner selector ("1" or "2").
type Verdict struct {
	Winner string
	Reason string
}

// ParseVerdict extracts the verdict from the full judge transcript. It
// reports false when the transcript does not follow the
// "winner: <label> reason: <text>" form or names both opponents.
func ParseVerdict(text string) (Verdict, bool) {
	m := verdictPattern.FindStringSubmatch(text)
	if m == nil {
		return Verdict{}, false
	}

	labels := labelPattern.FindAllStringSubmatch(m[1], -1)
	if len(labels) == 0 {
		return Verdict{}, false
	}
	winner := labels[0][1]
	for _, l := range labels[1:] {
		if l[1] != winner {
			return Verdict{}, false
		}
	}

	return Verdict{
		Winner: winner,
		Reason: strings.TrimSpace(m[2]),
	}, true
}

// Label is the prompt label of the winner, e.g. "opponent1".
func (v Verdict) Label() string {
	return "opponent" + v.Winner
}

func (v Verdict) String() string {
	return fmt.Sprintf("winner: %s. reason: %s", v.Label(), v.Reason)
}
