package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"combatai/internal/battle"

	"github.com/google/uuid"
)

var ErrInvalidList = errors.New("invalid battle list")

// Fight is one battle record in an owner's list.
type Fight struct {
	ID        string  `json:"id"`
	Opponent1 string  `json:"opponent1"`
	Opponent2 string  `json:"opponent2"`
	Response  string  `json:"response"`
	Image     *string `json:"image,omitempty"`
	Winner    *string `json:"winner"`
}

// Nullable is a patch field for a nullable string. Set records whether the
// field was present at all, so an explicit null clears the value while an
// absent field leaves it alone.
type Nullable struct {
	Set   bool
	Value *string
}

func Value(s string) Nullable {
	return Nullable{Set: true, Value: &s}
}

func Null() Nullable {
	return Nullable{Set: true}
}

func (n *Nullable) UnmarshalJSON(data []byte) error {
	n.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

// Patch holds the fields of a Fight to overwrite. Nil and unset fields are
// left alone; image and winner accept null to clear them.
type Patch struct {
	Opponent1 *string  `json:"opponent1"`
	Opponent2 *string  `json:"opponent2"`
	Response  *string  `json:"response"`
	Image     Nullable `json:"image"`
	Winner    Nullable `json:"winner"`
}

func InitialBattle() Fight {
	return Fight{ID: uuid.NewString()}
}

func (p Patch) Validate() error {
	if w := p.Winner.Value; w != nil && *w != "1" && *w != "2" {
		return fmt.Errorf("winner must be \"1\", \"2\" or null, got %q", *w)
	}
	return nil
}

func (p Patch) apply(f Fight) Fight {
	if p.Opponent1 != nil {
		f.Opponent1 = *p.Opponent1
	}
	if p.Opponent2 != nil {
		f.Opponent2 = *p.Opponent2
	}
	if p.Image.Set {
		f.Image = clone(p.Image.Value)
	}
	if p.Response != nil {
		f.Response = *p.Response
		if !p.Winner.Set {
			f.Winner = deriveWinner(f.Response)
		}
	}
	if p.Winner.Set {
		f.Winner = clone(p.Winner.Value)
	}
	return f
}

func deriveWinner(response string) *string {
	verdict, ok := battle.ParseVerdict(response)
	if !ok {
		return nil
	}
	return &verdict.Winner
}

func clone(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// Validate reports whether a stored list can be used as is.
func Validate(battles []Fight) error {
	if len(battles) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidList)
	}

	seen := make(map[string]struct{}, len(battles))
	for i, f := range battles {
		if f.ID == "" {
			return fmt.Errorf("%w: entry %d has no id", ErrInvalidList, i)
		}
		if _, dup := seen[f.ID]; dup {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidList, f.ID)
		}
		seen[f.ID] = struct{}{}
	}
	return nil
}

// SetBattle merges patch into the entry with the given id. Unknown ids leave
// the list unchanged.
func SetBattle(battles []Fight, id string, patch Patch) []Fight {
	out := make([]Fight, len(battles))
	for i, f := range battles {
		if f.ID == id {
			f = patch.apply(f)
		}
		out[i] = f
	}
	return out
}

// PushEmpty appends a fresh entry unless the last one is still unanswered.
func PushEmpty(battles []Fight) []Fight {
	if n := len(battles); n > 0 && battles[n-1].Response == "" {
		return battles
	}
	return append(battles, InitialBattle())
}

// Clean drops unanswered entries except the last one.
func Clean(battles []Fight) []Fight {
	out := make([]Fight, 0, len(battles))
	for i, f := range battles {
		if f.Response != "" || i == len(battles)-1 {
			out = append(out, f)
		}
	}
	return out
}

// Hydrate resets an unusable list and leaves exactly one trailing empty entry.
func Hydrate(battles []Fight) []Fight {
	if err := Validate(battles); err != nil {
		battles = []Fight{InitialBattle()}
	}
	return PushEmpty(Clean(battles))
}
