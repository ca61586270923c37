// Package deck builds canonical 108-card decks and shuffles them.
package deck

import (
	"math/rand"
	"strconv"
	"time"

	"github.com/moltlabs/molt-uno/internal/models"
)

// Size is the card count of a canonical deck.
const Size = 108

// Shuffler permutes card sequences. It owns its random source so callers can
// seed it for reproducible orderings; a nil source means time-seeded.
type Shuffler struct {
	rng *rand.Rand
}

// New returns a Shuffler backed by rng, or a time-seeded one when rng is nil.
func New(rng *rand.Rand) *Shuffler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Shuffler{rng: rng}
}

// Build returns the canonical deck: per color one 0, two each of 1-9 and two
// each of skip/reverse/draw2, plus four wilds and four draw-fours. The exact
// multiset is a hard contract relied on by the reshuffle invariants.
func Build() []models.Card {
	cards := make([]models.Card, 0, Size)
	for _, color := range models.Colors {
		cards = append(cards, models.Card{Kind: models.KindNumber, Color: color, Value: "0"})
		for n := 1; n <= 9; n++ {
			c := models.Card{Kind: models.KindNumber, Color: color, Value: strconv.Itoa(n)}
			cards = append(cards, c, c)
		}
		for _, action := range []string{models.ValueSkip, models.ValueReverse, models.ValueDraw2} {
			c := models.Card{Kind: models.KindAction, Color: color, Value: action}
			cards = append(cards, c, c)
		}
	}
	for i := 0; i < 4; i++ {
		cards = append(cards,
			models.Card{Kind: models.KindWild, Color: models.ColorNone, Value: models.ValueWild},
			models.Card{Kind: models.KindWild, Color: models.ColorNone, Value: models.ValueDraw4},
		)
	}
	return cards
}

// Shuffle permutes cards in place with Fisher-Yates, uniform over all orderings.
func (s *Shuffler) Shuffle(cards []models.Card) {
	for i := len(cards) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
}
