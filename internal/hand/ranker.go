// Package hand evaluates three-card hands for the competitive game mode.
// Every hand maps to exactly one category and a single comparable value;
// larger values win.
package hand

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hughes-T/poker-emulator/internal/deck"
)

// HandSize is the number of cards the analyzer accepts.
const HandSize = 3

// ErrInvalidHandSize is returned when a hand does not contain exactly three
// cards.
var ErrInvalidHandSize = errors.New("hand must contain exactly 3 cards")

// Category is a hand category, ordered weakest to strongest.
type Category int

const (
	HighCard Category = iota + 1
	Pair
	Straight
	Flush
	StraightFlush
	Leopard
)

// String returns the display name of the category.
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case Pair:
		return "Pair"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case StraightFlush:
		return "Straight Flush"
	case Leopard:
		return "Leopard"
	default:
		return "Unknown"
	}
}

// Each category occupies its own 100000 band, so any hand of a higher
// category outranks every hand of a lower one.
const categoryBand = 100000

// Analysis is the result of evaluating a hand.
type Analysis struct {
	Category Category `json:"rank"`
	Value    int      `json:"value"`
	Label    string   `json:"description"`
}

// Analyze evaluates a three-card hand into a category and comparable value.
func Analyze(cards []deck.Card) (Analysis, error) {
	if len(cards) != HandSize {
		return Analysis{}, ErrInvalidHandSize
	}

	// Rank values sorted descending; v[0] is the highest card.
	v := []int{cards[0].Rank.Value(), cards[1].Rank.Value(), cards[2].Rank.Value()}
	sort.Sort(sort.Reverse(sort.IntSlice(v)))

	flush := cards[0].Suit == cards[1].Suit && cards[1].Suit == cards[2].Suit
	straight, top := straightTop(v)

	switch {
	case v[0] == v[1] && v[1] == v[2]:
		return Analysis{
			Category: Leopard,
			Value:    Leopard.base() + v[0],
			Label:    fmt.Sprintf("Leopard %s", cards[0].Rank),
		}, nil

	case flush && straight:
		return Analysis{
			Category: StraightFlush,
			Value:    StraightFlush.base() + top,
			Label:    "Straight Flush",
		}, nil

	case flush:
		return Analysis{
			Category: Flush,
			Value:    Flush.base() + v[0]*10000 + v[1]*100 + v[2],
			Label:    "Flush",
		}, nil

	case straight:
		return Analysis{
			Category: Straight,
			Value:    Straight.base() + top,
			Label:    "Straight",
		}, nil

	case v[0] == v[1] || v[1] == v[2]:
		pair, kicker := v[1], v[0]
		if v[0] == v[1] {
			kicker = v[2]
		}
		return Analysis{
			Category: Pair,
			Value:    Pair.base() + pair*100 + kicker,
			Label:    fmt.Sprintf("Pair of %ds", pair),
		}, nil

	default:
		return Analysis{
			Category: HighCard,
			Value:    HighCard.base() + v[0]*10000 + v[1]*100 + v[2],
			Label:    "High Card",
		}, nil
	}
}

// Compare returns a positive number if a beats b, negative if b beats a and
// zero on equal values. Ties are resolved by game policy (the challenger
// loses), not here.
func Compare(a, b Analysis) int {
	return a.Value - b.Value
}

func (c Category) base() int {
	return int(c) * categoryBand
}

// straightTop reports whether the descending values form a straight and, if
// so, its effective top rank. A-2-3 is the lowest straight: its top rank
// counts as 3, below 2-3-4.
func straightTop(v []int) (bool, int) {
	if v[0] == v[1]+1 && v[1] == v[2]+1 {
		return true, v[0]
	}
	if v[0] == 14 && v[1] == 3 && v[2] == 2 {
		return true, 3
	}
	return false, 0
}
