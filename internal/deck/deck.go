package deck

import (
	"errors"
	rand "math/rand/v2"
)

// Size is the number of cards in a full deck.
const Size = 52

// ErrInsufficientCards is returned when a deal asks for more cards than
// remain in the deck.
var ErrInsufficientCards = errors.New("not enough cards remaining in deck")

// Deck is a standard 52-card deck. Cards are dealt from the front of the
// shuffled sequence. A deck is owned by a single deal operation and is not
// safe for concurrent use.
type Deck struct {
	cards [Size]Card
	next  int
	rng   *rand.Rand
}

// New creates a freshly shuffled deck. The RNG is required so that shuffles
// are reproducible under test.
func New(rng *rand.Rand) *Deck {
	d := &Deck{rng: rng}
	d.Reset()
	return d
}

// generate fills the deck with all 52 cards in canonical order.
func (d *Deck) generate() {
	i := 0
	for _, suit := range Suits() {
		for _, rank := range Ranks() {
			d.cards[i] = Card{Suit: suit, Rank: rank}
			i++
		}
	}
}

// Shuffle performs a uniform Fisher-Yates shuffle and rewinds the deal
// position.
func (d *Deck) Shuffle() {
	d.next = 0
	for i := len(d.cards) - 1; i > 0; i-- {
		j := d.rng.IntN(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
}

// Deal removes and returns n cards from the front of the deck.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || d.next+n > len(d.cards) {
		return nil, ErrInsufficientCards
	}
	cards := make([]Card, n)
	copy(cards, d.cards[d.next:d.next+n])
	d.next += n
	return cards, nil
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.next
}

// Reset regenerates the full deck and reshuffles it.
func (d *Deck) Reset() {
	d.generate()
	d.Shuffle()
}
