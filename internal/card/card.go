package card

import (
	"fmt"
	"math/rand/v2"
	"strconv"

	"github.com/google/uuid"
)

// Suit is one of the four french suits.
type Suit string

const (
	Club    Suit = "C"
	Diamond Suit = "D"
	Heart   Suit = "H"
	Spade   Suit = "S"
)

// Suits lists every suit in deck-building order.
var Suits = []Suit{Club, Diamond, Heart, Spade}

// suitSymbols maps a suit to its display symbol.
var suitSymbols = map[Suit]string{
	Club:    "♣",
	Diamond: "♦",
	Heart:   "♥",
	Spade:   "♠",
}

func (s Suit) String() string {
	if symbol, ok := suitSymbols[s]; ok {
		return symbol
	}
	return string(s)
}

// Rank is a card rank, ace low: 1 (ace) through 13 (king).
type Rank int

const (
	RankAce   Rank = 1
	RankJack  Rank = 11
	RankQueen Rank = 12
	RankKing  Rank = 13
)

// rankNames maps the non-numeric ranks to display names.
var rankNames = map[Rank]string{
	RankAce:   "A",
	RankJack:  "J",
	RankQueen: "Q",
	RankKing:  "K",
}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return strconv.Itoa(int(r))
}

// Points is the scoring value of the rank: ace 1, pips at face value,
// court cards 10.
func (r Rank) Points() int {
	if r > 10 {
		return 10
	}
	return int(r)
}

// Card is an immutable card instance. ID is unique per physical card for the
// lifetime of a match and is never reused, even across shuffles.
type Card struct {
	ID   string `json:"id"`
	Rank Rank   `json:"rank"`
	Suit Suit   `json:"suit"`
}

func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Deck is an ordered sequence of cards; the top is the last element.
type Deck []Card

// NewDeck builds the 52-card deck with fresh card identities.
func NewDeck() Deck {
	deck := make(Deck, 0, 52)
	for _, s := range Suits {
		for r := RankAce; r <= RankKing; r++ {
			deck = append(deck, Card{
				ID:   uuid.NewString(),
				Rank: r,
				Suit: s,
			})
		}
	}
	return deck
}

// Shuffle permutes the deck uniformly at random.
func (d Deck) Shuffle() {
	rand.Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
}
