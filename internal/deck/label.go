package deck

import (
	"strconv"
	"strings"
)

// Label identifies a kind of card in the Flip 7 shoe
type Label string

// Action cards
const (
	Freeze       Label = "freeze"
	FlipThree    Label = "flipthree"
	SecondChance Label = "secondchance"
)

// Modifier cards
const (
	Plus2  Label = "+2"
	Plus4  Label = "+4"
	Plus6  Label = "+6"
	Plus8  Label = "+8"
	Plus10 Label = "+10"
	Times2 Label = "x2"
)

const (
	// MaxNumber is the highest number card value
	MaxNumber = 12

	numLabels = MaxNumber + 1 + 3 + 6
)

// canonical order: numbers 0..12, actions, flat modifiers, multiplier
var labelOrder = [numLabels]Label{
	"0", "1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12",
	Freeze, FlipThree, SecondChance,
	Plus2, Plus4, Plus6, Plus8, Plus10,
	Times2,
}

var aliases = map[string]Label{
	"flip3":         FlipThree,
	"flip_three":    FlipThree,
	"flip-three":    FlipThree,
	"f3":            FlipThree,
	"second_chance": SecondChance,
	"second-chance": SecondChance,
	"sc":            SecondChance,
	"2x":            Times2,
	"*2":            Times2,
	"×2":            Times2,
}

// AllLabels returns every card label in canonical order
func AllLabels() []Label {
	out := make([]Label, numLabels)
	copy(out, labelOrder[:])
	return out
}

// NumberLabel returns the label of number card n
func NumberLabel(n int) Label {
	return Label(strconv.Itoa(n))
}

// ParseLabel normalises a recogniser or user token into a Label.
// Returns false for anything outside the vocabulary.
func ParseLabel(s string) (Label, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", false
	}
	if l, ok := aliases[s]; ok {
		return l, true
	}
	l := Label(s)
	if l.index() < 0 {
		return "", false
	}
	return l, true
}

// String returns the label text
func (l Label) String() string {
	return string(l)
}

// Number returns the value of a number card label
func (l Label) Number() (int, bool) {
	if len(l) == 0 || len(l) > 2 {
		return 0, false
	}
	n, err := strconv.Atoi(string(l))
	if err != nil || n < 0 || n > MaxNumber {
		return 0, false
	}
	// reject forms like "07"
	if string(NumberLabel(n)) != string(l) {
		return 0, false
	}
	return n, true
}

// IsNumber returns true for the number cards 0..12
func (l Label) IsNumber() bool {
	_, ok := l.Number()
	return ok
}

// Modifier returns the bonus of a +N card
func (l Label) Modifier() (int, bool) {
	switch l {
	case Plus2:
		return 2, true
	case Plus4:
		return 4, true
	case Plus6:
		return 6, true
	case Plus8:
		return 8, true
	case Plus10:
		return 10, true
	default:
		return 0, false
	}
}

// Valid reports whether the label is part of the vocabulary
func (l Label) Valid() bool {
	return l.index() >= 0
}

func (l Label) index() int {
	if n, ok := l.Number(); ok {
		return n
	}
	for i := MaxNumber + 1; i < numLabels; i++ {
		if labelOrder[i] == l {
			return i
		}
	}
	return -1
}
