package round

import "github.com/lox/flip7helper/internal/deck"

// FromLabels derives a round state from a set of recognised card labels.
// Unknown tokens are ignored; +N modifiers are summed.
func FromLabels(labels []string) State {
	cards := make([]deck.Label, 0, len(labels))
	for _, raw := range labels {
		if l, ok := deck.ParseLabel(raw); ok {
			cards = append(cards, l)
		}
	}
	return FromCards(cards)
}

// FromCards folds already-parsed cards into a fresh state
func FromCards(cards []deck.Label) State {
	var s State
	for _, l := range cards {
		s = s.Apply(l)
	}
	return s
}

// Apply folds one card into the line. Freeze and unknown labels leave the
// state unchanged, as does a number already in the line.
func (s State) Apply(l deck.Label) State {
	if n, ok := l.Number(); ok {
		return s.WithNumber(n)
	}
	if m, ok := l.Modifier(); ok {
		return s.WithAddPoints(m)
	}
	switch l {
	case deck.SecondChance:
		return s.WithSecondChance(true)
	case deck.FlipThree:
		return s.WithFlipThree(true)
	case deck.Times2:
		return s.WithMultiplier(true)
	}
	return s
}

// Labels returns the cards that make up the state, suitable for rebuilding
// it with FromLabels.
func (s State) Labels() []deck.Label {
	labels := s.Numbers.Labels()
	if s.HasSecondChance {
		labels = append(labels, deck.SecondChance)
	}
	if s.FlipThreeActive {
		labels = append(labels, deck.FlipThree)
	}
	if s.MultiplierX2 {
		labels = append(labels, deck.Times2)
	}
	remaining := s.AddPoints
	for _, l := range []deck.Label{deck.Plus10, deck.Plus8, deck.Plus6, deck.Plus4, deck.Plus2} {
		m, _ := l.Modifier()
		if remaining >= m {
			labels = append(labels, l)
			remaining -= m
		}
	}
	return labels
}
