package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/report"
	"github.com/lox/flip7helper/internal/round"
)

const helpText = `commands:
  7 x2 +4        draw cards into your line (counted as seen)
  seen 12 12     count cards dealt to other players
  unsee 12       undo a miscount
  set 3 8 sc     replace your line without counting cards
  next           start a new round, keep the seen counter
  shuffle        start a new shoe
  deck           show the remaining cards
  quit           exit`

// processAction runs one line typed into the action pane
func (m *Model) processAction(input string) {
	parts := strings.Fields(strings.ToLower(input))
	if len(parts) == 0 {
		return
	}
	ctx := context.Background()

	cmd, args := parts[0], parts[1:]
	switch cmd {
	case "quit", "exit", "q":
		m.quitting = true
		return
	case "help", "?":
		for _, line := range strings.Split(helpText, "\n") {
			m.AddLogEntry(line)
		}
		return
	case "next":
		m.setSnapshot(m.tracker.NewRound(ctx))
		m.AddLogEntry(fmt.Sprintf("Round %d", m.snapshot.Round))
		return
	case "shuffle":
		snap, err := m.tracker.Shuffle(ctx)
		if err != nil {
			m.addError(err.Error())
			return
		}
		m.setSnapshot(snap)
		m.AddLogEntry("Shuffled: new shoe " + shortID(snap.ID))
		return
	case "deck":
		m.logDeck()
		return
	}

	// anything else is a list of cards, optionally prefixed by a verb
	verb := "draw"
	switch cmd {
	case "seen", "unsee", "set", "draw":
		verb, parts = cmd, args
	}

	labels, bad := parseLabels(parts)
	if len(bad) > 0 {
		m.addError("unknown card: " + strings.Join(bad, ", "))
		return
	}
	if len(labels) == 0 && verb != "set" {
		m.addError(verb + " needs at least one card")
		return
	}

	switch verb {
	case "draw":
		m.setSnapshot(m.tracker.Draw(ctx, labels...))
	case "seen":
		m.setSnapshot(m.tracker.MarkSeen(ctx, labels...))
	case "unsee":
		m.setSnapshot(m.tracker.Unsee(ctx, labels...))
	case "set":
		m.setSnapshot(m.tracker.SetState(ctx, round.FromCards(labels)))
	}
	m.AddLogEntry(fmt.Sprintf("%s %s → %s", verb, joinLabels(labels), m.summary()))
}

func (m *Model) logDeck() {
	remaining := m.advisor.Remaining(m.snapshot)
	var parts []string
	for _, l := range deck.AllLabels() {
		parts = append(parts, fmt.Sprintf("%s:%d", l, remaining.Count(l)))
	}
	m.AddLogEntry(fmt.Sprintf("%d cards left", remaining.Total()))
	m.AddLogEntry(strings.Join(parts, " "))
}

// summary is the one-line log form of the current advice
func (m *Model) summary() string {
	out := m.advice.Output
	return fmt.Sprintf("bank %d, bust %s, EV %.2f, %s",
		out.CurrentBank, report.Percent(out.BustProbabilityNext), out.ExpectedValueNext, m.advice.Recommendation)
}

func parseLabels(tokens []string) ([]deck.Label, []string) {
	var labels []deck.Label
	var bad []string
	for _, tok := range tokens {
		for _, s := range strings.Split(tok, ",") {
			if s == "" {
				continue
			}
			l, ok := deck.ParseLabel(s)
			if !ok {
				bad = append(bad, s)
				continue
			}
			labels = append(labels, l)
		}
	}
	return labels, bad
}

func joinLabels(labels []deck.Label) string {
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.String()
	}
	return strings.Join(parts, " ")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
