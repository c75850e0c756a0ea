// Package observe reads observation files written by an external card
// recogniser and watches a directory for new ones.
package observe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/round"
)

// ErrEmptyObservation is returned when a file contains no recognisable card
var ErrEmptyObservation = errors.New("observation has no recognisable cards")

// Detection is one recognised card. A nil score is treated as certain.
type Detection struct {
	Label string   `json:"label"`
	Score *float64 `json:"score,omitempty"`
}

// Observation is the parsed content of one file
type Observation struct {
	Name    string       `json:"name"`
	Labels  []deck.Label `json:"labels"`
	Ignored []string     `json:"ignored,omitempty"`
}

// State derives the player's line from the observed cards
func (o Observation) State() round.State {
	return round.FromCards(o.Labels)
}

// ParseFile reads and parses an observation file
func ParseFile(path string, minScore float64) (Observation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Observation{}, fmt.Errorf("read observation: %w", err)
	}
	return Parse(filepath.Base(path), data, minScore)
}

// Parse accepts three formats: a JSON object {"detections":[{"label","score"}]},
// a JSON array of labels, or plain text labels separated by whitespace or
// commas with # comments. Detections scoring below minScore are ignored.
func Parse(name string, data []byte, minScore float64) (Observation, error) {
	obs := Observation{Name: name}

	var tokens []Detection
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) > 0 && trimmed[0] == '{':
		var doc struct {
			Detections []Detection `json:"detections"`
		}
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return obs, fmt.Errorf("decode %s: %w", name, err)
		}
		tokens = doc.Detections
	case len(trimmed) > 0 && trimmed[0] == '[':
		var labels []string
		if err := json.Unmarshal(trimmed, &labels); err != nil {
			return obs, fmt.Errorf("decode %s: %w", name, err)
		}
		for _, l := range labels {
			tokens = append(tokens, Detection{Label: l})
		}
	default:
		for _, l := range textTokens(string(trimmed)) {
			tokens = append(tokens, Detection{Label: l})
		}
	}

	for _, d := range tokens {
		if d.Score != nil && *d.Score < minScore {
			obs.Ignored = append(obs.Ignored, d.Label)
			continue
		}
		l, ok := deck.ParseLabel(d.Label)
		if !ok {
			obs.Ignored = append(obs.Ignored, d.Label)
			continue
		}
		obs.Labels = append(obs.Labels, l)
	}

	if len(obs.Labels) == 0 {
		return obs, fmt.Errorf("%s: %w", name, ErrEmptyObservation)
	}
	return obs, nil
}

func textTokens(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		out = append(out, strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\r'
		})...)
	}
	return out
}
