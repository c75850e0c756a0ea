package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/lox/flip7helper/internal/deck"
	"github.com/lox/flip7helper/internal/round"
	"github.com/lox/flip7helper/internal/shoe"
)

const maxBodySize = 64 << 10

var (
	errUnknownCommand = errors.New("unknown command")
	errUnknownLabel   = errors.New("unknown card label")
)

type errorResponse struct {
	Error string `json:"error"`
}

type deckResponse struct {
	Total  int                `json:"total"`
	Counts map[deck.Label]int `json:"counts"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "OK")
}

func (s *Server) handleAdvice(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.advisor.Advise(s.tracker.Snapshot()))
}

func (s *Server) handleDeck(w http.ResponseWriter, _ *http.Request) {
	remaining := s.advisor.Remaining(s.tracker.Snapshot())
	writeJSON(w, http.StatusOK, deckResponse{Total: remaining.Total(), Counts: remaining.Counts()})
}

func (s *Server) handleLabels(cmd MessageType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body LabelsData
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
		if err := dec.Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		s.respond(r.Context(), w, cmd, body.Labels)
	}
}

func (s *Server) handleReset(cmd MessageType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.respond(r.Context(), w, cmd, nil)
	}
}

func (s *Server) respond(ctx context.Context, w http.ResponseWriter, cmd MessageType, labels []string) {
	snap, err := s.apply(ctx, cmd, labels)
	switch {
	case errors.Is(err, errUnknownLabel):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.logger.Error("Request failed", "command", cmd, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, s.advisor.Advise(snap))
	}
}

// apply runs one tracker command. It is shared by the HTTP API and websocket
// clients so both accept exactly the same operations.
func (s *Server) apply(ctx context.Context, cmd MessageType, raw []string) (shoe.Snapshot, error) {
	switch cmd {
	case MessageTypeNextRound:
		return s.tracker.NewRound(ctx), nil
	case MessageTypeShuffle:
		return s.tracker.Shuffle(ctx)
	}

	labels, err := parseLabels(raw)
	if err != nil {
		return shoe.Snapshot{}, err
	}

	switch cmd {
	case MessageTypeDraw:
		return s.tracker.Draw(ctx, labels...), nil
	case MessageTypeSeen:
		return s.tracker.MarkSeen(ctx, labels...), nil
	case MessageTypeUnsee:
		return s.tracker.Unsee(ctx, labels...), nil
	case MessageTypeSetRound:
		return s.tracker.SetState(ctx, round.FromCards(labels)), nil
	case MessageTypeObserve:
		return s.tracker.Sync(ctx, round.FromCards(labels)), nil
	}
	return shoe.Snapshot{}, fmt.Errorf("%w: %s", errUnknownCommand, cmd)
}

// parseLabels rejects the whole request on the first unknown label so a
// typo never silently drops a card.
func parseLabels(raw []string) ([]deck.Label, error) {
	labels := make([]deck.Label, 0, len(raw))
	for _, s := range raw {
		l, ok := deck.ParseLabel(s)
		if !ok {
			return nil, fmt.Errorf("%w: %q", errUnknownLabel, s)
		}
		labels = append(labels, l)
	}
	return labels, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
