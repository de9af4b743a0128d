/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrFull       = errors.New("room is full")
	ErrWrongPhase = errors.New("invalid game state")
	ErrWrongTurn  = errors.New("not your turn")
	ErrNotAPlayer = errors.New("player not found")

	ErrAlreadySeated = errors.New("already seated")
)

// gameError carries a player-facing message while still matching one of the
// sentinel kinds above through errors.Is.
type gameError struct {
	kind    error
	message string
}

func (e *gameError) Error() string {
	return e.message
}

func (e *gameError) Unwrap() error {
	return e.kind
}

func newGameError(kind error, format string, args ...any) error {
	return &gameError{
		kind:    kind,
		message: fmt.Sprintf(format, args...),
	}
}

func logf(cfg *Config, format string, args ...any) {
	if !cfg.verbose {
		return
	}

	log.Printf("%s | "+format, append([]any{time.Now().Format(logDate)}, args...)...)
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}
