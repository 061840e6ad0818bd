package chessdto

import (
	"context"
	"errors"

	"github.com/park285/cheese-chess/internal/game"
	"github.com/park285/cheese-chess/internal/rules"
	"github.com/park285/cheese-chess/internal/store"
)

const (
	CodeIllegalMove = "illegal_move"
	CodeBadInput    = "bad_input"
	CodeGameOver    = "game_over"
	CodeNotFound    = "not_found"
	CodeTimeout     = "timeout"
	CodeInternal    = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "chess service error"
}

// ToDomainError classifies err for display. nil stays nil.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de DomainError
	if errors.As(err, &de) {
		return &de
	}
	code, retry := CodeInternal, false
	switch {
	case errors.Is(err, game.ErrIllegalMove):
		code = CodeIllegalMove
	case errors.Is(err, rules.ErrInvalidUCI), errors.Is(err, rules.ErrInvalidFEN),
		errors.Is(err, rules.ErrInvalidSquare), errors.Is(err, rules.ErrKingMissing):
		code = CodeBadInput
	case errors.Is(err, game.ErrGameOver):
		code = CodeGameOver
	case errors.Is(err, store.ErrNotFound):
		code = CodeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		code, retry = CodeTimeout, true
	}
	return &DomainError{Code: code, Message: err.Error(), Retryable: retry}
}
