package rules

import "errors"

var (
	ErrInvalidSquare = errors.New("invalid square")
	ErrInvalidUCI    = errors.New("invalid uci move")
	ErrInvalidFEN    = errors.New("invalid fen")
	ErrKingMissing   = errors.New("king missing from board")
)
