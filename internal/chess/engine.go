// Package chess wraps the rules library behind the two operations the
// session handlers need: applying a move to a position and classifying
// terminal positions. All functions are pure, position in, position out.
package chess

import (
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/knightsgate/chess-backend/internal/apperror"
)

// StartingFEN is the standard initial position.
const StartingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Color identifies the side to move in a position.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Status classifies a terminal position.
type Status string

const (
	StatusNone                 Status = "none"
	StatusCheckmate            Status = "checkmate"
	StatusStalemate            Status = "stalemate"
	StatusInsufficientMaterial Status = "insufficient-material"
	StatusFivefoldRepetition   Status = "fivefold-repetition"
)

// Apply validates and applies a move in coordinate (UCI) notation to the
// given position and returns the resulting FEN. Malformed notation and
// moves that are not legal in the position both fail with ErrIllegalMove;
// the input position is never mutated.
func Apply(fen, move string) (string, error) {
	game, err := gameFromFEN(fen)
	if err != nil {
		return "", err
	}

	uci := strings.ToLower(strings.TrimSpace(move))
	if uci == "" {
		return "", fmt.Errorf("%w: empty move", apperror.ErrIllegalMove)
	}

	decoded, err := nchess.UCINotation{}.Decode(game.Position(), uci)
	if err != nil {
		return "", fmt.Errorf("%w: %s", apperror.ErrIllegalMove, uci)
	}

	if err = game.Move(decoded, nil); err != nil {
		return "", fmt.Errorf("%w: %s", apperror.ErrIllegalMove, uci)
	}

	return game.FEN(), nil
}

// Terminal reports whether the position is terminal and which side is to
// move. On checkmate the side to move is the side that was mated.
//
// Fivefold repetition is detectable only with move history; a bare FEN
// carries none, so positions reloaded from storage report it never.
func Terminal(fen string) (Status, Color, error) {
	game, err := gameFromFEN(fen)
	if err != nil {
		return StatusNone, White, err
	}

	side := colorFrom(game.Position().Turn())

	switch game.Method() {
	case nchess.Checkmate:
		return StatusCheckmate, side, nil
	case nchess.Stalemate:
		return StatusStalemate, side, nil
	case nchess.InsufficientMaterial:
		return StatusInsufficientMaterial, side, nil
	case nchess.FivefoldRepetition:
		return StatusFivefoldRepetition, side, nil
	default:
		return StatusNone, side, nil
	}
}

func gameFromFEN(fen string) (*nchess.Game, error) {
	option, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid position %q: %w", fen, err)
	}

	return nchess.NewGame(option), nil
}

func colorFrom(c nchess.Color) Color {
	if c == nchess.White {
		return White
	}
	return Black
}
