package chess

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knightsgate/chess-backend/internal/apperror"
)

func TestApply(t *testing.T) {
	t.Run("OpeningMove", func(t *testing.T) {
		// When: white plays e2e4 from the starting position
		fen, err := Apply(StartingFEN, "e2e4")

		// Then: the position reflects the move and black is to move
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(fen, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPPPPPP/RNBQKBNR b KQkq"), fen)

		status, side, err := Terminal(fen)
		require.NoError(t, err)
		assert.Equal(t, StatusNone, status)
		assert.Equal(t, Black, side)
	})

	t.Run("IllegalMove", func(t *testing.T) {
		// When: white tries to jump a pawn to e5
		_, err := Apply(StartingFEN, "e2e5")

		// Then: the move is rejected as illegal
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrIllegalMove)
	})

	t.Run("MalformedNotation", func(t *testing.T) {
		_, err := Apply(StartingFEN, "not-a-move")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrIllegalMove)
	})

	t.Run("EmptyMove", func(t *testing.T) {
		_, err := Apply(StartingFEN, "")

		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrIllegalMove)
	})

	t.Run("InvalidPosition", func(t *testing.T) {
		_, err := Apply("garbage", "e2e4")

		require.Error(t, err)
	})

	t.Run("LegalSequenceNeverFails", func(t *testing.T) {
		// Given: a legal opening line
		moves := []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1b5", "a7a6"}

		// When: the sequence is applied move by move
		fen := StartingFEN
		var err error
		for _, move := range moves {
			fen, err = Apply(fen, move)
			require.NoError(t, err, "move %s", move)
		}

		// Then: the game simply continues
		status, side, err := Terminal(fen)
		require.NoError(t, err)
		assert.Equal(t, StatusNone, status)
		assert.Equal(t, White, side)
	})
}

func TestTerminal(t *testing.T) {
	t.Run("CheckmateByFoolsMate", func(t *testing.T) {
		// Given: the fastest checkmate, black mates white
		moves := []string{"f2f3", "e7e5", "g2g4", "d8h4"}

		fen := StartingFEN
		var err error
		for _, move := range moves {
			fen, err = Apply(fen, move)
			require.NoError(t, err, "move %s", move)
		}

		// When: the final position is evaluated
		status, side, err := Terminal(fen)

		// Then: white is to move and mated
		require.NoError(t, err)
		assert.Equal(t, StatusCheckmate, status)
		assert.Equal(t, White, side)
	})

	t.Run("StalemateOneMoveAway", func(t *testing.T) {
		// Given: queen endgame one careless move from stalemate
		fen := "k7/8/1K6/8/8/8/2Q5/8 w - - 0 1"

		// When: the queen takes c7
		next, err := Apply(fen, "c2c7")
		require.NoError(t, err)

		// Then: black has no legal move and is not in check
		status, side, err := Terminal(next)
		require.NoError(t, err)
		assert.Equal(t, StatusStalemate, status)
		assert.Equal(t, Black, side)
	})

	t.Run("InsufficientMaterial", func(t *testing.T) {
		// Given: bare kings
		fen := "8/8/8/8/8/4k3/8/4K3 w - - 0 1"

		status, _, err := Terminal(fen)

		require.NoError(t, err)
		assert.Equal(t, StatusInsufficientMaterial, status)
	})

	t.Run("OngoingPosition", func(t *testing.T) {
		status, side, err := Terminal(StartingFEN)

		require.NoError(t, err)
		assert.Equal(t, StatusNone, status)
		assert.Equal(t, White, side)
	})
}
