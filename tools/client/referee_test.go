package main

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/razzie/rbcremote/pkg/rbc"
)

func TestRefereeSenseWindow(t *testing.T) {
	ref := newReferee(chess.White, zap.NewNop())

	corner := ref.sense(chess.A1)
	require.Len(t, corner, 4)
	assert.Equal(t, rbc.SenseResult{Square: chess.A1, Piece: chess.WhiteRook}, corner[0])

	center := ref.sense(chess.E4)
	require.Len(t, center, 9)
	for _, r := range center {
		assert.True(t, r.Empty(), r.Square.String())
	}
}

func TestRefereeApply(t *testing.T) {
	ref := newReferee(chess.White, zap.NewNop())

	taken, captured := ref.apply(rbc.NewMove(chess.E2, chess.E5))
	assert.Nil(t, taken)
	assert.Nil(t, captured)

	m := rbc.NewMove(chess.E2, chess.E4)
	taken, captured = ref.apply(m)
	require.NotNil(t, taken)
	assert.Equal(t, m, *taken)
	assert.Nil(t, captured)
	assert.Equal(t, chess.Black, ref.game.Position().Turn())
	assert.Len(t, ref.possibleMoves(), 20)
}

func TestRefereeCapturedSquare(t *testing.T) {
	ref := newReferee(chess.White, zap.NewNop())
	for _, m := range []rbc.Move{
		rbc.NewMove(chess.E2, chess.E4),
		rbc.NewMove(chess.D7, chess.D5),
	} {
		taken, _ := ref.apply(m)
		require.NotNil(t, taken)
	}
	taken, captured := ref.apply(rbc.NewMove(chess.E4, chess.D5))
	require.NotNil(t, taken)
	require.NotNil(t, captured)
	assert.Equal(t, chess.D5, *captured)
}

func TestRefereeAdjudication(t *testing.T) {
	ref := newReferee(chess.Black, zap.NewNop())
	winner, reason := ref.result()
	assert.Equal(t, chess.Black, winner)
	assert.Equal(t, "adjudication", reason)
}
