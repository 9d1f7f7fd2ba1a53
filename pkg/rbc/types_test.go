package rbc

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
)

func TestMoveString(t *testing.T) {
	assert.Equal(t, "e2e4", NewMove(chess.E2, chess.E4).String())
	assert.Equal(t, "a7a8q", Move{From: chess.A7, To: chess.A8, Promo: chess.Queen}.String())
}

func TestParseMove(t *testing.T) {
	for _, s := range []string{"e2e4", "a7a8q", "h2h1n", "b7c8r", "g2g1b"} {
		m, ok := ParseMove(s)
		if assert.True(t, ok, s) {
			assert.Equal(t, s, m.String())
		}
	}
	for _, s := range []string{"", "e2", "e2e9", "i2e4", "e7e8x", "e2e4qq"} {
		_, ok := ParseMove(s)
		assert.False(t, ok, s)
	}
}

func TestSq(t *testing.T) {
	assert.Equal(t, chess.A1, Sq(0, 0))
	assert.Equal(t, chess.H8, Sq(7, 7))
	assert.Equal(t, chess.C2, Sq(2, 1))
}
