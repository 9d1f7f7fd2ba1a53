package main

import (
	"context"
	"math/rand"
	"time"

	"github.com/notnil/chess"
	"go.uber.org/zap"

	"github.com/razzie/rbcremote/pkg/connector"
	"github.com/razzie/rbcremote/pkg/rbc"
)

const clockBudget = 15 * time.Minute

var material = map[chess.PieceType]int{
	chess.Pawn:   1,
	chess.Knight: 3,
	chess.Bishop: 3,
	chess.Rook:   5,
	chess.Queen:  9,
}

// referee keeps the true board of a demo game between the remote agent and a
// local random opponent. Move legality follows regular chess.
type referee struct {
	game     *chess.Game
	color    rbc.Color
	rng      *rand.Rand
	logger   *zap.Logger
	clock    time.Duration
	captured *rbc.Square
}

func newReferee(color rbc.Color, logger *zap.Logger) *referee {
	return &referee{
		game:   chess.NewGame(),
		color:  color,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		logger: logger,
		clock:  clockBudget,
	}
}

// play runs the game until it ends or maxTurns moves of the remote agent were
// played, then reports the result to the agent.
func (r *referee) play(ctx context.Context, p *connector.Player, maxTurns int) (rbc.Color, string) {
	// notification failures are already logged by the player
	_ = p.HandleGameStart(ctx, r.color)

	turns := 0
	for r.game.Outcome() == chess.NoOutcome && turns < maxTurns && ctx.Err() == nil {
		if r.game.Position().Turn() == r.color {
			r.playTurn(ctx, p)
			turns++
		} else {
			r.playOpponent()
		}
	}

	winner, reason := r.result()
	_ = p.HandleGameEnd(context.Background(), winner, reason)
	return winner, reason
}

func (r *referee) playTurn(ctx context.Context, p *connector.Player) {
	start := time.Now()
	defer func() { r.clock -= time.Since(start) }()

	_ = p.HandleOpponentMove(ctx, r.captured)
	r.captured = nil

	moves := r.possibleMoves()
	sq, _ := p.ChooseSense(ctx, allSquares(), moves, r.secondsLeft(start))
	_ = p.HandleSenseResult(ctx, r.sense(sq))

	requested, err := p.ChooseMove(ctx, moves, r.secondsLeft(start))
	if err != nil {
		r.logger.Warn("no move chosen", zap.Error(err))
	}
	taken, captured := r.apply(requested)
	reason := ""
	if taken == nil {
		reason = "illegal move " + requested.String()
	}
	_ = p.HandleMoveResult(ctx, requested, taken, reason, captured)
}

func (r *referee) playOpponent() {
	valid := r.game.ValidMoves()
	m := valid[r.rng.Intn(len(valid))]
	if sq, ok := capturedSquare(m); ok {
		r.captured = &sq
	}
	if err := r.game.Move(m); err != nil {
		r.logger.Error("opponent move rejected", zap.Stringer("move", m), zap.Error(err))
	}
}

func (r *referee) possibleMoves() []rbc.Move {
	valid := r.game.ValidMoves()
	moves := make([]rbc.Move, 0, len(valid))
	for _, m := range valid {
		moves = append(moves, rbc.Move{From: m.S1(), To: m.S2(), Promo: m.Promo()})
	}
	return moves
}

// apply plays the requested move on the true board if it is legal.
func (r *referee) apply(requested rbc.Move) (*rbc.Move, *rbc.Square) {
	for _, m := range r.game.ValidMoves() {
		if m.S1() != requested.From || m.S2() != requested.To || m.Promo() != requested.Promo {
			continue
		}
		sq, captured := capturedSquare(m)
		if err := r.game.Move(m); err != nil {
			r.logger.Error("move rejected", zap.Stringer("move", m), zap.Error(err))
			return nil, nil
		}
		taken := requested
		if captured {
			return &taken, &sq
		}
		return &taken, nil
	}
	return nil, nil
}

// sense returns the 3x3 window around sq, clipped to the board.
func (r *referee) sense(sq rbc.Square) []rbc.SenseResult {
	board := r.game.Position().Board()
	var results []rbc.SenseResult
	for rank := int(sq.Rank()) - 1; rank <= int(sq.Rank())+1; rank++ {
		for file := int(sq.File()) - 1; file <= int(sq.File())+1; file++ {
			if file < 0 || file > 7 || rank < 0 || rank > 7 {
				continue
			}
			s := rbc.Sq(file, rank)
			results = append(results, rbc.SenseResult{Square: s, Piece: board.Piece(s)})
		}
	}
	return results
}

func (r *referee) secondsLeft(start time.Time) float64 {
	return (r.clock - time.Since(start)).Seconds()
}

// result adjudicates unfinished and drawn games on material. Equal material
// goes to black.
func (r *referee) result() (rbc.Color, string) {
	switch r.game.Outcome() {
	case chess.WhiteWon:
		return chess.White, "checkmate"
	case chess.BlackWon:
		return chess.Black, "checkmate"
	}
	score := 0
	for _, piece := range r.game.Position().Board().SquareMap() {
		if piece.Color() == chess.White {
			score += material[piece.Type()]
		} else {
			score -= material[piece.Type()]
		}
	}
	if score > 0 {
		return chess.White, "adjudication"
	}
	return chess.Black, "adjudication"
}

func capturedSquare(m *chess.Move) (rbc.Square, bool) {
	if m.HasTag(chess.EnPassant) {
		return chess.NewSquare(m.S2().File(), m.S1().Rank()), true
	}
	if m.HasTag(chess.Capture) {
		return m.S2(), true
	}
	return 0, false
}

func allSquares() []rbc.Square {
	squares := make([]rbc.Square, 0, 64)
	for sq := chess.A1; sq <= chess.H8; sq++ {
		squares = append(squares, sq)
	}
	return squares
}
