package rbcserver

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/razzie/rbcremote/pkg/agent"
	"github.com/razzie/rbcremote/pkg/rbc"
)

type session struct {
	mtx     sync.Mutex
	peer    string
	agent   agent.Agent
	color   rbc.Color
	turns   int
	started time.Time
}

func newSession(peer string, a agent.Agent, color rbc.Color) *session {
	return &session{
		peer:    peer,
		agent:   a,
		color:   color,
		started: time.Now(),
	}
}

func (sess *session) record(winner rbc.Color, reason string) *GameRecord {
	rec := &GameRecord{
		ID:        uuid.NewString(),
		Peer:      sess.peer,
		Color:     sess.color.Name(),
		Winner:    winner.Name(),
		Reason:    reason,
		Won:       winner == sess.color,
		Turns:     sess.turns,
		StartedAt: sess.started,
		EndedAt:   time.Now(),
	}
	if h, ok := sess.agent.(agent.BoardHistory); ok {
		rec.Boards = h.Boards()
	}
	return rec
}
