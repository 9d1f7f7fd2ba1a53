package rbcserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Server exposes the remote agent on /ws/ and finished game records on
// /record/<id> and /gif/<id>.
type Server struct {
	http.ServeMux
	mgr    *SessionMgr
	logger *zap.Logger
}

func NewServer(mgr *SessionMgr) *Server {
	srv := &Server{
		mgr:    mgr,
		logger: mgr.logger,
	}

	srv.HandleFunc("/ws/", mgr.ServeRPC)

	srv.HandleFunc("/record/", func(w http.ResponseWriter, r *http.Request) {
		rec, ok := srv.loadRecord(w, r, strings.TrimPrefix(r.URL.Path, "/record/"))
		if !ok {
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(rec); err != nil {
			srv.logger.Error("failed to write game record", zap.String("game", rec.ID), zap.Error(err))
		}
	})

	srv.HandleFunc("/gif/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/gif/")
		rec, ok := srv.loadRecord(w, r, id)
		if !ok {
			return
		}
		if len(rec.Boards) == 0 {
			http.Error(w, "Game has no boards", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Disposition", "attachment; filename="+id+".gif")
		w.Header().Set("Content-Type", "image/gif")
		if err := BoardsToGIF(w, rec.Boards); err != nil {
			srv.logger.Error("failed to render game", zap.String("game", id), zap.Error(err))
		}
	})

	return srv
}

func (srv *Server) loadRecord(w http.ResponseWriter, r *http.Request, id string) (*GameRecord, bool) {
	if len(id) == 0 {
		http.Error(w, "Game not found", http.StatusNotFound)
		return nil, false
	}
	rec, err := srv.mgr.LoadRecord(r.Context(), id)
	if errors.Is(err, ErrRecordNotFound) {
		http.Error(w, "Game not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		srv.logger.Error("failed to load game record", zap.String("game", id), zap.Error(err))
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return nil, false
	}
	return rec, true
}
