package rbcserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
)

var ErrRecordNotFound = errors.New("game record not found")

// GameRecord summarises a finished game.
type GameRecord struct {
	ID        string    `json:"id"`
	Peer      string    `json:"peer"`
	Color     string    `json:"color"`
	Winner    string    `json:"winner"`
	Reason    string    `json:"reason"`
	Won       bool      `json:"won"`
	Turns     int       `json:"turns"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Boards    []string  `json:"boards,omitempty"`
}

type RecordStore interface {
	SaveRecord(ctx context.Context, rec *GameRecord, expiration time.Duration) error
	LoadRecord(ctx context.Context, id string) (*GameRecord, error)
}

type DB redis.Client

func NewDB(redisURL string) (*DB, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	db := redis.NewClient(opt)
	if err := db.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return (*DB)(db), nil
}

func recordKey(id string) string {
	return "game:" + id
}

func (db *DB) SaveRecord(ctx context.Context, rec *GameRecord, expiration time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return (*redis.Client)(db).Set(ctx, recordKey(rec.ID), raw, expiration).Err()
}

func (db *DB) LoadRecord(ctx context.Context, id string) (*GameRecord, error) {
	raw, err := (*redis.Client)(db).Get(ctx, recordKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec GameRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (db *DB) Close() error {
	return (*redis.Client)(db).Close()
}
