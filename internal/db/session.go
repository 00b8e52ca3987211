package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Session is a connection held for the lifetime of one live recording.
// Release must be called exactly once when the recording ends.
type Session interface {
	TxQuerier
	Release()
}

// SessionSource hands out dedicated sessions.
type SessionSource interface {
	Acquire(ctx context.Context) (Session, error)
}

var ErrNoDatabase = errors.New("database not configured")

// PoolSource acquires sessions from a pgx pool.
type PoolSource struct {
	Pool *pgxpool.Pool
}

func (p PoolSource) Acquire(ctx context.Context) (Session, error) {
	if p.Pool == nil {
		return nil, ErrNoDatabase
	}
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}
