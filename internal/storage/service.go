package storage

import (
	"context"
	"io"
	"path/filepath"

	"backend-pedalhub/internal/db"

	"github.com/google/uuid"
)

type Object struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

type Service struct {
	db      db.Querier
	backend Backend
}

func NewService(db db.Querier, backend Backend) *Service {
	return &Service{db: db, backend: backend}
}

// Upload stores the content under a fresh name and records it against the user.
func (s *Service) Upload(ctx context.Context, userID, fileName, contentType, kind string, r io.Reader) (Object, error) {
	id := uuid.NewString()
	url, err := s.backend.Save(ctx, id+filepath.Ext(fileName), contentType, r)
	if err != nil {
		return Object{}, err
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO storage_objects (id, user_id, url, kind)
		VALUES ($1,$2,$3,$4)
	`, id, userID, url, kind)
	if err != nil {
		_ = s.backend.Delete(ctx, url)
		return Object{}, err
	}
	return Object{ID: id, URL: url, Kind: kind}, nil
}
