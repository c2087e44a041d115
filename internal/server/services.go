package server

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/inkpress/inkpress/internal/server/auth"
	"github.com/inkpress/inkpress/internal/server/history"
	"github.com/inkpress/inkpress/internal/server/merge"
	"github.com/inkpress/inkpress/internal/server/publish"
	"github.com/inkpress/inkpress/internal/server/sync"
)

type Services struct {
	History   *history.Store
	Manifests *sync.ManifestStore
	Auth      *auth.AuthService
	Sync      *sync.Service
	Publish   *publish.Service

	pipeline *publish.Pipeline
}

func NewServices(config *Config, db *sqlx.DB) (*Services, error) {
	hist, err := history.Open(history.Config{
		Root:       config.Content.Root,
		AuthorName: config.Content.DefaultAuthor,
	})
	if err != nil {
		return nil, fmt.Errorf("open content history: %w", err)
	}

	manifests, err := sync.NewManifestStore(db)
	if err != nil {
		return nil, fmt.Errorf("open manifest store: %w", err)
	}

	merger := merge.New(hist, config.Content.DefaultAuthor)
	syncSvc := sync.NewService(hist, manifests, merger, config.Content.DefaultAuthor)

	publishSvc, err := publish.NewService(db, &publish.Config{
		Root:      config.Content.Root,
		PostGlobs: config.Content.PostGlobs,
	})
	if err != nil {
		return nil, fmt.Errorf("open publish service: %w", err)
	}

	// commits enqueue index updates; the pipeline worker applies them in
	// commit order off the request path
	pipeline := publish.NewPipeline(publishSvc)
	syncSvc.SetPublisher(pipeline)

	authSvc := auth.NewAuthService(&config.Auth)

	return &Services{
		History:   hist,
		Manifests: manifests,
		Auth:      authSvc,
		Sync:      syncSvc,
		Publish:   publishSvc,
		pipeline:  pipeline,
	}, nil
}

// Start brings the post index in line with the committed tree. Runs before
// the listener accepts traffic, so the site never serves a stale index after
// a restart.
func (s *Services) Start(ctx context.Context) error {
	head, err := s.History.Head()
	if err != nil {
		return fmt.Errorf("read content head: %w", err)
	}
	if err := s.Publish.Reindex(head); err != nil {
		return fmt.Errorf("reindex posts: %w", err)
	}
	return nil
}

// Stop drains pending index updates. Call after the listener stops accepting
// commits and before the database closes.
func (s *Services) Stop() {
	s.pipeline.Close()
}
