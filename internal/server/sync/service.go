// Package sync implements the server side of a sync round: planning a
// client's changes against the three manifests, then the commit step that
// applies uploads and deletions, merges divergent edits and snapshots the
// result as one commit.
package sync

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inkpress/inkpress/internal/manifest"
	"github.com/inkpress/inkpress/internal/server/history"
	"github.com/inkpress/inkpress/internal/server/merge"
)

// Publisher is notified after each successful commit with the round's
// changed and deleted paths. Called on the commit path while the tree lock
// is held, so implementations must return quickly; a publish failure never
// fails the sync that triggered it.
type Publisher interface {
	Publish(commit string, changed, deleted []string) error
}

// Service owns the sync lifecycle for one content root. Commits are
// serialized: the working tree is a single shared resource and concurrent
// commit requests are rejected, not interleaved.
type Service struct {
	history       *history.Store
	manifests     *ManifestStore
	merger        *merge.Merger
	publisher     Publisher
	defaultAuthor string
	now           func() time.Time

	mu sync.RWMutex
}

func NewService(hist *history.Store, manifests *ManifestStore, merger *merge.Merger, defaultAuthor string) *Service {
	return &Service{
		history:       hist,
		manifests:     manifests,
		merger:        merger,
		defaultAuthor: defaultAuthor,
		now:           time.Now,
	}
}

// SetPublisher wires the post-commit pipeline. Optional; nil disables it.
func (s *Service) SetPublisher(p Publisher) {
	s.publisher = p
}

// StatusArgs is one planning request: the client's manifest plus the commit
// reference it last synced against.
type StatusArgs struct {
	LastKnownCommit string
	Files           manifest.Manifest
}

// StatusResult is the computed plan and the server commit it was planned
// against.
type StatusResult struct {
	ServerCommit string
	Plan         *manifest.Plan
}

// Status computes the sync plan for a client. Read-only; may run
// concurrently with other reads but not with an in-flight commit.
func (s *Service) Status(args *StatusArgs) (*StatusResult, error) {
	if err := args.Files.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	head, err := s.history.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	serverMan, err := manifest.Scan(s.history.Root())
	if err != nil {
		return nil, fmt.Errorf("scan content root: %w", err)
	}

	base := s.baseManifest(args.LastKnownCommit)
	plan := manifest.BuildPlan(base, serverMan, args.Files)

	slog.Debug("sync: plan computed",
		"server_commit", head,
		"uploads", len(plan.Uploads),
		"downloads", len(plan.Downloads),
		"conflicts", len(plan.Conflicts))

	return &StatusResult{ServerCommit: head, Plan: plan}, nil
}

// baseManifest resolves the manifest recorded at ref. An empty, unknown or
// unrecorded ref yields nil: the no-common-ancestor case, handled downstream
// by the planner and merger fallbacks.
func (s *Service) baseManifest(ref string) manifest.Manifest {
	if ref == "" {
		return nil
	}
	m, err := s.manifests.Get(ref)
	if err != nil {
		slog.Debug("sync: no manifest recorded for base, treating as first sync", "ref", ref)
		return nil
	}
	return m
}
