package history

import "errors"

var (
	// ErrNoCommits means the store has no history yet.
	ErrNoCommits = errors.New("history: no commits")

	// ErrCommitNotFound means the given reference does not resolve to a
	// commit in this store.
	ErrCommitNotFound = errors.New("history: commit not found")

	// ErrFileNotFound means the path was absent from the tree at the given
	// commit.
	ErrFileNotFound = errors.New("history: file not found at commit")
)
