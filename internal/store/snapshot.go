// Package store defines the quiz snapshot format shared by every persistence
// backend: the full ordered quiz list serialized as one versioned blob. There
// is no incremental diffing; every mutation rewrites the whole snapshot.
package store

import (
	"encoding/json"
	"fmt"

	"uniquest/internal/domain"
)

// SnapshotVersion is bumped when the snapshot layout changes. Unknown
// versions are treated like corrupt data: the caller degrades to an empty
// list instead of crashing.
const SnapshotVersion = 1

// DefaultNamespace is the fixed key the quiz set is stored under, carried
// over from the original deployment.
const DefaultNamespace = "uniquest:quizzes"

type snapshot struct {
	Version int           `json:"version"`
	Quizzes []domain.Quiz `json:"quizzes"`
}

// EncodeSnapshot serializes the quiz list, most-recently-added first.
func EncodeSnapshot(quizzes []domain.Quiz) ([]byte, error) {
	return json.Marshal(snapshot{Version: SnapshotVersion, Quizzes: quizzes})
}

// DecodeSnapshot parses a snapshot blob. A version mismatch or malformed
// document is an error; callers turn that into an empty list plus a warning.
func DecodeSnapshot(data []byte) ([]domain.Quiz, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", snap.Version)
	}
	return snap.Quizzes, nil
}

// FilterValid drops quizzes that fail validation, so a snapshot that parses
// but carries a broken entry (no questions, duplicate ids) cannot reach an
// attempt. It returns the kept quizzes and the ids of the dropped ones.
func FilterValid(quizzes []domain.Quiz) ([]domain.Quiz, []string) {
	kept := quizzes[:0:0]
	var dropped []string
	for _, q := range quizzes {
		if err := q.Validate(); err != nil {
			dropped = append(dropped, q.ID)
			continue
		}
		kept = append(kept, q)
	}
	return kept, dropped
}
