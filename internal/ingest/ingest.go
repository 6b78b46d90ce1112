// Package ingest runs extraction over contract documents found on disk.
package ingest

import (
	"context"

	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

// Result is the per-file outcome.
type Result struct {
	Path    string
	HashHex string
	// DuplicateOf names the earlier file with identical content; its result is reused.
	DuplicateOf string
	Extraction  extract.Result
	Err         string
}

// DirStats summarizes a directory run.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// DocumentExtractor is the behavior the batch depends on.
type DocumentExtractor interface {
	ExtractDocument(ctx context.Context, doc extract.Document) (extract.Result, error)
}
