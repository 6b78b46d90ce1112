package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

// Batch extracts files from disk, remembering content hashes so a document
// copied under another name is only read once.
type Batch struct {
	extractor DocumentExtractor
	logger    *slog.Logger

	mu   sync.Mutex
	seen map[string]Result
}

func NewBatch(extractor DocumentExtractor, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = slog.Default()
	}
	return &Batch{extractor: extractor, logger: logger, seen: make(map[string]Result)}
}

// ExtractPath extracts a single file.
func (b *Batch) ExtractPath(ctx context.Context, path string) (Result, error) {
	out := Result{Path: path}
	if !allowed(path) {
		return out, fmt.Errorf("unsupported or missing extension: %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		b.logger.Error("ingest.read.failed", "path", path, "error", err)
		return out, err
	}
	sum := sha256.Sum256(data)
	out.HashHex = hex.EncodeToString(sum[:])

	b.mu.Lock()
	prev, dup := b.seen[out.HashHex]
	b.mu.Unlock()
	if dup {
		out.DuplicateOf = prev.Path
		out.Extraction = prev.Extraction
		b.logger.Info("ingest.dedup", "path", path, "duplicate_of", prev.Path)
		return out, nil
	}

	res, err := b.extractor.ExtractDocument(ctx, extract.Document{Name: path, Data: data})
	if err != nil {
		return out, err
	}
	out.Extraction = res

	b.mu.Lock()
	b.seen[out.HashHex] = out
	b.mu.Unlock()
	return out, nil
}

// ExtractDirectory walks root, skips hidden entries if requested,
// and calls ExtractPath for each supported file. Returns per-file results + aggregate stats.
func (b *Batch) ExtractDirectory(ctx context.Context, root string, skipHidden bool) ([]Result, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []Result
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, Result{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed(path) {
			return nil
		}
		stats.Matched++

		r, err := b.ExtractPath(ctx, path)
		if err != nil {
			r.Err = err.Error()
			results = append(results, r)
			stats.Failed++
			return nil
		}
		results = append(results, r)
		stats.Succeeded++
		if r.DuplicateOf != "" {
			stats.Deduplicated++
		}
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	b.logger.Info("ingest.directory.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return results, stats, nil
}
