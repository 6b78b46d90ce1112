package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

type recordingExtractor struct {
	mu    sync.Mutex
	names []string
	fail  map[string]bool
}

func (r *recordingExtractor) ExtractDocument(_ context.Context, doc extract.Document) (extract.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names = append(r.names, filepath.Base(doc.Name))
	if r.fail[filepath.Base(doc.Name)] {
		return extract.Result{}, errors.New("unreadable")
	}
	return extract.Result{Fields: []extract.FieldValue{{Field: extract.FieldCustomer, Value: string(doc.Data), Found: true}}}, nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestExtractDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "홍길동")
	writeFile(t, filepath.Join(root, "sub", "copy-of-a.PDF"), "홍길동")
	writeFile(t, filepath.Join(root, "b.png"), "이몽룡")
	writeFile(t, filepath.Join(root, "bad.jpg"), "??")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, ".hidden", "c.pdf"), "성춘향")

	ex := &recordingExtractor{fail: map[string]bool{"bad.jpg": true}}
	b := NewBatch(ex, nil)

	results, stats, err := b.ExtractDirectory(context.Background(), root, true)
	require.NoError(t, err)

	assert.Equal(t, uint32(4), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Equal(t, uint32(1), stats.Failed)
	assert.NotContains(t, ex.names, "c.pdf")
	assert.NotContains(t, ex.names, "copy-of-a.PDF")

	byName := map[string]Result{}
	for _, r := range results {
		byName[filepath.Base(r.Path)] = r
	}
	dup := byName["copy-of-a.PDF"]
	assert.Equal(t, filepath.Join(root, "a.pdf"), dup.DuplicateOf)
	assert.Equal(t, "홍길동", dup.Extraction.Display(extract.FieldCustomer))
	assert.Equal(t, "unreadable", byName["bad.jpg"].Err)
}

func TestExtractDirectory_IncludesHiddenWhenAsked(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden", "c.pdf"), "성춘향")

	_, stats, err := NewBatch(&recordingExtractor{}, nil).ExtractDirectory(context.Background(), root, false)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), stats.Succeeded)
}

func TestExtractDirectory_RequiresRoot(t *testing.T) {
	_, _, err := NewBatch(&recordingExtractor{}, nil).ExtractDirectory(context.Background(), " ", true)
	assert.Error(t, err)
}

func TestExtractPath_RejectsUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.docx")
	writeFile(t, path, "x")
	_, err := NewBatch(&recordingExtractor{}, nil).ExtractPath(context.Background(), path)
	assert.Error(t, err)
}

func TestStartWatcher(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.pdf"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 20 * time.Millisecond})
	require.NoError(t, err)

	next := func() string {
		select {
		case p := <-events:
			return filepath.Base(p)
		case <-time.After(5 * time.Second):
			t.Fatal("no watcher event")
			return ""
		}
	}
	assert.Equal(t, "existing.pdf", next())

	writeFile(t, filepath.Join(root, "ignored.txt"), "x")
	writeFile(t, filepath.Join(root, "new.png"), "x")
	assert.Equal(t, "new.png", next())
}

func TestStartWatcher_NoRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	assert.Error(t, err)
}
