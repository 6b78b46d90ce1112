package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/contracts-tracker/constants"
	"github.com/joseph-ayodele/contracts-tracker/internal/common"
	"github.com/joseph-ayodele/contracts-tracker/internal/extract"
)

func TestStart(t *testing.T) {
	m := NewManager(0, nil)

	s, err := m.Start("  김영업 ")
	require.NoError(t, err)
	assert.Equal(t, "김영업", s.Salesperson)
	assert.NotEqual(t, uuid.Nil, s.ID)

	_, err = m.Start("   ")
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := NewManager(0, nil)
	a, err := m.Start("A")
	require.NoError(t, err)
	b, err := m.Start("B")
	require.NoError(t, err)

	require.NoError(t, m.SetLink(a.ID, constants.KindLotte, "https://x"))
	require.NoError(t, m.StoreExtraction(a.ID, "q.pdf", extract.Result{}))

	got, err := m.Get(b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Links)
	assert.Nil(t, got.Extraction)
}

func TestExtractionCacheIsKeyedByDocument(t *testing.T) {
	m := NewManager(0, nil)
	s, _ := m.Start("A")
	res := extract.Result{Fields: []extract.FieldValue{{Field: "고객명", Value: "홍", Found: true}}}

	require.NoError(t, m.StoreExtraction(s.ID, "a.pdf", res))
	cached, ok := m.CachedExtraction(s.ID, "a.pdf")
	require.True(t, ok)
	assert.Equal(t, res, cached)

	_, ok = m.CachedExtraction(s.ID, "b.pdf")
	assert.False(t, ok)
}

func TestReset(t *testing.T) {
	m := NewManager(0, nil)
	s, _ := m.Start("A")
	require.NoError(t, m.SetLink(s.ID, constants.KindNovadeal, "https://x"))
	require.NoError(t, m.StoreExtraction(s.ID, "a.pdf", extract.Result{}))

	require.NoError(t, m.Reset(s.ID))
	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Salesperson)
	assert.Empty(t, got.Links)
	assert.Nil(t, got.Extraction)
}

func TestEndAndUnknown(t *testing.T) {
	m := NewManager(0, nil)
	s, _ := m.Start("A")
	m.End(s.ID)

	_, err := m.Get(s.ID)
	assert.ErrorIs(t, err, common.ErrSessionNotFound)
	_, err = m.Parse("not-a-uuid")
	assert.ErrorIs(t, err, common.ErrSessionNotFound)
	assert.ErrorIs(t, m.Reset(uuid.New()), common.ErrSessionNotFound)
}

func TestExpiry(t *testing.T) {
	m := NewManager(time.Hour, nil)
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	a, _ := m.Start("A")
	b, _ := m.Start("B")

	now = now.Add(50 * time.Minute)
	_, err := m.Get(b.ID)
	require.NoError(t, err)

	now = now.Add(20 * time.Minute)
	_, err = m.Get(a.ID)
	assert.ErrorIs(t, err, common.ErrSessionNotFound)
	assert.Equal(t, 0, m.Sweep())

	now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, m.Sweep())
}

func TestGetReturnsCopy(t *testing.T) {
	m := NewManager(0, nil)
	s, _ := m.Start("A")
	s.Links[constants.KindLotte] = "mutated"

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Links)
}

func TestExtractionIsCopied(t *testing.T) {
	m := NewManager(0, nil)
	s, _ := m.Start("A")
	res := extract.Result{Fields: []extract.FieldValue{{Field: extract.FieldCustomer, Value: "홍길동", Found: true}}}
	require.NoError(t, m.StoreExtraction(s.ID, "a.pdf", res))
	res.Fields[0].Value = "caller"

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Extraction)
	got.Extraction.Fields[0].Value = "snapshot"

	cached, ok := m.CachedExtraction(s.ID, "a.pdf")
	require.True(t, ok)
	cached.Fields[0].Value = "cached"

	again, ok := m.CachedExtraction(s.ID, "a.pdf")
	require.True(t, ok)
	assert.Equal(t, "홍길동", again.Fields[0].Value)
}
