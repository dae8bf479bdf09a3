package auditlog

import (
	"context"
	"errors"
	"testing"

	"amayalert-service/internal/domain/auditlog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memStore struct {
	entries []*auditlog.Entry
	err     error
	limit   int
}

func (m *memStore) Create(_ context.Context, e *auditlog.Entry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memStore) Latest(_ context.Context, limit int) ([]*auditlog.Entry, error) {
	m.limit = limit
	return m.entries, nil
}

func TestRecordStoresActor(t *testing.T) {
	store := &memStore{}
	s := NewService(store, zap.NewNop())

	s.Record(context.Background(), "admin-1", "create", `Created alert "Flood"`)
	s.Record(context.Background(), "", "system", "bootstrap")

	require.Len(t, store.entries, 2)
	require.NotNil(t, store.entries[0].UserID)
	assert.Equal(t, "admin-1", *store.entries[0].UserID)
	assert.Equal(t, "create", store.entries[0].Action)
	assert.Nil(t, store.entries[1].UserID)
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	s := NewService(&memStore{err: errors.New("db down")}, zap.NewNop())
	assert.NotPanics(t, func() {
		s.Record(context.Background(), "admin-1", "delete", "x")
	})
}

func TestLatestUsesFixedLimit(t *testing.T) {
	store := &memStore{}
	s := NewService(store, zap.NewNop())

	_, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100, store.limit)
}
