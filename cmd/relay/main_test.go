package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucas-remigio/graocerto.pt/internal/postgres"
	"github.com/lucas-remigio/graocerto.pt/internal/relay"
)

type fakeStore struct {
	schemaErr error
	inserted  []postgres.Snapshot
}

func (s *fakeStore) EnsureSchema(context.Context) error { return s.schemaErr }

func (s *fakeStore) Insert(_ context.Context, snap postgres.Snapshot) error {
	s.inserted = append(s.inserted, snap)
	return nil
}

func TestNewSnapshotService_SchemaFailureDisablesSnapshots(t *testing.T) {
	store := &fakeStore{schemaErr: errors.New("permission denied for schema public")}

	snap := newSnapshotService(context.Background(), store, relay.NewHub(), "i-1", time.Minute)
	assert.Nil(t, snap)
	assert.Empty(t, store.inserted)
}

func TestNewSnapshotService_Ready(t *testing.T) {
	store := &fakeStore{}

	snap := newSnapshotService(context.Background(), store, relay.NewHub(), "i-1", time.Minute)
	require.NotNil(t, snap)

	require.NoError(t, snap.SnapshotOnce(context.Background()))
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "i-1", store.inserted[0].InstanceID)
}
