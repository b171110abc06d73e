package draft

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// MemStore keeps drafts in process memory. Drafts are stored serialized so a
// caller can never mutate a stored draft through a shared slice or map.
type MemStore struct {
	drafts *cache.Cache
}

func NewMemStore() *MemStore {
	return &MemStore{drafts: cache.New(cache.NoExpiration, 0)}
}

func (m *MemStore) Get(ctx context.Context, sessionID uuid.UUID) (Draft, bool, error) {
	raw, ok := m.drafts.Get(sessionID.String())
	if !ok {
		return Draft{}, false, nil
	}
	var d Draft
	if err := json.Unmarshal(raw.([]byte), &d); err != nil {
		return Draft{}, false, fmt.Errorf("failed to decode draft %s: %w", sessionID, err)
	}
	return d, true, nil
}

func (m *MemStore) Set(ctx context.Context, d Draft) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", d.SessionID, err)
	}
	m.drafts.Set(d.SessionID.String(), raw, cache.NoExpiration)
	return nil
}

func (m *MemStore) Delete(ctx context.Context, sessionID uuid.UUID) error {
	m.drafts.Delete(sessionID.String())
	return nil
}
