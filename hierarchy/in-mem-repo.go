package hierarchy

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type InMemHierarchyRepo struct {
	lock  sync.Mutex
	nodes map[uuid.UUID]Node
}

func NewInMemHierarchyRepo() *InMemHierarchyRepo {
	return &InMemHierarchyRepo{nodes: make(map[uuid.UUID]Node)}
}

func (m *InMemHierarchyRepo) GetNode(ctx context.Context, id uuid.UUID) (Node, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	n, ok := m.nodes[id]
	if !ok {
		return Node{}, ErrNodeNotFound(id)
	}
	return n, nil
}

func (m *InMemHierarchyRepo) ListNodes(ctx context.Context, f Filter) ([]Node, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	res := []Node{}
	for _, n := range m.nodes {
		if f.Match(n) {
			res = append(res, n)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (m *InMemHierarchyRepo) StoreNode(ctx context.Context, n Node) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.nodes[n.ID] = n
	return nil
}

func (m *InMemHierarchyRepo) DeleteNode(ctx context.Context, id uuid.UUID) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	for _, n := range m.nodes {
		if n.ParentID != nil && *n.ParentID == id {
			return ErrHasChildren()
		}
	}
	delete(m.nodes, id)
	return nil
}
