package mem

import (
	"context"
	"fmt"
	"sync"

	"github.com/stagewalk/stagewalk/store"
)

var (
	_ store.Store = &memStore{}
)

func NewMemStore() store.Store {
	return &memStore{
		m: make(map[string]*store.Marker),
		// setup no error as default
		mockErrHandler: defaultNoErr,
	}
}

func NewMemStoreWithErrHandler(errHandler func() error) store.Store {
	return &memStore{
		m: make(map[string]*store.Marker),
		// .
		mockErrHandler: errHandler,
	}
}

func defaultNoErr() error {
	return nil
}

/**
 * memStore keeps completion markers in pure memory, it aims to provide a
 * method for debug & testing. Markers do not survive the process, so a
 * resumed run starts from scratch. NEVER use it in the Production!
 */
type memStore struct {
	mu sync.Mutex

	mockErrHandler func() error

	m map[string]*store.Marker
}

func (m *memStore) String() string {
	s := "\n----------\n"
	for stage, marker := range m.m {
		s += fmt.Sprintf("%s: %+v\n", stage, marker)
	}
	s += "----------\n"
	return s
}

func (m *memStore) Get(ctx context.Context, stage string) (*store.Marker, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.m[stage], m.mockErrHandler()
}

func (m *memStore) Set(ctx context.Context, stage string, marker *store.Marker) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.m[stage] = marker
	return m.mockErrHandler()
}

func (m *memStore) Remove(ctx context.Context, stage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.m, stage)
	return m.mockErrHandler()
}

func (m *memStore) List(ctx context.Context, iterator func(stage string, marker *store.Marker) bool) error {
	m.mu.Lock()
	snapshot := make(map[string]*store.Marker, len(m.m))
	for stage, marker := range m.m {
		snapshot[stage] = marker
	}
	m.mu.Unlock()

	for stage, marker := range snapshot {
		if !iterator(stage, marker) {
			break
		}
	}
	return m.mockErrHandler()
}
