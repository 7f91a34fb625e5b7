package help

import (
	"context"
	"fmt"
	"sync"

	"github.com/Borislavv/go-ash-compactor/internal/runtime"
	"github.com/Borislavv/go-ash-compactor/model"
)

// FakeDiskStore answers ForceCompaction with a canned result and counts calls.
type FakeDiskStore struct {
	StoreName string
	Allow     bool
	Result    bool
	Err       error

	mu    sync.Mutex
	calls int
}

func (s *FakeDiskStore) Name() string               { return s.StoreName }
func (s *FakeDiskStore) AllowForceCompaction() bool { return s.Allow }

func (s *FakeDiskStore) ForceCompaction(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.Result, s.Err
}

func (s *FakeDiskStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// FakeOwner serves as a region, a gateway sender or an async event queue.
type FakeOwner struct {
	Owner     string
	DiskStore string
}

func (o FakeOwner) Name() string          { return o.Owner }
func (o FakeOwner) ID() string            { return o.Owner }
func (o FakeOwner) DiskStoreName() string { return o.DiskStore }

// FakeCache is an in-memory inventory. Names listed in Hidden are reported by
// ListDiskStores but fail FindDiskStore, simulating a store removed in between.
type FakeCache struct {
	Stores  []*FakeDiskStore
	Regions []FakeOwner
	Senders []FakeOwner
	Queues  []FakeOwner
	Pdx     string
	Hidden  map[string]bool
}

func (c *FakeCache) Store(name string, allow, result bool, err error) *FakeDiskStore {
	s := &FakeDiskStore{StoreName: name, Allow: allow, Result: result, Err: err}
	c.Stores = append(c.Stores, s)
	return s
}

func (c *FakeCache) ListDiskStores() []string {
	names := make([]string, 0, len(c.Stores))
	for _, s := range c.Stores {
		names = append(names, s.StoreName)
	}
	return names
}

func (c *FakeCache) ApplicationRegions() []runtime.Region {
	out := make([]runtime.Region, 0, len(c.Regions))
	for _, r := range c.Regions {
		out = append(out, r)
	}
	return out
}

func (c *FakeCache) GatewaySenders() []runtime.GatewaySender {
	out := make([]runtime.GatewaySender, 0, len(c.Senders))
	for _, s := range c.Senders {
		out = append(out, s)
	}
	return out
}

func (c *FakeCache) AsyncEventQueues() []runtime.AsyncEventQueue {
	out := make([]runtime.AsyncEventQueue, 0, len(c.Queues))
	for _, q := range c.Queues {
		out = append(out, q)
	}
	return out
}

func (c *FakeCache) PdxDiskStoreName() (string, bool) { return c.Pdx, c.Pdx != "" }

func (c *FakeCache) FindDiskStore(name string) (runtime.DiskStore, error) {
	if !c.Hidden[name] {
		for _, s := range c.Stores {
			if s.StoreName == name {
				return s, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s", model.ErrDiskStoreNotFound, name)
}

// TotalCalls sums ForceCompaction calls over every store.
func (c *FakeCache) TotalCalls() int {
	var n int
	for _, s := range c.Stores {
		n += s.Calls()
	}
	return n
}

var _ runtime.Cache = (*FakeCache)(nil)
