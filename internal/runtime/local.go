package runtime

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/Borislavv/go-ash-compactor/config"
	"github.com/Borislavv/go-ash-compactor/internal/diskstore"
	"github.com/Borislavv/go-ash-compactor/model"
	"github.com/zhangyunhao116/skipmap"
)

// Local is an in-process cache runtime hosting file backed disk stores.
type Local struct {
	logger     *slog.Logger
	diskStores *skipmap.StringMap[*diskstore.Store]
	regions    []*LocalRegion
	senders    []namedOwner
	queues     []namedOwner
	pdxStore   string
}

// ErrRegionNotPersistent is returned by writes to a region with no disk store.
var ErrRegionNotPersistent = errors.New("region has no disk store")

// LocalRegion is a region whose entries are persisted in its disk store.
// A region configured without a disk store is listed in the inventory but accepts no writes.
type LocalRegion struct {
	name  string
	store *diskstore.Store
}

type namedOwner struct {
	id        string
	diskStore string
}

func (o namedOwner) ID() string            { return o.id }
func (o namedOwner) DiskStoreName() string { return o.diskStore }

// NewLocal opens every configured disk store and binds regions, senders and queues to them.
// An owner referring to an unknown disk store is a configuration error; an owner with
// no disk store at all is kept and reports an empty disk store name.
func NewLocal(cfg config.Runtime, logger *slog.Logger) (*Local, error) {
	l := &Local{
		logger:     logger,
		diskStores: skipmap.NewString[*diskstore.Store](),
		pdxStore:   cfg.PdxDiskStore,
	}

	for _, dsCfg := range cfg.DiskStores {
		store, err := diskstore.Open(dsCfg)
		if err != nil {
			_ = l.Close()
			return nil, fmt.Errorf("open disk store %s: %w", dsCfg.Name, err)
		}
		l.diskStores.Store(dsCfg.Name, store)
		logger.Info("disk store is opened",
			"name", dsCfg.Name,
			"dir", dsCfg.Dir,
			"allow_force_compaction", dsCfg.AllowForceCompaction,
		)
	}

	for _, r := range cfg.Regions {
		region := &LocalRegion{name: r.Name}
		if r.DiskStore != "" {
			store, ok := l.diskStores.Load(r.DiskStore)
			if !ok {
				_ = l.Close()
				return nil, fmt.Errorf("region %s: %w: %s", r.Name, model.ErrDiskStoreNotFound, r.DiskStore)
			}
			region.store = store
		}
		l.regions = append(l.regions, region)
	}
	for _, s := range cfg.GatewaySenders {
		if err := l.requireStore("gateway sender "+s.ID, s.DiskStore); err != nil {
			return nil, err
		}
		l.senders = append(l.senders, namedOwner{id: s.ID, diskStore: s.DiskStore})
	}
	for _, q := range cfg.AsyncEventQueues {
		if err := l.requireStore("async event queue "+q.ID, q.DiskStore); err != nil {
			return nil, err
		}
		l.queues = append(l.queues, namedOwner{id: q.ID, diskStore: q.DiskStore})
	}
	if l.pdxStore != "" {
		if err := l.requireStore("pdx registry", l.pdxStore); err != nil {
			return nil, err
		}
	}

	return l, nil
}

// ListDiskStores returns disk store names in lexical order.
func (l *Local) ListDiskStores() []string {
	names := make([]string, 0, l.diskStores.Len())
	l.diskStores.Range(func(name string, _ *diskstore.Store) bool {
		names = append(names, name)
		return true
	})
	return names
}

func (l *Local) ApplicationRegions() []Region {
	out := make([]Region, 0, len(l.regions))
	for _, r := range l.regions {
		out = append(out, r)
	}
	return out
}

func (l *Local) GatewaySenders() []GatewaySender {
	out := make([]GatewaySender, 0, len(l.senders))
	for _, s := range l.senders {
		out = append(out, s)
	}
	return out
}

func (l *Local) AsyncEventQueues() []AsyncEventQueue {
	out := make([]AsyncEventQueue, 0, len(l.queues))
	for _, q := range l.queues {
		out = append(out, q)
	}
	return out
}

func (l *Local) PdxDiskStoreName() (string, bool) {
	return l.pdxStore, l.pdxStore != ""
}

func (l *Local) FindDiskStore(name string) (DiskStore, error) {
	store, ok := l.diskStores.Load(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrDiskStoreNotFound, name)
	}
	return store, nil
}

// AutoCompactionCandidates returns disk stores with auto compaction enabled, in lexical order.
func (l *Local) AutoCompactionCandidates() []*diskstore.Store {
	var out []*diskstore.Store
	l.diskStores.Range(func(_ string, store *diskstore.Store) bool {
		if store.AutoCompactEnabled() {
			out = append(out, store)
		}
		return true
	})
	return out
}

// Region returns the region by name for reads and writes.
func (l *Local) Region(name string) (*LocalRegion, bool) {
	for _, r := range l.regions {
		if r.name == name {
			return r, true
		}
	}
	return nil, false
}

// DiskStoreStats reports the counters of a single disk store.
func (l *Local) DiskStoreStats(name string) (diskstore.Stats, bool) {
	store, ok := l.diskStores.Load(name)
	if !ok {
		return diskstore.Stats{}, false
	}
	return store.Stats(), true
}

// RemoveDiskStore closes the store and drops it from the inventory.
// Owners still referring to it keep their configured disk store name.
func (l *Local) RemoveDiskStore(name string) error {
	store, ok := l.diskStores.LoadAndDelete(name)
	if !ok {
		return fmt.Errorf("%w: %s", model.ErrDiskStoreNotFound, name)
	}
	return store.Close()
}

func (l *Local) Close() error {
	var errs []error
	l.diskStores.Range(func(name string, store *diskstore.Store) bool {
		if err := store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close disk store %s: %w", name, err))
		}
		return true
	})
	return errors.Join(errs...)
}

func (l *Local) requireStore(owner, name string) error {
	if name == "" {
		return nil
	}
	if _, ok := l.diskStores.Load(name); !ok {
		_ = l.Close()
		return fmt.Errorf("%s: %w: %s", owner, model.ErrDiskStoreNotFound, name)
	}
	return nil
}

func (r *LocalRegion) Name() string { return r.name }

func (r *LocalRegion) DiskStoreName() string {
	if r.store == nil {
		return ""
	}
	return r.store.Name()
}

// Put keys are namespaced by region so regions sharing a disk store do not collide.
func (r *LocalRegion) Put(key string, value []byte) error {
	if r.store == nil {
		return fmt.Errorf("%w: %s", ErrRegionNotPersistent, r.name)
	}
	return r.store.Put(r.name+"/"+key, value)
}

func (r *LocalRegion) Get(key string) ([]byte, bool) {
	if r.store == nil {
		return nil, false
	}
	return r.store.Get(r.name + "/" + key)
}

func (r *LocalRegion) Delete(key string) (bool, error) {
	if r.store == nil {
		return false, fmt.Errorf("%w: %s", ErrRegionNotPersistent, r.name)
	}
	return r.store.Delete(r.name + "/" + key)
}

var _ Cache = (*Local)(nil)
