package runtime

import "context"

// Region is an application data region optionally backed by a disk store.
type Region interface {
	Name() string
	DiskStoreName() string
}

// GatewaySender replicates events to another cluster, optionally through a disk store.
type GatewaySender interface {
	ID() string
	DiskStoreName() string
}

// AsyncEventQueue buffers events for asynchronous listeners, optionally through a disk store.
type AsyncEventQueue interface {
	ID() string
	DiskStoreName() string
}

// DiskStore is the per-store capability used by the invoker.
type DiskStore interface {
	Name() string
	AllowForceCompaction() bool
	ForceCompaction(ctx context.Context) (bool, error)
}

// Inventory is a read-only view over what the cache runtime currently hosts.
// Slices are returned in the runtime's iteration order.
type Inventory interface {
	ListDiskStores() []string
	ApplicationRegions() []Region
	GatewaySenders() []GatewaySender
	AsyncEventQueues() []AsyncEventQueue
	// PdxDiskStoreName reports the disk store of the PDX type registry, if it is persistent.
	PdxDiskStoreName() (string, bool)
}

// DiskStores looks disk stores up by name.
// FindDiskStore fails with model.ErrDiskStoreNotFound when the name is unknown.
type DiskStores interface {
	FindDiskStore(name string) (DiskStore, error)
}

// Cache is everything the compactor needs from the cache runtime.
type Cache interface {
	Inventory
	DiskStores
}
