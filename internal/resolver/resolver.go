package resolver

import (
	"fmt"
	"slices"

	"github.com/Borislavv/go-ash-compactor/internal/runtime"
	"github.com/Borislavv/go-ash-compactor/model"
)

// PdxSourceName is the source reported for the PDX type registry disk store.
const PdxSourceName = "pdx-registry"

type Resolver interface {
	Resolve(scope model.Classification, diskStoreName string) ([]model.Target, error)
}

// TargetResolver turns a scope into the ordered list of targets from a live inventory.
// Every call reads a fresh snapshot; nothing is cached between requests.
type TargetResolver struct {
	inventory  runtime.Inventory
	pdxEnabled bool
}

func New(inventory runtime.Inventory, pdxEnabled bool) *TargetResolver {
	return &TargetResolver{inventory: inventory, pdxEnabled: pdxEnabled}
}

func (r *TargetResolver) Resolve(scope model.Classification, diskStoreName string) ([]model.Target, error) {
	switch scope {
	case model.ClassificationStore:
		return r.singleStore(diskStoreName)
	case model.ClassificationQueue:
		return r.asyncQueues(), nil
	case model.ClassificationGateway:
		return r.gatewaySenders(), nil
	case model.ClassificationRegion:
		return r.regions(), nil
	case model.ClassificationAll:
		return r.all(), nil
	case model.ClassificationPdx:
		if r.pdxEnabled {
			return r.pdx(), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", model.ErrInvalidScope, scope)
}

// singleStore attributes the store to the first owner found in ALL order, if any.
func (r *TargetResolver) singleStore(name string) ([]model.Target, error) {
	if name == "" || !slices.Contains(r.inventory.ListDiskStores(), name) {
		return nil, fmt.Errorf("%w: unable to compact disk store %q since it does not exist", model.ErrNoSuchDiskStore, name)
	}

	var source string
	for _, t := range r.all() {
		if t.DiskStoreName() == name {
			source = t.SourceName()
			break
		}
	}
	return []model.Target{model.NewTarget(source, model.ClassificationStore, name)}, nil
}

func (r *TargetResolver) all() []model.Target {
	targets := r.regions()
	targets = append(targets, r.gatewaySenders()...)
	return append(targets, r.asyncQueues()...)
}

func (r *TargetResolver) regions() []model.Target {
	regions := r.inventory.ApplicationRegions()
	targets := make([]model.Target, 0, len(regions))
	for _, region := range regions {
		targets = append(targets, model.NewTarget(region.Name(), model.ClassificationRegion, region.DiskStoreName()))
	}
	return targets
}

func (r *TargetResolver) gatewaySenders() []model.Target {
	senders := r.inventory.GatewaySenders()
	targets := make([]model.Target, 0, len(senders))
	for _, sender := range senders {
		targets = append(targets, model.NewTarget(sender.ID(), model.ClassificationGateway, sender.DiskStoreName()))
	}
	return targets
}

func (r *TargetResolver) asyncQueues() []model.Target {
	queues := r.inventory.AsyncEventQueues()
	targets := make([]model.Target, 0, len(queues))
	for _, queue := range queues {
		targets = append(targets, model.NewTarget(queue.ID(), model.ClassificationQueue, queue.DiskStoreName()))
	}
	return targets
}

func (r *TargetResolver) pdx() []model.Target {
	name, ok := r.inventory.PdxDiskStoreName()
	if !ok {
		return []model.Target{}
	}
	return []model.Target{model.NewTarget(PdxSourceName, model.ClassificationPdx, name)}
}
