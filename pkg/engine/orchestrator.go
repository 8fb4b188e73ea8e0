package engine

import (
	"context"

	"github.com/lxstack/lxstack/pkg/lxd"
)

// createOrder is the fixed dependency order for creation: pools before the
// networks and profiles that reference them, containers last.
var createOrder = []lxd.Collection{
	lxd.StoragePools,
	lxd.Networks,
	lxd.Profiles,
	lxd.Containers,
}

// deleteOrder is the reverse, across collections. Within a collection the
// declared order is kept, containers included: the stack carries no
// ordering between same-kind resources, so there is nothing to reverse.
var deleteOrder = []lxd.Collection{
	lxd.Containers,
	lxd.Profiles,
	lxd.Networks,
	lxd.StoragePools,
}

// Orchestrator walks a Stack and drives the matching lifecycle calls against
// one hypervisor session. Execution is fully sequential; the first failure
// aborts the run, leaving earlier operations applied and later ones
// untouched.
type Orchestrator struct {
	client *lxd.Client
}

// New creates an orchestrator bound to a hypervisor session.
func New(client *lxd.Client) *Orchestrator {
	return &Orchestrator{client: client}
}

// Run dispatches to the lifecycle function matching cmd.
func (o *Orchestrator) Run(ctx context.Context, cmd Command, stack *Stack) error {
	switch cmd {
	case CommandCreate:
		return o.Create(ctx, stack)
	case CommandStart:
		return o.Start(ctx, stack)
	case CommandStop:
		return o.Stop(ctx, stack)
	case CommandDelete:
		return o.Delete(ctx, stack)
	default:
		_, err := ParseCommand(string(cmd))
		return err
	}
}

// Create makes every declared resource exist, collection by collection in
// dependency order.
func (o *Orchestrator) Create(ctx context.Context, stack *Stack) error {
	for _, collection := range createOrder {
		for _, spec := range stack.specs(collection) {
			resource, err := lxd.NewResource(o.client, collection, spec)
			if err != nil {
				return err
			}
			if err := resource.Create(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Start brings every declared container to the running state, in declared
// order. The other collections have no running state.
func (o *Orchestrator) Start(ctx context.Context, stack *Stack) error {
	for _, spec := range stack.Containers {
		container, err := lxd.NewContainer(o.client, spec)
		if err != nil {
			return err
		}
		if err := container.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Stop stops every declared container, in declared order.
func (o *Orchestrator) Stop(ctx context.Context, stack *Stack) error {
	for _, spec := range stack.Containers {
		container, err := lxd.NewContainer(o.client, spec)
		if err != nil {
			return err
		}
		if err := container.Stop(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes every declared resource, collections in reverse dependency
// order.
func (o *Orchestrator) Delete(ctx context.Context, stack *Stack) error {
	for _, collection := range deleteOrder {
		for _, spec := range stack.specs(collection) {
			resource, err := lxd.NewResource(o.client, collection, spec)
			if err != nil {
				return err
			}
			if err := resource.Delete(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// specs returns the stack's sequence for one collection.
func (s *Stack) specs(collection lxd.Collection) []lxd.Spec {
	switch collection {
	case lxd.StoragePools:
		return s.StoragePools
	case lxd.Networks:
		return s.Networks
	case lxd.Profiles:
		return s.Profiles
	case lxd.Containers:
		return s.Containers
	default:
		return nil
	}
}
