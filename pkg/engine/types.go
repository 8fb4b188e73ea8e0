// Package engine applies a declarative stack description to the local LXD
// daemon. It sequences idempotent lifecycle calls across the stack's
// resource collections in a fixed dependency order; the per-resource
// semantics live in package lxd.
package engine

import (
	"fmt"

	"github.com/lxstack/lxstack/pkg/lxd"
)

// Stack is the full declarative set of resources describing one deployable
// environment. Any collection may be empty; order within a collection is
// preserved and determines processing order.
type Stack struct {
	StoragePools []lxd.Spec `yaml:"storage_pools,omitempty"`
	Networks     []lxd.Spec `yaml:"networks,omitempty"`
	Profiles     []lxd.Spec `yaml:"profiles,omitempty"`
	Containers   []lxd.Spec `yaml:"containers,omitempty"`
}

// Command is one of the four lifecycle verbs the orchestrator knows.
type Command string

const (
	CommandCreate Command = "create"
	CommandStart  Command = "start"
	CommandStop   Command = "stop"
	CommandDelete Command = "delete"
)

// ParseCommand maps a CLI argument to a Command.
func ParseCommand(s string) (Command, error) {
	switch Command(s) {
	case CommandCreate, CommandStart, CommandStop, CommandDelete:
		return Command(s), nil
	default:
		return "", fmt.Errorf("engine: unknown command %q", s)
	}
}
