// Package lxd is a minimal client for the LXD REST API over its local unix
// socket. It covers exactly what stack orchestration needs: a transport that
// classifies every response envelope (sync, async, error) and transparently
// waits on asynchronous operations, plus idempotent lifecycle primitives for
// named resources (storage pools, networks, profiles, containers).
//
// The hypervisor is the sole source of truth: nothing is cached between
// calls, creation is skip-if-exists, and deletion is skip-if-absent.
package lxd
