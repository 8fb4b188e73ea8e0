package lxd

import (
	"context"
	"encoding/json"
	"fmt"
)

// statusRunning is the one status value recognized as running; everything
// else (Stopped, Frozen, ...) counts as not running.
const statusRunning = "Running"

// Container is a Resource that can additionally be started and stopped.
type Container struct {
	*Resource
}

// NewContainer binds a container spec to the containers collection.
func NewContainer(client *Client, spec Spec) (*Container, error) {
	resource, err := NewResource(client, Containers, spec)
	if err != nil {
		return nil, err
	}
	return &Container{Resource: resource}, nil
}

// IsRunning reports whether the container exists and its detail fetch shows
// status "Running".
func (c *Container) IsRunning(ctx context.Context) (bool, error) {
	exists, err := c.Exists(ctx)
	if err != nil || !exists {
		return false, err
	}

	resp, err := c.client.Get(ctx, c.ElementPath())
	if err != nil {
		return false, err
	}

	var detail struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(resp.Metadata, &detail); err != nil {
		return false, fmt.Errorf("lxd: decode %s detail: %w", c.ElementPath(), err)
	}
	return detail.Status == statusRunning, nil
}

// Start brings the container to the running state. If it is already running,
// no request is issued. The state-change request typically comes back async,
// so the session has already waited for the operation by the time the state
// is re-checked.
func (c *Container) Start(ctx context.Context) error {
	ctx, span := c.client.tracer.StartResourceSpan(ctx, "start", c.ElementPath())
	defer span.End()

	c.log.Infof("checking %s", c.ElementPath())
	running, err := c.IsRunning(ctx)
	if err != nil {
		return c.observe(span, "start", err)
	}
	if running {
		return c.observe(span, "start", nil)
	}

	c.log.Infof("starting %s", c.ElementPath())
	if _, err := c.client.Put(ctx, c.ElementPath()+"/state", map[string]string{"action": "start"}); err != nil {
		return c.observe(span, "start", err)
	}

	running, err = c.IsRunning(ctx)
	if err != nil {
		return c.observe(span, "start", err)
	}
	if !running {
		err = &Error{Kind: ErrorKindStartFailed, Path: c.ElementPath()}
	}
	return c.observe(span, "start", err)
}

// Stop brings the container to a stopped state. If it is not running, no
// request is issued.
func (c *Container) Stop(ctx context.Context) error {
	ctx, span := c.client.tracer.StartResourceSpan(ctx, "stop", c.ElementPath())
	defer span.End()

	c.log.Infof("checking %s", c.ElementPath())
	running, err := c.IsRunning(ctx)
	if err != nil {
		return c.observe(span, "stop", err)
	}
	if !running {
		return c.observe(span, "stop", nil)
	}

	c.log.Infof("stopping %s", c.ElementPath())
	if _, err := c.client.Put(ctx, c.ElementPath()+"/state", map[string]string{"action": "stop"}); err != nil {
		return c.observe(span, "stop", err)
	}

	running, err = c.IsRunning(ctx)
	if err != nil {
		return c.observe(span, "stop", err)
	}
	if running {
		err = &Error{Kind: ErrorKindStopFailed, Path: c.ElementPath()}
	}
	return c.observe(span, "stop", err)
}
