package lxd

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/trace"

	"github.com/lxstack/lxstack/pkg/telemetry"
)

// Spec is the opaque configuration document for one resource, passed through
// to the hypervisor verbatim. Only the "name" field is interpreted here.
type Spec map[string]any

// Name returns the spec's name field, or "" if absent or not a string.
func (s Spec) Name() string {
	name, _ := s["name"].(string)
	return name
}

// Resource is a named object in one hypervisor collection, with idempotent
// create and delete. Its state is re-derived from the hypervisor on every
// check; nothing is cached.
type Resource struct {
	client     *Client
	collection Collection
	spec       Spec
	log        *telemetry.Logger
}

// NewResource binds a spec to its collection. The spec must carry a
// non-empty name.
func NewResource(client *Client, collection Collection, spec Spec) (*Resource, error) {
	if spec.Name() == "" {
		return nil, fmt.Errorf("lxd: %s spec has no name", collection)
	}
	return &Resource{
		client:     client,
		collection: collection,
		spec:       spec,
		log:        client.log.NewComponentLogger(string(collection)),
	}, nil
}

// Name returns the resource's name within its collection.
func (r *Resource) Name() string {
	return r.spec.Name()
}

// Collection returns the collection the resource belongs to.
func (r *Resource) Collection() Collection {
	return r.collection
}

// ElementPath returns the resource's path, e.g. "/1.0/containers/web1".
func (r *Resource) ElementPath() string {
	return r.collection.Path() + "/" + r.spec.Name()
}

// Exists reports whether the resource is present, by listing its collection
// and looking for the element path. The listing is the sole source of truth;
// the element itself is never fetched for an existence check.
func (r *Resource) Exists(ctx context.Context) (bool, error) {
	resp, err := r.client.Get(ctx, r.collection.Path())
	if err != nil {
		return false, err
	}

	var listing []string
	if err := json.Unmarshal(resp.Metadata, &listing); err != nil {
		return false, fmt.Errorf("lxd: decode %s listing: %w", r.collection, err)
	}

	for _, element := range listing {
		if element == r.ElementPath() {
			return true, nil
		}
	}
	return false, nil
}

// Create makes the resource exist. If it already does, no request is issued.
// After a create request the existence is re-checked; a resource the
// hypervisor accepted but did not make visible is a failure.
func (r *Resource) Create(ctx context.Context) error {
	ctx, span := r.client.tracer.StartResourceSpan(ctx, "create", r.ElementPath())
	defer span.End()

	r.log.Infof("checking %s", r.ElementPath())
	exists, err := r.Exists(ctx)
	if err != nil {
		return r.observe(span, "create", err)
	}
	if exists {
		return r.observe(span, "create", nil)
	}

	r.log.Infof("creating %s", r.ElementPath())
	if _, err := r.client.Post(ctx, r.collection.Path(), r.spec); err != nil {
		return r.observe(span, "create", err)
	}

	exists, err = r.Exists(ctx)
	if err != nil {
		return r.observe(span, "create", err)
	}
	if !exists {
		err = &Error{Kind: ErrorKindCreateFailed, Path: r.ElementPath()}
	}
	return r.observe(span, "create", err)
}

// Delete makes the resource absent. If it already is, no request is issued.
// Presence is re-checked after the delete request.
func (r *Resource) Delete(ctx context.Context) error {
	ctx, span := r.client.tracer.StartResourceSpan(ctx, "delete", r.ElementPath())
	defer span.End()

	r.log.Infof("checking %s", r.ElementPath())
	exists, err := r.Exists(ctx)
	if err != nil {
		return r.observe(span, "delete", err)
	}
	if !exists {
		return r.observe(span, "delete", nil)
	}

	r.log.Infof("deleting %s", r.ElementPath())
	if _, err := r.client.Delete(ctx, r.ElementPath()); err != nil {
		return r.observe(span, "delete", err)
	}

	exists, err = r.Exists(ctx)
	if err != nil {
		return r.observe(span, "delete", err)
	}
	if exists {
		err = &Error{Kind: ErrorKindDeleteFailed, Path: r.ElementPath()}
	}
	return r.observe(span, "delete", err)
}

// observe finishes a lifecycle operation: it records the outcome on the
// metrics and the span and passes the error through.
func (r *Resource) observe(span trace.Span, action string, err error) error {
	outcome := "succeeded"
	if err != nil {
		outcome = "failed"
		telemetry.RecordError(span, err)
	}
	r.client.metrics.ObserveResourceOp(string(r.collection), action, outcome)
	return err
}
