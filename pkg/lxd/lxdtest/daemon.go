// Package lxdtest provides an in-memory LXD daemon for tests. It listens on
// a real unix socket so the actual transport is exercised, answers with the
// hypervisor's response envelopes, and records every request it serves.
package lxdtest

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lxstack/lxstack/pkg/lxd"
)

// Daemon is a fake LXD. The zero value of its knobs models a well-behaved
// daemon; flip them to simulate misbehavior.
type Daemon struct {
	mu       sync.Mutex
	requests []string

	listings map[string][]string // collection path -> element paths
	statuses map[string]string   // element path -> status

	// DropCreates accepts POSTs without registering the resource.
	DropCreates bool

	// DropDeletes accepts DELETEs without removing the resource.
	DropDeletes bool

	// IgnoreState accepts state PUTs without changing the status.
	IgnoreState bool

	// AsyncState answers state PUTs with an async envelope pointing at
	// operation op-1.
	AsyncState bool

	// WaitStatusCode is the status_code the wait endpoint reports.
	WaitStatusCode int

	// ErrorPaths maps request paths to answer with an error envelope.
	ErrorPaths map[string]bool
}

// NewDaemon creates a fake daemon with no resources.
func NewDaemon() *Daemon {
	return &Daemon{
		listings:       make(map[string][]string),
		statuses:       make(map[string]string),
		WaitStatusCode: 200,
		ErrorPaths:     make(map[string]bool),
	}
}

// Add registers an existing resource.
func (d *Daemon) Add(collection lxd.Collection, name string) {
	path := collection.Path()
	d.listings[path] = append(d.listings[path], path+"/"+name)
}

// SetStatus sets a container's reported status.
func (d *Daemon) SetStatus(collection lxd.Collection, name, status string) {
	d.statuses[collection.Path()+"/"+name] = status
}

// Client starts the daemon on a unix socket and returns a client dialing it.
// The server is torn down with the test.
func (d *Daemon) Client(t *testing.T) *lxd.Client {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "lxd.sock")
	listener, err := net.Listen("unix", socket)
	if err != nil {
		t.Fatalf("listen on %s: %v", socket, err)
	}

	server := httptest.NewUnstartedServer(d)
	server.Listener.Close()
	server.Listener = listener
	server.Start()
	t.Cleanup(server.Close)

	client, err := lxd.NewClient(lxd.ClientConfig{SocketPath: socket})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

// RequestLog returns a copy of the served requests as "METHOD path" strings.
func (d *Daemon) RequestLog() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.requests...)
}

// Mutations returns only the POST/PUT/DELETE requests served.
func (d *Daemon) Mutations() []string {
	var out []string
	for _, req := range d.RequestLog() {
		if !strings.HasPrefix(req, http.MethodGet) {
			out = append(out, req)
		}
	}
	return out
}

func (d *Daemon) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	d.mu.Lock()
	defer d.mu.Unlock()

	path := r.URL.Path
	d.requests = append(d.requests, r.Method+" "+path)
	body, _ := io.ReadAll(r.Body)

	if d.ErrorPaths[path] {
		writeEnvelope(w, "error", map[string]any{"error": "boom"}, "")
		return
	}

	collections := map[string]bool{
		lxd.StoragePools.Path(): true,
		lxd.Networks.Path():     true,
		lxd.Profiles.Path():     true,
		lxd.Containers.Path():   true,
	}

	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(path, "/wait"):
		writeEnvelope(w, "sync", map[string]any{"status_code": d.WaitStatusCode}, "")

	case r.Method == http.MethodGet && collections[path]:
		listing := d.listings[path]
		if listing == nil {
			listing = []string{}
		}
		writeEnvelope(w, "sync", listing, "")

	case r.Method == http.MethodPost && collections[path]:
		if !d.DropCreates {
			var spec map[string]any
			_ = json.Unmarshal(body, &spec)
			name, _ := spec["name"].(string)
			d.listings[path] = append(d.listings[path], path+"/"+name)
		}
		writeEnvelope(w, "sync", map[string]any{}, "")

	case r.Method == http.MethodDelete:
		if !d.DropDeletes {
			collection := path[:strings.LastIndex(path, "/")]
			kept := d.listings[collection][:0]
			for _, element := range d.listings[collection] {
				if element != path {
					kept = append(kept, element)
				}
			}
			d.listings[collection] = kept
		}
		writeEnvelope(w, "sync", map[string]any{}, "")

	case r.Method == http.MethodPut && strings.HasSuffix(path, "/state"):
		element := strings.TrimSuffix(path, "/state")
		if !d.IgnoreState {
			var change struct {
				Action string `json:"action"`
			}
			_ = json.Unmarshal(body, &change)
			if change.Action == "start" {
				d.statuses[element] = "Running"
			} else {
				d.statuses[element] = "Stopped"
			}
		}
		if d.AsyncState {
			writeEnvelope(w, "async", map[string]any{}, "/1.0/operations/op-1")
		} else {
			writeEnvelope(w, "sync", map[string]any{}, "")
		}

	case r.Method == http.MethodGet:
		status := d.statuses[path]
		if status == "" {
			status = "Stopped"
		}
		writeEnvelope(w, "sync", map[string]any{"status": status}, "")

	default:
		writeEnvelope(w, "error", map[string]any{"error": "not found"}, "")
	}
}

func writeEnvelope(w http.ResponseWriter, envelopeType string, metadata any, operation string) {
	envelope := map[string]any{
		"type":     envelopeType,
		"metadata": metadata,
	}
	if operation != "" {
		envelope["operation"] = operation
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(envelope)
}
