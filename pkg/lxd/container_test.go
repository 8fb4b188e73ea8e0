package lxd_test

import (
	"context"
	"testing"

	"github.com/lxstack/lxstack/pkg/lxd"
	"github.com/lxstack/lxstack/pkg/lxd/lxdtest"
)

func TestContainerIsRunning(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
		status string
		want   bool
	}{
		{"absent container", false, "", false},
		{"existing stopped", true, "Stopped", false},
		{"existing frozen", true, "Frozen", false},
		{"existing running", true, "Running", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := lxdtest.NewDaemon()
			if tt.exists {
				fake.Add(lxd.Containers, "web1")
				fake.SetStatus(lxd.Containers, "web1", tt.status)
			}
			container, err := lxd.NewContainer(fake.Client(t), lxd.Spec{"name": "web1"})
			if err != nil {
				t.Fatalf("NewContainer: %v", err)
			}

			running, err := container.IsRunning(context.Background())
			if err != nil {
				t.Fatalf("IsRunning: %v", err)
			}
			if running != tt.want {
				t.Errorf("IsRunning() = %v, want %v", running, tt.want)
			}
		})
	}
}

func TestContainerIsRunningSkipsDetailFetchWhenAbsent(t *testing.T) {
	fake := lxdtest.NewDaemon()
	container, err := lxd.NewContainer(fake.Client(t), lxd.Spec{"name": "web1"})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	if _, err := container.IsRunning(context.Background()); err != nil {
		t.Fatalf("IsRunning: %v", err)
	}

	for _, req := range fake.RequestLog() {
		if req == "GET /1.0/containers/web1" {
			t.Error("detail fetch issued for an absent container")
		}
	}
}

func TestContainerStartIsIdempotent(t *testing.T) {
	fake := lxdtest.NewDaemon()
	fake.Add(lxd.Containers, "web1")
	container, err := lxd.NewContainer(fake.Client(t), lxd.Spec{"name": "web1"})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	ctx := context.Background()

	if err := container.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if got := fake.Mutations(); len(got) != 1 || got[0] != "PUT /1.0/containers/web1/state" {
		t.Fatalf("mutations after first start = %v, want one PUT", got)
	}

	if err := container.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if got := fake.Mutations(); len(got) != 1 {
		t.Errorf("start of a running container issued requests: %v", got[1:])
	}
}

func TestContainerStartWaitsForAsyncOperation(t *testing.T) {
	fake := lxdtest.NewDaemon()
	fake.Add(lxd.Containers, "web1")
	fake.AsyncState = true
	container, err := lxd.NewContainer(fake.Client(t), lxd.Spec{"name": "web1"})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	if err := container.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// The wait must come between the state PUT and the re-check, so the
	// re-check observes the post-operation state.
	requests := fake.RequestLog()
	putIndex, waitIndex, recheckIndex := -1, -1, -1
	for i, req := range requests {
		switch req {
		case "PUT /1.0/containers/web1/state":
			putIndex = i
		case "GET /1.0/operations/op-1/wait":
			waitIndex = i
		case "GET /1.0/containers/web1":
			recheckIndex = i
		}
	}
	if putIndex == -1 || waitIndex == -1 || recheckIndex == -1 {
		t.Fatalf("missing expected requests in %v", requests)
	}
	if !(putIndex < waitIndex && waitIndex < recheckIndex) {
		t.Errorf("request order wrong: %v", requests)
	}

	running, err := container.IsRunning(context.Background())
	if err != nil {
		t.Fatalf("IsRunning: %v", err)
	}
	if !running {
		t.Error("container should be running after Start")
	}
}

func TestContainerStartPostCondition(t *testing.T) {
	fake := lxdtest.NewDaemon()
	fake.Add(lxd.Containers, "web1")
	fake.IgnoreState = true
	container, err := lxd.NewContainer(fake.Client(t), lxd.Spec{"name": "web1"})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	err = container.Start(context.Background())
	if err == nil {
		t.Fatal("expected an error when the container does not come up")
	}
	if !lxd.IsStartFailed(err) {
		t.Errorf("expected a start post-condition failure, got %v", err)
	}
}

func TestContainerStopIsIdempotent(t *testing.T) {
	fake := lxdtest.NewDaemon()
	fake.Add(lxd.Containers, "web1")
	fake.SetStatus(lxd.Containers, "web1", "Running")
	container, err := lxd.NewContainer(fake.Client(t), lxd.Spec{"name": "web1"})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	ctx := context.Background()

	if err := container.Stop(ctx); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if got := fake.Mutations(); len(got) != 1 || got[0] != "PUT /1.0/containers/web1/state" {
		t.Fatalf("mutations after first stop = %v, want one PUT", got)
	}

	if err := container.Stop(ctx); err != nil {
		t.Fatalf("second Stop: %v", err)
	}
	if got := fake.Mutations(); len(got) != 1 {
		t.Errorf("stop of a stopped container issued requests: %v", got[1:])
	}
}

func TestContainerStopPostCondition(t *testing.T) {
	fake := lxdtest.NewDaemon()
	fake.Add(lxd.Containers, "web1")
	fake.SetStatus(lxd.Containers, "web1", "Running")
	fake.IgnoreState = true
	container, err := lxd.NewContainer(fake.Client(t), lxd.Spec{"name": "web1"})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}

	err = container.Stop(context.Background())
	if err == nil {
		t.Fatal("expected an error when the container stays up")
	}
	if !lxd.IsStopFailed(err) {
		t.Errorf("expected a stop post-condition failure, got %v", err)
	}
}

func TestContainerCreateThenStart(t *testing.T) {
	fake := lxdtest.NewDaemon()
	fake.AsyncState = true
	container, err := lxd.NewContainer(fake.Client(t), lxd.Spec{
		"name": "web1",
		"source": map[string]any{
			"type":  "image",
			"alias": "jammy",
		},
	})
	if err != nil {
		t.Fatalf("NewContainer: %v", err)
	}
	ctx := context.Background()

	if err := container.Create(ctx); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := container.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	want := []string{"POST /1.0/containers", "PUT /1.0/containers/web1/state"}
	got := fake.Mutations()
	if len(got) != len(want) {
		t.Fatalf("mutations = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("mutations[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	// Re-running both verbs settles without further requests.
	if err := container.Create(ctx); err != nil {
		t.Fatalf("second Create: %v", err)
	}
	if err := container.Start(ctx); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	if got := fake.Mutations(); len(got) != len(want) {
		t.Errorf("re-run issued mutating requests: %v", got[len(want):])
	}
}
