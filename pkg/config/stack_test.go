package config

import (
	"testing"
)

const sampleStack = `
---
storage_pools:
- name: test-storage-pool
  driver: dir

networks:
- name: test-network
  config:
    ipv4.address: 10.42.254.1/24
    ipv4.nat: true
    ipv6.address: none

profiles:
- name: test-profile
  devices:
    root:
      path: /
      pool: test-storage-pool
      type: disk

containers:
- name: test-container
  profiles:
  - test-profile
  source:
    type: image
    alias: "22.04"
`

func TestParseStack(t *testing.T) {
	stack, err := ParseStack([]byte(sampleStack))
	if err != nil {
		t.Fatalf("ParseStack: %v", err)
	}

	if len(stack.StoragePools) != 1 || stack.StoragePools[0].Name() != "test-storage-pool" {
		t.Errorf("storage pools = %v", stack.StoragePools)
	}
	if len(stack.Networks) != 1 || len(stack.Profiles) != 1 || len(stack.Containers) != 1 {
		t.Errorf("unexpected collection sizes: %v", stack)
	}
}

func TestParseStackKeepsScalarsAsStrings(t *testing.T) {
	stack, err := ParseStack([]byte(sampleStack))
	if err != nil {
		t.Fatalf("ParseStack: %v", err)
	}

	network := stack.Networks[0]
	networkConfig, ok := network["config"].(map[string]any)
	if !ok {
		t.Fatalf("network config = %T, want mapping", network["config"])
	}
	// "true" must survive as a string, not become a bool.
	if v := networkConfig["ipv4.nat"]; v != "true" {
		t.Errorf("ipv4.nat = %#v, want the string \"true\"", v)
	}

	source, ok := stack.Containers[0]["source"].(map[string]any)
	if !ok {
		t.Fatalf("container source = %T, want mapping", stack.Containers[0]["source"])
	}
	// "22.04" must survive as a string, not become a float.
	if v := source["alias"]; v != "22.04" {
		t.Errorf("alias = %#v, want the string \"22.04\"", v)
	}
}

func TestParseStackAbsentCollections(t *testing.T) {
	stack, err := ParseStack([]byte("containers:\n- name: solo\n"))
	if err != nil {
		t.Fatalf("ParseStack: %v", err)
	}
	if stack.StoragePools != nil || stack.Networks != nil || stack.Profiles != nil {
		t.Errorf("absent collections should be empty, got %v", stack)
	}
	if len(stack.Containers) != 1 {
		t.Errorf("containers = %v", stack.Containers)
	}
}

func TestParseStackEmptyDocument(t *testing.T) {
	for _, doc := range []string{"", "---\n", "# nothing here\n"} {
		stack, err := ParseStack([]byte(doc))
		if err != nil {
			t.Errorf("ParseStack(%q): %v", doc, err)
			continue
		}
		if len(stack.Containers) != 0 {
			t.Errorf("ParseStack(%q) = %v, want empty stack", doc, stack)
		}
	}
}

func TestParseStackRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"scalar document", "just a string"},
		{"sequence document", "- a\n- b\n"},
		{"collection not a sequence", "containers: yes\n"},
		{"spec not a mapping", "containers:\n- web1\n"},
		{"spec without name", "containers:\n- image: ubuntu\n"},
		{"duplicate names", "containers:\n- name: web1\n- name: web1\n"},
		{"invalid yaml", "containers: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseStack([]byte(tt.doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestParseStackIgnoresUnknownKeys(t *testing.T) {
	stack, err := ParseStack([]byte("description: my stack\ncontainers:\n- name: web1\n"))
	if err != nil {
		t.Fatalf("ParseStack: %v", err)
	}
	if len(stack.Containers) != 1 {
		t.Errorf("containers = %v", stack.Containers)
	}
}
