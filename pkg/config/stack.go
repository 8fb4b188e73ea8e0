package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lxstack/lxstack/pkg/engine"
	"github.com/lxstack/lxstack/pkg/lxd"
)

// collectionKeys maps stack document keys to hypervisor collections.
var collectionKeys = []struct {
	key        string
	collection lxd.Collection
}{
	{"storage_pools", lxd.StoragePools},
	{"networks", lxd.Networks},
	{"profiles", lxd.Profiles},
	{"containers", lxd.Containers},
}

// ParseStack parses a YAML stack document. Every scalar is kept as a string,
// so specs reach the hypervisor exactly as written. Each spec must carry a
// unique, non-empty name.
func ParseStack(data []byte) (*engine.Stack, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("config: parse stack document: %w", err)
	}

	stack := &engine.Stack{}
	if root.Kind == 0 {
		// Empty document, empty stack.
		return stack, nil
	}

	value, err := decodeNode(&root)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return stack, nil
	}

	document, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("config: stack document must be a mapping")
	}

	for _, entry := range collectionKeys {
		specs, err := collectionSpecs(document, entry.key)
		if err != nil {
			return nil, err
		}
		switch entry.collection {
		case lxd.StoragePools:
			stack.StoragePools = specs
		case lxd.Networks:
			stack.Networks = specs
		case lxd.Profiles:
			stack.Profiles = specs
		case lxd.Containers:
			stack.Containers = specs
		}
	}

	return stack, nil
}

// collectionSpecs extracts and validates one collection's spec sequence.
// An absent key is an empty sequence.
func collectionSpecs(document map[string]any, key string) ([]lxd.Spec, error) {
	raw, present := document[key]
	if !present || raw == nil {
		return nil, nil
	}

	sequence, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("config: %s must be a sequence", key)
	}

	specs := make([]lxd.Spec, 0, len(sequence))
	seen := make(map[string]bool, len(sequence))
	for i, item := range sequence {
		mapping, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("config: %s[%d] must be a mapping", key, i)
		}
		spec := lxd.Spec(mapping)
		name := spec.Name()
		if name == "" {
			return nil, fmt.Errorf("config: %s[%d] has no name", key, i)
		}
		if seen[name] {
			return nil, fmt.Errorf("config: %s has duplicate name %q", key, name)
		}
		seen[name] = true
		specs = append(specs, spec)
	}
	return specs, nil
}

// decodeNode converts a YAML node tree into plain maps, slices and strings.
// Scalars keep their literal text regardless of YAML tag; an empty scalar
// (YAML null) decodes to nil.
func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeNode(n.Content[0])

	case yaml.MappingNode:
		mapping := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			keyNode, valueNode := n.Content[i], n.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("config: line %d: mapping key must be a scalar", keyNode.Line)
			}
			value, err := decodeNode(valueNode)
			if err != nil {
				return nil, err
			}
			mapping[keyNode.Value] = value
		}
		return mapping, nil

	case yaml.SequenceNode:
		sequence := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := decodeNode(item)
			if err != nil {
				return nil, err
			}
			sequence = append(sequence, value)
		}
		return sequence, nil

	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return nil, nil
		}
		return n.Value, nil

	case yaml.AliasNode:
		return decodeNode(n.Alias)

	default:
		return nil, fmt.Errorf("config: line %d: unsupported YAML node", n.Line)
	}
}
