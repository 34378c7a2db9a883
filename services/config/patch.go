// Copyright (C) 2025 Tippgeber contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PatchValue rewrites a single `key: value` entry inside the YAML file at
// path, addressed by a dotted section path such as "ai" or "speech.pool".
// The file is round-tripped through yaml.Node so comments, ordering and
// quoting survive the edit. A nil value writes an explicit null.
func PatchValue(path, sectionPath, key string, value any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config for patching: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse config for patching: %w", err)
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("config file %s is empty", path)
	}

	node := doc.Content[0]
	for _, part := range strings.Split(sectionPath, ".") {
		child := mappingValue(node, part)
		if child == nil {
			return fmt.Errorf("section %q not found in %s", sectionPath, path)
		}
		node = child
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("section %q in %s is not a mapping", sectionPath, path)
	}

	valueNode := &yaml.Node{Kind: yaml.ScalarNode}
	if err := valueNode.Encode(value); err != nil {
		return fmt.Errorf("failed to encode value for %s.%s: %w", sectionPath, key, err)
	}

	if existing := mappingValue(node, key); existing != nil {
		// Replace in place, keeping any line comment attached to the entry.
		valueNode.LineComment = existing.LineComment
		*existing = *valueNode
	} else {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: key},
			valueNode)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return fmt.Errorf("failed to re-encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	return atomicWrite(path, buf.Bytes())
}

// mappingValue returns the value node for key inside a mapping node, or nil.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}
