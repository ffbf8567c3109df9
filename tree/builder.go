// Copyright 2026 The Spacehub Authors
// SPDX-License-Identifier: Apache-2.0

package tree

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load builds the forest from the directory at root. Each top-level
// directory becomes one tree; top-level files are reported and
// ignored. The walk is purely local — no remote calls.
func Load(root string, logger *slog.Logger) (Forest, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("tree: reading root %q: %w", root, err)
	}

	var forest Forest
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !entry.IsDir() {
			logger.Info("ignoring non-directory at tree root", "path", entry.Name())
			continue
		}
		node, err := loadNode(root, entry.Name(), logger)
		if err != nil {
			return nil, err
		}
		forest = append(forest, node)
	}
	return forest, nil
}

func loadNode(root, relPath string, logger *slog.Logger) (*SpaceNode, error) {
	node := &SpaceNode{Path: relPath}

	entries, err := os.ReadDir(filepath.Join(root, relPath))
	if err != nil {
		return nil, fmt.Errorf("tree: reading %q: %w", relPath, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		childPath := filepath.Join(relPath, name)

		if entry.Type()&fs.ModeSymlink != 0 {
			logger.Warn("symlinks are not supported, skipping", "path", childPath)
			continue
		}

		switch {
		case entry.IsDir():
			child, err := loadNode(root, childPath, logger)
			if err != nil {
				return nil, err
			}
			node.Children = append(node.Children, child)

		case name == "metadata.yml" || name == "metadata.yaml":
			spec, err := loadRoomSpec(filepath.Join(root, childPath), childPath)
			if err != nil {
				return nil, err
			}
			node.Self = spec

		case strings.HasPrefix(name, "!"), strings.HasPrefix(name, "#"):
			spec, err := loadRoomSpec(filepath.Join(root, childPath), childPath)
			if err != nil {
				return nil, err
			}
			// The filename is the identifier and overrides anything
			// in the body.
			if strings.HasPrefix(name, "!") {
				spec.ID = name
			} else {
				spec.Alias = name
			}
			node.Rooms = append(node.Rooms, spec)

		default:
			logger.Info("unsupported file in tree, skipping", "path", childPath)
		}
	}

	return node, nil
}

// loadRoomSpec parses one metadata file. Unknown keys are rejected so
// a typo in a field name fails loudly instead of silently dropping the
// setting. An empty file is a valid spec with all defaults.
func loadRoomSpec(path, source string) (*RoomSpec, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("tree: reading %q: %w", source, err)
	}

	spec := &RoomSpec{Source: source}
	decoder := yaml.NewDecoder(bytes.NewReader(contents))
	decoder.KnownFields(true)
	if err := decoder.Decode(spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("tree: parsing %q: %w", source, err)
	}

	if spec.Visibility == "" {
		spec.Visibility = VisibilityPrivate
	}
	return spec, nil
}
