// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package service

import "metapress/internal/models"

// buildTree nests a flat, ordered list of categories. Nodes whose parent is
// missing become roots. Nodes caught in a stored cycle never reach a root
// through their parents, so the first of them seen is promoted to a root.
func buildTree(flat []models.Node) []models.Node {
	present := make(map[int64]bool, len(flat))
	for _, n := range flat {
		present[n.ID] = true
	}

	children := make(map[int64][]models.Node)
	var roots []models.Node
	for _, n := range flat {
		if n.Parent == 0 || !present[n.Parent] {
			roots = append(roots, n)
			continue
		}
		children[n.Parent] = append(children[n.Parent], n)
	}

	placed := make(map[int64]bool, len(flat))
	result := attach(roots, children, placed, 0)
	for _, n := range flat {
		if !placed[n.ID] {
			result = append(result, attach([]models.Node{n}, children, placed, 0)...)
		}
	}
	if result == nil {
		result = []models.Node{}
	}
	return result
}

// attach recursively fills Children and Depth, skipping nodes already placed.
func attach(level []models.Node, children map[int64][]models.Node, placed map[int64]bool, depth int) []models.Node {
	var result []models.Node
	for _, n := range level {
		if placed[n.ID] {
			continue
		}
		placed[n.ID] = true
		n.Depth = depth
		n.Children = attach(children[n.ID], children, placed, depth+1)
		result = append(result, n)
	}
	return result
}
