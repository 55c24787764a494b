// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

// Kind discriminates categories from tags in the shared metas table.
type Kind string

const (
	KindCategory Kind = "category"
	KindTag      Kind = "tag"
)

// Valid reports whether k is one of the known taxonomy kinds.
func (k Kind) Valid() bool {
	return k == KindCategory || k == KindTag
}

// Plural returns the collection name used in routes and messages.
func (k Kind) Plural() string {
	switch k {
	case KindCategory:
		return "categories"
	case KindTag:
		return "tags"
	default:
		return string(k) + "s"
	}
}

// Hierarchical returns true if nodes of this kind may have a parent.
// Tags are always flat.
func (k Kind) Hierarchical() bool {
	return k == KindCategory
}

// Node is a category or tag row. Parent is 0 for root nodes; Order is a
// soft position among siblings sharing the same parent.
type Node struct {
	ID          int64  `json:"mid"`
	Kind        Kind   `json:"type"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Parent      int64  `json:"parent"`
	Order       int    `json:"order"`
	Count       int    `json:"count"`

	// Virtual fields populated when building a category tree.
	Children []Node `json:"children,omitempty"`
	Depth    int    `json:"depth,omitempty"`
}

// Link associates a content item with a taxonomy node. Kind is empty when
// the referenced node no longer exists.
type Link struct {
	ContentID int64 `json:"cid"`
	NodeID    int64 `json:"mid"`
	Kind      Kind  `json:"type,omitempty"`
}
