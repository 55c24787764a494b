// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug derives and validates URL-safe taxonomy identifiers.
package slug

import (
	"regexp"
	"strings"
)

var (
	// disallowed matches anything that isn't a word character, whitespace, or hyphen.
	disallowed = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s\p{Z}-]`)
	// separators collapses runs of whitespace and hyphens into one hyphen.
	separators = regexp.MustCompile(`[\s\p{Z}-]+`)
	// format is the accepted shape of a stored slug.
	format = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Derive creates a slug from a node name. The result is best-effort: it may
// still fail Valid (non-ASCII letters survive derivation) or collide with an
// existing slug.
// Example: "Hello, World!" → "hello-world"
func Derive(name string) string {
	result := strings.ToLower(strings.TrimSpace(name))
	result = disallowed.ReplaceAllString(result, "")
	return separators.ReplaceAllString(result, "-")
}

// Valid reports whether s matches ^[A-Za-z0-9_-]+$.
func Valid(s string) bool {
	return format.MatchString(s)
}
