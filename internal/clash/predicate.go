// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package clash decides which members of a container carry a name the
// target language does not allow, and collects them per container.
// Implements: prd002-clash-detection R1 (predicate), R2 (collector);
//
//	docs/ARCHITECTURE § Clash Detection.
package clash

import "github.com/petar-djukic/declash/pkg/types"

// ShouldRename reports whether member must be renamed because of its name
// relative to container. A member may not share the exact name of its
// immediately enclosing container, except in enums.
//
// Implements: prd002-clash-detection R1.1-R1.3.
func ShouldRename(container, member types.Symbol) bool {
	if container.IsEnum {
		return false
	}
	return member.Name == container.Name
}
