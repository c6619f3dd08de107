/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

// Lookup descends doc along path and returns the value found at the end.
// It stops at the first missing segment, or at the first intermediate value
// that is not a nested document, and reports false.
func Lookup(doc Document, path ...string) (any, bool) {
	var current any = doc
	for _, segment := range path {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
