/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strings"
)

// EscapePath maps each path segment to a positional placeholder (#n0, #n1, ...)
// and returns the placeholder map together with the dotted attribute reference.
// Placeholders depend only on the segment index, so two segments never share
// one even when their names are equal or are reserved words.
func EscapePath(segments []string) (map[string]string, string) {
	names := make(map[string]string, len(segments))
	refs := make([]string, len(segments))
	for i, segment := range segments {
		placeholder := fmt.Sprintf("#n%d", i)
		names[placeholder] = segment
		refs[i] = placeholder
	}
	return names, strings.Join(refs, ".")
}
