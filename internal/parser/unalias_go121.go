//go:build !go1.22

package parser

import "go/types"

// Before go1.22 go/types has no Alias nodes, so there is nothing to unwrap.
func unalias(t types.Type) types.Type { return t }
