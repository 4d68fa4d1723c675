//go:build !windows || !(amd64 || arm64)

package dokan

import "github.com/marmos91/dokanfs/internal/native"

// newOperations returns an empty table where no native callbacks exist.
// Mounts still run against an injected driver in tests.
func newOperations() *native.DokanOperations {
	return &native.DokanOperations{}
}
