//go:build !linux && !darwin && !freebsd && !windows

package mirror

import "github.com/marmos91/dokanfs/pkg/dokan"

func diskFreeSpace(string) (dokan.DiskFreeSpace, error) {
	return dokan.DiskFreeSpace{}, dokan.StatusNotImplemented
}
