//go:build windows

package mirror

import (
	"github.com/marmos91/dokanfs/pkg/dokan"
	"golang.org/x/sys/windows"
)

func diskFreeSpace(root string) (dokan.DiskFreeSpace, error) {
	p, err := windows.UTF16PtrFromString(root)
	if err != nil {
		return dokan.DiskFreeSpace{}, err
	}
	var space dokan.DiskFreeSpace
	err = windows.GetDiskFreeSpaceEx(p, &space.FreeBytesAvailable, &space.TotalNumberOfBytes, &space.TotalNumberOfFreeBytes)
	return space, err
}
