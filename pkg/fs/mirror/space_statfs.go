//go:build linux || darwin || freebsd

package mirror

import (
	"github.com/marmos91/dokanfs/pkg/dokan"
	"golang.org/x/sys/unix"
)

func diskFreeSpace(root string) (dokan.DiskFreeSpace, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return dokan.DiskFreeSpace{}, err
	}
	bsize := uint64(st.Bsize)
	return dokan.DiskFreeSpace{
		FreeBytesAvailable:     uint64(st.Bavail) * bsize,
		TotalNumberOfBytes:     uint64(st.Blocks) * bsize,
		TotalNumberOfFreeBytes: uint64(st.Bfree) * bsize,
	}, nil
}
