package dokan

import "time"

// NotImplementedFileSystem answers every operation with
// StatusNotImplemented, except the lifecycle and handle-release calls which
// succeed. Embed it to implement a FileSystem incrementally.
type NotImplementedFileSystem struct{}

var _ FileSystem = &NotImplementedFileSystem{}

func (fs *NotImplementedFileSystem) CreateFile(name string, req *CreateFileRequest, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) Cleanup(name string, info *FileInfo) error {
	return nil
}

func (fs *NotImplementedFileSystem) CloseFile(name string, info *FileInfo) error {
	return nil
}

func (fs *NotImplementedFileSystem) ReadFile(name string, buf []byte, offset int64, info *FileInfo) (int, error) {
	return 0, StatusNotImplemented
}

func (fs *NotImplementedFileSystem) WriteFile(name string, buf []byte, offset int64, info *FileInfo) (int, error) {
	return 0, StatusNotImplemented
}

func (fs *NotImplementedFileSystem) FlushFileBuffers(name string, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) GetFileInformation(name string, info *FileInfo) (FileInformation, error) {
	return FileInformation{}, StatusNotImplemented
}

func (fs *NotImplementedFileSystem) FindFiles(name string, info *FileInfo) ([]FileInformation, error) {
	return nil, StatusNotImplemented
}

func (fs *NotImplementedFileSystem) FindFilesWithPattern(name, pattern string, info *FileInfo) ([]FileInformation, error) {
	return nil, StatusNotImplemented
}

func (fs *NotImplementedFileSystem) SetFileAttributes(name string, attributes FileAttribute, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) SetFileTime(name string, creation, lastAccess, lastWrite *time.Time, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) DeleteFile(name string, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) DeleteDirectory(name string, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) MoveFile(oldName, newName string, replaceIfExisting bool, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) SetEndOfFile(name string, length int64, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) SetAllocationSize(name string, length int64, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) LockFile(name string, offset, length int64, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) UnlockFile(name string, offset, length int64, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) GetDiskFreeSpace(info *FileInfo) (DiskFreeSpace, error) {
	return DiskFreeSpace{}, StatusNotImplemented
}

func (fs *NotImplementedFileSystem) GetVolumeInformation(info *FileInfo) (VolumeInformation, error) {
	return VolumeInformation{}, StatusNotImplemented
}

func (fs *NotImplementedFileSystem) Mounted(info *FileInfo) error {
	return nil
}

func (fs *NotImplementedFileSystem) Unmounted(info *FileInfo) error {
	return nil
}

func (fs *NotImplementedFileSystem) GetFileSecurity(name string, requested SecurityInformation, info *FileInfo) ([]byte, error) {
	return nil, StatusNotImplemented
}

func (fs *NotImplementedFileSystem) SetFileSecurity(name string, requested SecurityInformation, descriptor []byte, info *FileInfo) error {
	return StatusNotImplemented
}

func (fs *NotImplementedFileSystem) FindStreams(name string, info *FileInfo) ([]StreamInformation, error) {
	return nil, StatusNotImplemented
}
