package s3fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// CreateFile opens an existing object for reading. Anything that would
// create, truncate or write is refused.
func (fs *FS) CreateFile(name string, req *dokan.CreateFileRequest, info *dokan.FileInfo) error {
	path, stream := winpath.SplitStream(name)
	if stream != "" {
		return dokan.StatusNotSupported
	}

	obj, err := fs.stat(path)
	if errors.Is(err, dokan.StatusObjectNameNotFound) {
		if req.Disposition.MayCreate() {
			return dokan.StatusMediaWriteProtected
		}
		return err
	}
	if err != nil {
		return err
	}

	if req.Disposition == dokan.CreateNew {
		return dokan.StatusObjectNameCollision
	}
	if req.Disposition.Truncates() || req.DeleteOnClose() {
		return dokan.StatusMediaWriteProtected
	}
	if obj.dir {
		if req.NonDirectoryRequested() {
			return dokan.StatusFileIsADirectory
		}
	} else {
		if req.DirectoryRequested() {
			return dokan.StatusNotADirectory
		}
		if req.Access.CanWrite() {
			return dokan.StatusMediaWriteProtected
		}
	}

	info.SetIsDirectory(obj.dir)
	info.SetContext(obj)
	if req.Disposition == dokan.OpenAlways {
		return dokan.StatusObjectNameCollision
	}
	return nil
}

// handleObject returns the object behind a handle, falling back to a
// fresh stat for calls made without one.
func (fs *FS) handleObject(name string, info *dokan.FileInfo) (*object, error) {
	if info != nil {
		if obj, ok := info.Context().(*object); ok {
			return obj, nil
		}
	}
	path, stream := winpath.SplitStream(name)
	if stream != "" {
		return nil, dokan.StatusNotSupported
	}
	return fs.stat(path)
}

func (fs *FS) Cleanup(name string, info *dokan.FileInfo) error {
	return nil
}

func (fs *FS) CloseFile(name string, info *dokan.FileInfo) error {
	return nil
}

// ReadFile issues a ranged GetObject for exactly the requested window.
func (fs *FS) ReadFile(name string, buf []byte, offset int64, info *dokan.FileInfo) (int, error) {
	obj, err := fs.handleObject(name, info)
	if err != nil {
		return 0, err
	}
	if obj.dir {
		return 0, dokan.StatusFileIsADirectory
	}
	if offset < 0 {
		return 0, dokan.StatusInvalidParameter
	}
	if offset >= obj.size {
		return 0, io.EOF
	}

	end := offset + int64(len(buf)) - 1
	if end >= obj.size {
		end = obj.size - 1
	}

	var n int
	err = fs.request("GetObject", func(ctx context.Context) error {
		out, err := fs.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(fs.bucket),
			Key:    aws.String(obj.key),
			Range:  aws.String(fmt.Sprintf("bytes=%d-%d", offset, end)),
		})
		if err != nil {
			return err
		}
		defer func() { _ = out.Body.Close() }()

		n, err = io.ReadFull(out.Body, buf[:end-offset+1])
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = nil
		}
		return err
	})
	if err != nil {
		if strings.Contains(err.Error(), "InvalidRange") {
			return 0, io.EOF
		}
		return 0, translate("GetObject", obj.key, err)
	}
	fs.metrics.RecordBytes("read", int64(n))
	return n, nil
}

func (fs *FS) GetFileInformation(name string, info *dokan.FileInfo) (dokan.FileInformation, error) {
	obj, err := fs.handleObject(name, info)
	if err != nil {
		return dokan.FileInformation{}, err
	}
	return obj.info(fs.mountTime), nil
}

// FindFiles lists directories (common prefixes) first, then objects, each
// in key order.
func (fs *FS) FindFiles(name string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	return fs.find(name, "", info)
}

func (fs *FS) FindFilesWithPattern(name, pattern string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	return fs.find(name, pattern, info)
}

func (fs *FS) find(name, pattern string, info *dokan.FileInfo) ([]dokan.FileInformation, error) {
	obj, err := fs.handleObject(name, info)
	if err != nil {
		return nil, err
	}
	if !obj.dir {
		return nil, dokan.StatusNotADirectory
	}

	entries, err := fs.list(obj.key)
	if err != nil {
		return nil, err
	}
	out := make([]dokan.FileInformation, 0, len(entries))
	for _, e := range entries {
		if pattern != "" && !dokan.MatchPattern(pattern, e.name, false) {
			continue
		}
		out = append(out, e.info(fs.mountTime))
	}
	return out, nil
}

func (fs *FS) FindStreams(name string, info *dokan.FileInfo) ([]dokan.StreamInformation, error) {
	obj, err := fs.handleObject(name, info)
	if err != nil {
		return nil, err
	}
	if obj.dir {
		return nil, nil
	}
	return []dokan.StreamInformation{{Name: winpath.StreamName(""), Size: obj.size}}, nil
}

func (fs *FS) FlushFileBuffers(name string, info *dokan.FileInfo) error {
	return nil
}

// ============================================================================
// Refused mutations
// ============================================================================

func (fs *FS) WriteFile(name string, buf []byte, offset int64, info *dokan.FileInfo) (int, error) {
	return 0, dokan.StatusMediaWriteProtected
}

func (fs *FS) SetEndOfFile(name string, length int64, info *dokan.FileInfo) error {
	return dokan.StatusMediaWriteProtected
}

func (fs *FS) SetAllocationSize(name string, length int64, info *dokan.FileInfo) error {
	return dokan.StatusMediaWriteProtected
}

func (fs *FS) SetFileAttributes(name string, attributes dokan.FileAttribute, info *dokan.FileInfo) error {
	return dokan.StatusMediaWriteProtected
}

func (fs *FS) SetFileTime(name string, creation, lastAccess, lastWrite *time.Time, info *dokan.FileInfo) error {
	return dokan.StatusMediaWriteProtected
}

func (fs *FS) DeleteFile(name string, info *dokan.FileInfo) error {
	return dokan.StatusMediaWriteProtected
}

func (fs *FS) DeleteDirectory(name string, info *dokan.FileInfo) error {
	return dokan.StatusMediaWriteProtected
}

func (fs *FS) MoveFile(oldName, newName string, replaceIfExisting bool, info *dokan.FileInfo) error {
	return dokan.StatusMediaWriteProtected
}

func (fs *FS) SetFileSecurity(name string, requested dokan.SecurityInformation, descriptor []byte, info *dokan.FileInfo) error {
	return dokan.StatusMediaWriteProtected
}
