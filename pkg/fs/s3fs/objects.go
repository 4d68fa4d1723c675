package s3fs

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/winpath"
)

// object is the per-handle context: what stat found when the handle was
// opened. Directory keys end in "/" except for an unprefixed root.
type object struct {
	key      string
	name     string
	dir      bool
	size     int64
	modified time.Time
}

func (o *object) info(mountTime time.Time) dokan.FileInformation {
	fi := dokan.FileInformation{
		FileName:       o.name,
		Attributes:     dokan.FileAttributeReadonly,
		CreationTime:   o.modified,
		LastAccessTime: o.modified,
		LastWriteTime:  o.modified,
		Length:         o.size,
	}
	if o.dir {
		fi.Attributes = dokan.FileAttributeDirectory
	}
	if fi.LastWriteTime.IsZero() {
		fi.CreationTime, fi.LastAccessTime, fi.LastWriteTime = mountTime, mountTime, mountTime
	}
	return fi
}

// keyOf maps a cleaned path to an object key.
func (fs *FS) keyOf(path string) string {
	return fs.prefix + strings.Join(winpath.Components(path), "/")
}

// stat resolves a path to an object or an implicit directory.
func (fs *FS) stat(path string) (*object, error) {
	if path == winpath.Root {
		return &object{key: fs.prefix, dir: true}, nil
	}
	_, name := winpath.Split(path)
	key := fs.keyOf(path)

	var head *s3.HeadObjectOutput
	err := fs.request("HeadObject", func(ctx context.Context) (err error) {
		head, err = fs.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(fs.bucket),
			Key:    aws.String(key),
		})
		return err
	})
	if err == nil {
		return &object{
			key:      key,
			name:     name,
			size:     aws.ToInt64(head.ContentLength),
			modified: aws.ToTime(head.LastModified),
		}, nil
	}
	if !isNotFound(err) {
		return nil, translate("HeadObject", key, err)
	}

	prefix := key + "/"
	var list *s3.ListObjectsV2Output
	err = fs.request("ListObjectsV2", func(ctx context.Context) (err error) {
		list, err = fs.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:  aws.String(fs.bucket),
			Prefix:  aws.String(prefix),
			MaxKeys: aws.Int32(1),
		})
		return err
	})
	if err != nil {
		return nil, translate("ListObjectsV2", prefix, err)
	}
	if len(list.Contents) == 0 && len(list.CommonPrefixes) == 0 {
		return nil, dokan.StatusObjectNameNotFound
	}
	return &object{key: prefix, name: name, dir: true}, nil
}

// list returns the entries below a directory key prefix, one page of
// ListObjectsV2 per request.
func (fs *FS) list(prefix string) ([]*object, error) {
	pages := s3.NewListObjectsV2Paginator(fs.client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(fs.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	var out []*object
	for pages.HasMorePages() {
		var page *s3.ListObjectsV2Output
		err := fs.request("ListObjectsV2", func(ctx context.Context) (err error) {
			page, err = pages.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, translate("ListObjectsV2", prefix, err)
		}

		for _, cp := range page.CommonPrefixes {
			name := strings.TrimSuffix(strings.TrimPrefix(aws.ToString(cp.Prefix), prefix), "/")
			if !validName(name) {
				continue
			}
			out = append(out, &object{key: aws.ToString(cp.Prefix), name: name, dir: true})
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, prefix)
			if !validName(name) {
				continue
			}
			out = append(out, &object{
				key:      key,
				name:     name,
				size:     aws.ToInt64(obj.Size),
				modified: aws.ToTime(obj.LastModified),
			})
		}
	}
	return out, nil
}

// validName filters directory markers and keys that cannot be expressed
// as a single Windows path component.
func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `\/:*?"<>|`)
}
