package dokan

import (
	"time"

	"github.com/marmos91/dokanfs/internal/native"
)

// FileAttribute is a set of FILE_ATTRIBUTE_* bits.
type FileAttribute uint32

const (
	FileAttributeReadonly          = FileAttribute(native.FileAttributeReadonly)
	FileAttributeHidden            = FileAttribute(native.FileAttributeHidden)
	FileAttributeSystem            = FileAttribute(native.FileAttributeSystem)
	FileAttributeDirectory         = FileAttribute(native.FileAttributeDirectory)
	FileAttributeArchive           = FileAttribute(native.FileAttributeArchive)
	FileAttributeNormal            = FileAttribute(native.FileAttributeNormal)
	FileAttributeTemporary         = FileAttribute(native.FileAttributeTemporary)
	FileAttributeSparseFile        = FileAttribute(native.FileAttributeSparseFile)
	FileAttributeReparsePoint      = FileAttribute(native.FileAttributeReparsePoint)
	FileAttributeCompressed        = FileAttribute(native.FileAttributeCompressed)
	FileAttributeOffline           = FileAttribute(native.FileAttributeOffline)
	FileAttributeNotContentIndexed = FileAttribute(native.FileAttributeNotContentIndexed)
	FileAttributeEncrypted         = FileAttribute(native.FileAttributeEncrypted)
)

// Has reports whether every bit of flag is set.
func (a FileAttribute) Has(flag FileAttribute) bool {
	return a&flag == flag
}

// AccessMask is a set of user-mode access rights, with GENERIC_* bits folded
// in where the kernel request covered the whole generic set.
type AccessMask uint32

const (
	AccessReadData        = AccessMask(native.FileReadData)
	AccessWriteData       = AccessMask(native.FileWriteData)
	AccessAppendData      = AccessMask(native.FileAppendData)
	AccessReadAttributes  = AccessMask(native.FileReadAttributes)
	AccessWriteAttributes = AccessMask(native.FileWriteAttributes)
	AccessExecute         = AccessMask(native.FileExecute)
	AccessDelete          = AccessMask(native.Delete)
	AccessReadControl     = AccessMask(native.ReadControl)
	AccessSynchronize     = AccessMask(native.Synchronize)
	AccessGenericRead     = AccessMask(native.GenericRead)
	AccessGenericWrite    = AccessMask(native.GenericWrite)
	AccessGenericExecute  = AccessMask(native.GenericExecute)
	AccessGenericAll      = AccessMask(native.GenericAll)
)

// Has reports whether any bit of flag is set.
func (m AccessMask) Has(flag AccessMask) bool {
	return m&flag != 0
}

// CanWrite reports whether the mask requests any data modification.
func (m AccessMask) CanWrite() bool {
	return m.Has(AccessWriteData | AccessAppendData | AccessGenericWrite | AccessGenericAll)
}

// CreationDisposition is the Win32 creation disposition.
type CreationDisposition uint32

const (
	CreateNew        = CreationDisposition(native.CreateNew)
	CreateAlways     = CreationDisposition(native.CreateAlways)
	OpenExisting     = CreationDisposition(native.OpenExisting)
	OpenAlways       = CreationDisposition(native.OpenAlways)
	TruncateExisting = CreationDisposition(native.TruncateExisting)
)

func (d CreationDisposition) String() string {
	switch d {
	case CreateNew:
		return "CREATE_NEW"
	case CreateAlways:
		return "CREATE_ALWAYS"
	case OpenExisting:
		return "OPEN_EXISTING"
	case OpenAlways:
		return "OPEN_ALWAYS"
	case TruncateExisting:
		return "TRUNCATE_EXISTING"
	default:
		return "UNKNOWN"
	}
}

// MayCreate reports whether the disposition allows creating a missing file.
func (d CreationDisposition) MayCreate() bool {
	return d == CreateNew || d == CreateAlways || d == OpenAlways
}

// Truncates reports whether an existing file is emptied on open.
func (d CreationDisposition) Truncates() bool {
	return d == CreateAlways || d == TruncateExisting
}

// ShareMode is a set of FILE_SHARE_* bits.
type ShareMode uint32

const (
	ShareRead   = ShareMode(native.FileShareRead)
	ShareWrite  = ShareMode(native.FileShareWrite)
	ShareDelete = ShareMode(native.FileShareDelete)
)

// FileSystemFeature is a set of FILE_* volume capability bits.
type FileSystemFeature uint32

const (
	FeatureCaseSensitiveSearch   = FileSystemFeature(native.FileCaseSensitiveSearch)
	FeatureCasePreservedNames    = FileSystemFeature(native.FileCasePreservedNames)
	FeatureUnicodeOnDisk         = FileSystemFeature(native.FileUnicodeOnDisk)
	FeaturePersistentACLs        = FileSystemFeature(native.FilePersistentACLs)
	FeatureSupportsRemoteStorage = FileSystemFeature(native.FileSupportsRemoteStorage)
	FeatureNamedStreams          = FileSystemFeature(native.FileNamedStreams)
	FeatureReadOnlyVolume        = FileSystemFeature(native.FileReadOnlyVolume)
	FeatureSupportsSparseFiles   = FileSystemFeature(native.FileSupportsSparseFiles)
)

// SecurityInformation selects which parts of a security descriptor are
// queried or set.
type SecurityInformation uint32

const (
	OwnerSecurityInformation = SecurityInformation(native.OwnerSecurityInformation)
	GroupSecurityInformation = SecurityInformation(native.GroupSecurityInformation)
	DACLSecurityInformation  = SecurityInformation(native.DACLSecurityInformation)
	SACLSecurityInformation  = SecurityInformation(native.SACLSecurityInformation)
)

// CreateFileRequest describes a create/open call after the kernel request
// has been mapped to user-mode flags.
type CreateFileRequest struct {
	// Access is the requested access, with GENERIC_* bits folded in.
	Access AccessMask
	// Share is the share mode requested by the caller.
	Share ShareMode
	// Disposition is the Win32 creation disposition.
	Disposition CreationDisposition
	// Attributes holds the FILE_ATTRIBUTE_* bits requested for a new file.
	Attributes FileAttribute
	// Flags holds the FILE_FLAG_* options mapped from the kernel options.
	Flags uint32
	// CreateOptions is the raw kernel CreateOptions value.
	CreateOptions uint32
}

// DirectoryRequested reports whether the caller requires a directory.
func (r *CreateFileRequest) DirectoryRequested() bool {
	return r.CreateOptions&native.FileDirectoryFile != 0
}

// NonDirectoryRequested reports whether the caller requires a non-directory.
func (r *CreateFileRequest) NonDirectoryRequested() bool {
	return r.CreateOptions&native.FileNonDirectoryFile != 0
}

// DeleteOnClose reports whether the handle is opened for deletion on close.
func (r *CreateFileRequest) DeleteOnClose() bool {
	return r.CreateOptions&native.FileDeleteOnClose != 0
}

// FileInformation describes a file or directory entry.
//
// Zero timestamps are reported to the driver as the zero FILETIME.
type FileInformation struct {
	FileName       string
	Attributes     FileAttribute
	CreationTime   time.Time
	LastAccessTime time.Time
	LastWriteTime  time.Time
	Length         int64
}

// StreamInformation describes one alternate data stream, including the
// unnamed default stream "::$DATA".
type StreamInformation struct {
	Name string
	Size int64
}

// DiskFreeSpace reports volume capacity in bytes.
type DiskFreeSpace struct {
	FreeBytesAvailable     uint64
	TotalNumberOfBytes     uint64
	TotalNumberOfFreeBytes uint64
}

// VolumeInformation describes the mounted volume.
type VolumeInformation struct {
	Name               string
	SerialNumber       uint32
	MaxComponentLength uint32
	Features           FileSystemFeature
	FileSystemName     string
}
