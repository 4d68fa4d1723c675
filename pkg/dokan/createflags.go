package dokan

import "github.com/marmos91/dokanfs/internal/native"

// kernelOptionFlags pairs kernel CreateOptions bits with the FILE_FLAG_*
// value a Win32 caller would have passed to CreateFile.
var kernelOptionFlags = []struct {
	kernel uint32
	user   uint32
}{
	{native.FileWriteThrough, native.FileFlagWriteThrough},
	{native.FileSequentialOnly, native.FileFlagSequentialScan},
	{native.FileRandomAccess, native.FileFlagRandomAccess},
	{native.FileNoIntermediateBuffering, native.FileFlagNoBuffering},
	{native.FileOpenReparsePoint, native.FileFlagOpenReparsePoint},
	{native.FileDeleteOnClose, native.FileFlagDeleteOnClose},
	{native.FileOpenForBackupIntent, native.FileFlagBackupSemantics},
	{native.FileSessionAware, native.FileFlagSessionAware},
}

// genericAccess pairs each GENERIC_* right with the specific rights it
// stands for.
var genericAccess = []struct {
	specific uint32
	generic  uint32
}{
	{native.FileGenericRead, native.GenericRead},
	{native.FileGenericWrite, native.GenericWrite},
	{native.FileGenericExecute, native.GenericExecute},
	{native.FileAllAccess, native.GenericAll},
}

// mapKernelToUserCreateFileFlags converts the arguments of ZwCreateFile into
// the values a Win32 CreateFile call would have used. A generic right is
// reported instead of its specific rights only when all of them are present.
func mapKernelToUserCreateFileFlags(access, attributes, options, disposition uint32) (userAccess, attributesAndFlags, creationDisposition uint32) {
	attributesAndFlags = attributes
	for _, m := range kernelOptionFlags {
		if options&m.kernel == m.kernel {
			attributesAndFlags |= m.user
		}
	}

	switch disposition {
	case native.FileCreate:
		creationDisposition = native.CreateNew
	case native.FileOpen:
		creationDisposition = native.OpenExisting
	case native.FileOpenIf:
		creationDisposition = native.OpenAlways
	case native.FileOverwrite:
		creationDisposition = native.TruncateExisting
	case native.FileSupersede, native.FileOverwriteIf:
		creationDisposition = native.CreateAlways
	default:
		creationDisposition = 0
	}

	userAccess = access
	var folded uint32
	for _, g := range genericAccess {
		if userAccess&g.specific == g.specific {
			userAccess |= g.generic
			folded |= g.specific
		}
	}
	userAccess &^= folded

	return userAccess, attributesAndFlags, creationDisposition
}

// newCreateFileRequest builds the request handed to FileSystem.CreateFile.
func newCreateFileRequest(access, attributes, share, disposition, options uint32) *CreateFileRequest {
	userAccess, attrsAndFlags, creation := mapKernelToUserCreateFileFlags(access, attributes, options, disposition)
	return &CreateFileRequest{
		Access:        AccessMask(userAccess),
		Share:         ShareMode(share),
		Disposition:   CreationDisposition(creation),
		Attributes:    FileAttribute(attrsAndFlags & native.FileAttributeMask),
		Flags:         attrsAndFlags &^ native.FileAttributeMask,
		CreateOptions: options,
	}
}
