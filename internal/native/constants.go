package native

// Library version reported to and expected from dokan1.dll.
const (
	DokanVersion        = 150
	DokanMinimumVersion = 110
)

// DOKAN_OPTIONS.Options flags.
const (
	OptionDebug            uint32 = 1
	OptionStderr           uint32 = 2
	OptionAltStream        uint32 = 4
	OptionWriteProtect     uint32 = 8
	OptionNetwork          uint32 = 16
	OptionRemovable        uint32 = 32
	OptionMountManager     uint32 = 64
	OptionCurrentSession   uint32 = 128
	OptionFilelockUserMode uint32 = 256
)

// DokanMain return values.
const (
	DokanSuccess            int32 = 0
	DokanError              int32 = -1
	DokanDriveLetterError   int32 = -2
	DokanDriverInstallError int32 = -3
	DokanStartError         int32 = -4
	DokanMountError         int32 = -5
	DokanMountPointError    int32 = -6
	DokanVersionError       int32 = -7
)

// Kernel CreateOptions passed to ZwCreateFile.
const (
	FileDirectoryFile           uint32 = 0x00000001
	FileWriteThrough            uint32 = 0x00000002
	FileSequentialOnly          uint32 = 0x00000004
	FileNoIntermediateBuffering uint32 = 0x00000008
	FileSynchronousIoAlert      uint32 = 0x00000010
	FileSynchronousIoNonalert   uint32 = 0x00000020
	FileNonDirectoryFile        uint32 = 0x00000040
	FileRandomAccess            uint32 = 0x00000800
	FileDeleteOnClose           uint32 = 0x00001000
	FileOpenForBackupIntent     uint32 = 0x00004000
	FileSessionAware            uint32 = 0x00040000
	FileOpenReparsePoint        uint32 = 0x00200000
)

// Kernel CreateDisposition values.
const (
	FileSupersede   uint32 = 0
	FileOpen        uint32 = 1
	FileCreate      uint32 = 2
	FileOpenIf      uint32 = 3
	FileOverwrite   uint32 = 4
	FileOverwriteIf uint32 = 5
)

// Win32 creation dispositions.
const (
	CreateNew        uint32 = 1
	CreateAlways     uint32 = 2
	OpenExisting     uint32 = 3
	OpenAlways       uint32 = 4
	TruncateExisting uint32 = 5
)

// Win32 FILE_FLAG_* values.
const (
	FileFlagWriteThrough      uint32 = 0x80000000
	FileFlagOverlapped        uint32 = 0x40000000
	FileFlagNoBuffering       uint32 = 0x20000000
	FileFlagRandomAccess      uint32 = 0x10000000
	FileFlagSequentialScan    uint32 = 0x08000000
	FileFlagDeleteOnClose     uint32 = 0x04000000
	FileFlagBackupSemantics   uint32 = 0x02000000
	FileFlagPosixSemantics    uint32 = 0x01000000
	FileFlagSessionAware      uint32 = 0x00800000
	FileFlagOpenReparsePoint  uint32 = 0x00200000
	FileFlagOpenNoRecall      uint32 = 0x00100000
	FileFlagFirstPipeInstance uint32 = 0x00080000
)

// Access mask bits.
const (
	FileReadData        uint32 = 0x00000001
	FileWriteData       uint32 = 0x00000002
	FileAppendData      uint32 = 0x00000004
	FileReadEA          uint32 = 0x00000008
	FileWriteEA         uint32 = 0x00000010
	FileExecute         uint32 = 0x00000020
	FileDeleteChild     uint32 = 0x00000040
	FileReadAttributes  uint32 = 0x00000080
	FileWriteAttributes uint32 = 0x00000100
	Delete              uint32 = 0x00010000
	ReadControl         uint32 = 0x00020000
	WriteDAC            uint32 = 0x00040000
	WriteOwner          uint32 = 0x00080000
	Synchronize         uint32 = 0x00100000

	GenericRead    uint32 = 0x80000000
	GenericWrite   uint32 = 0x40000000
	GenericExecute uint32 = 0x20000000
	GenericAll     uint32 = 0x10000000

	FileGenericRead    uint32 = 0x00120089
	FileGenericWrite   uint32 = 0x00120116
	FileGenericExecute uint32 = 0x001200A0
	FileAllAccess      uint32 = 0x001F01FF
)

// Share mode bits.
const (
	FileShareRead   uint32 = 0x1
	FileShareWrite  uint32 = 0x2
	FileShareDelete uint32 = 0x4
)

// File attributes.
const (
	FileAttributeReadonly          uint32 = 0x00000001
	FileAttributeHidden            uint32 = 0x00000002
	FileAttributeSystem            uint32 = 0x00000004
	FileAttributeDirectory         uint32 = 0x00000010
	FileAttributeArchive           uint32 = 0x00000020
	FileAttributeDevice            uint32 = 0x00000040
	FileAttributeNormal            uint32 = 0x00000080
	FileAttributeTemporary         uint32 = 0x00000100
	FileAttributeSparseFile        uint32 = 0x00000200
	FileAttributeReparsePoint      uint32 = 0x00000400
	FileAttributeCompressed        uint32 = 0x00000800
	FileAttributeOffline           uint32 = 0x00001000
	FileAttributeNotContentIndexed uint32 = 0x00002000
	FileAttributeEncrypted         uint32 = 0x00004000
	FileAttributeIntegrityStream   uint32 = 0x00008000
	FileAttributeNoScrubData       uint32 = 0x00020000

	// FileAttributeMask covers every bit that is an attribute rather than a
	// FILE_FLAG_* option after kernel flags are mapped to user flags.
	FileAttributeMask = FileAttributeReadonly | FileAttributeHidden | FileAttributeSystem |
		FileAttributeDirectory | FileAttributeArchive | FileAttributeDevice | FileAttributeNormal |
		FileAttributeTemporary | FileAttributeSparseFile | FileAttributeReparsePoint |
		FileAttributeCompressed | FileAttributeOffline | FileAttributeNotContentIndexed |
		FileAttributeEncrypted | FileAttributeIntegrityStream | FileAttributeNoScrubData
)

// File system feature flags reported by GetVolumeInformation.
const (
	FileCaseSensitiveSearch      uint32 = 0x00000001
	FileCasePreservedNames       uint32 = 0x00000002
	FileUnicodeOnDisk            uint32 = 0x00000004
	FilePersistentACLs           uint32 = 0x00000008
	FileFileCompression          uint32 = 0x00000010
	FileVolumeQuotas             uint32 = 0x00000020
	FileSupportsSparseFiles      uint32 = 0x00000040
	FileSupportsReparsePoints    uint32 = 0x00000080
	FileSupportsRemoteStorage    uint32 = 0x00000100
	FileVolumeIsCompressed       uint32 = 0x00008000
	FileSupportsObjectIDs        uint32 = 0x00010000
	FileSupportsEncryption       uint32 = 0x00020000
	FileNamedStreams             uint32 = 0x00040000
	FileReadOnlyVolume           uint32 = 0x00080000
	FileSequentialWriteOnce      uint32 = 0x00100000
	FileSupportsTransactions     uint32 = 0x00200000
	FileSupportsHardLinks        uint32 = 0x00400000
	FileSupportsExtendedAttrs    uint32 = 0x00800000
	FileSupportsOpenByFileID     uint32 = 0x01000000
	FileSupportsUSNJournal       uint32 = 0x02000000
	FileSupportsIntegrityStreams uint32 = 0x04000000
)

// SECURITY_INFORMATION bits.
const (
	OwnerSecurityInformation uint32 = 0x00000001
	GroupSecurityInformation uint32 = 0x00000002
	DACLSecurityInformation  uint32 = 0x00000004
	SACLSecurityInformation  uint32 = 0x00000008
)
