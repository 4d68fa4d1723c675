package config

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/fs/kvfs"
	"github.com/marmos91/dokanfs/pkg/fs/memfs"
	"github.com/marmos91/dokanfs/pkg/fs/mirror"
)

func TestCreateFileSystem_Memory(t *testing.T) {
	cfg := &BackendConfig{
		Type:   "memory",
		Memory: map[string]any{"capacity": 4096, "volume_name": "SCRATCH"},
	}

	fs, closeFn, err := CreateFileSystem(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create memory backend: %v", err)
	}
	defer func() { _ = closeFn() }()

	if _, ok := fs.(*memfs.FS); !ok {
		t.Fatalf("Expected *memfs.FS, got %T", fs)
	}

	h := dokan.NewHarness(fs, dokan.MountOptions{Logger: dokan.NullLogger{}})
	if status := h.Mount(); status != dokan.StatusSuccess {
		t.Fatalf("Mount returned %v", status)
	}
	vol, status := h.VolumeInformation()
	if status != dokan.StatusSuccess {
		t.Fatalf("GetVolumeInformation returned %v", status)
	}
	if vol.Name != "SCRATCH" {
		t.Errorf("Expected volume name 'SCRATCH', got %q", vol.Name)
	}
	space, _ := h.DiskFreeSpace()
	if space.TotalNumberOfBytes != 4096 {
		t.Errorf("Expected capacity 4096 from config, got %d", space.TotalNumberOfBytes)
	}
}

func TestCreateFileSystem_Mirror(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("Failed to seed mirror root: %v", err)
	}

	cfg := &BackendConfig{Type: "mirror", Mirror: map[string]any{"root": root}}

	fs, closeFn, err := CreateFileSystem(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create mirror backend: %v", err)
	}
	defer func() { _ = closeFn() }()

	if _, ok := fs.(*mirror.FS); !ok {
		t.Fatalf("Expected *mirror.FS, got %T", fs)
	}

	h := dokan.NewHarness(fs, dokan.MountOptions{Logger: dokan.NullLogger{}})
	h.Mount()
	hh, status := h.Open(`\hello.txt`, dokan.OpenRequest{
		Access:      dokan.AccessGenericRead,
		Disposition: dokan.OpenExisting,
	})
	if status != dokan.StatusSuccess {
		t.Fatalf("Open returned %v", status)
	}
	defer hh.Close()

	buf := make([]byte, 16)
	n, status := hh.Read(buf, 0)
	if status != dokan.StatusSuccess || string(buf[:n]) != "hello" {
		t.Errorf("Read = %q, %v; want \"hello\", success", buf[:n], status)
	}
}

func TestCreateFileSystem_MirrorMissingRoot(t *testing.T) {
	cfg := &BackendConfig{Type: "mirror", Mirror: map[string]any{}}

	_, _, err := CreateFileSystem(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("Expected error for missing root")
	}
	if !strings.Contains(err.Error(), "required") {
		t.Errorf("Expected 'required' error, got: %v", err)
	}
}

func TestCreateFileSystem_Badger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	cfg := &BackendConfig{Type: "badger", Badger: map[string]any{"path": path}}

	fs, closeFn, err := CreateFileSystem(context.Background(), cfg, InitializeMetrics(GetDefaultConfig()))
	if err != nil {
		t.Fatalf("Failed to create badger backend: %v", err)
	}

	if _, ok := fs.(*kvfs.FS); !ok {
		t.Fatalf("Expected *kvfs.FS, got %T", fs)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected database directory at %s: %v", path, err)
	}
}

func TestCreateFileSystem_BadgerInMemory(t *testing.T) {
	cfg := &BackendConfig{Type: "badger", Badger: map[string]any{"in_memory": true}}

	_, closeFn, err := CreateFileSystem(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("Failed to create in-memory badger backend: %v", err)
	}
	if err := closeFn(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestCreateFileSystem_S3MissingBucket(t *testing.T) {
	cfg := &BackendConfig{Type: "s3", S3: map[string]any{"region": "us-east-1"}}

	_, _, err := CreateFileSystem(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("Expected error for missing bucket")
	}
	if !strings.Contains(err.Error(), "Bucket") {
		t.Errorf("Expected error naming the bucket field, got: %v", err)
	}
}

func TestCreateFileSystem_UnknownType(t *testing.T) {
	cfg := &BackendConfig{Type: "nfs"}

	_, _, err := CreateFileSystem(context.Background(), cfg, nil)
	if err == nil {
		t.Fatal("Expected error for unknown backend type")
	}
	if !strings.Contains(err.Error(), "unknown backend type") {
		t.Errorf("Expected 'unknown backend type' error, got: %v", err)
	}
}

func TestMountOptions(t *testing.T) {
	descriptor := []byte{1, 0, 4, 0x80, 0, 0, 0, 0}

	cfg := GetDefaultConfig()
	cfg.Mount.MountPoint = `C:\mnt\data`
	cfg.Mount.ThreadCount = 4
	cfg.Mount.Flags.Removable = true
	cfg.Mount.Flags.AltStream = true
	cfg.Mount.VolumeSecurityDescriptor = base64.StdEncoding.EncodeToString(descriptor)
	disabled := false
	cfg.Dispatcher.DirectIO = &disabled

	m := InitializeMetrics(cfg)
	opts, err := MountOptions(cfg, m)
	if err != nil {
		t.Fatalf("MountOptions failed: %v", err)
	}

	if opts.MountPoint != `C:\mnt\data` {
		t.Errorf("Expected mount point to be carried over, got %q", opts.MountPoint)
	}
	if opts.ThreadCount != 4 {
		t.Errorf("Expected thread count 4, got %d", opts.ThreadCount)
	}
	if opts.Flags != dokan.FlagRemovable|dokan.FlagAltStream {
		t.Errorf("Expected removable|alt_stream flags, got %#x", opts.Flags)
	}
	if opts.Timeout != dokan.DefaultTimeout {
		t.Errorf("Expected default timeout, got %v", opts.Timeout)
	}
	if !bytes.Equal(opts.VolumeSecurityDescriptor, descriptor) {
		t.Errorf("Expected decoded descriptor %v, got %v", descriptor, opts.VolumeSecurityDescriptor)
	}
	if !opts.DisableDirectIO {
		t.Error("Expected direct I/O disabled")
	}
	if opts.BufferPool == nil {
		t.Error("Expected a buffer pool for the mount")
	}
	if opts.Metrics != m.DokanMetrics {
		t.Error("Expected the dispatcher collector from InitializeMetrics")
	}
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	m := InitializeMetrics(GetDefaultConfig())

	if m.Server != nil {
		t.Error("Expected no metrics server when disabled")
	}
	if m.DokanMetrics == nil || m.StoreMetrics == nil || m.S3Metrics == nil {
		t.Error("Expected no-op collectors when disabled")
	}
}
