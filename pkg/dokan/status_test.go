package dokan

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestToStatus(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here")

	tests := []struct {
		name string
		err  error
		want NtStatus
	}{
		{"nil", nil, StatusSuccess},
		{"status", StatusDiskFull, StatusDiskFull},
		{"wrapped status", fmt.Errorf("write: %w", StatusDiskFull), StatusDiskFull},
		{"os not exist", statErr, StatusObjectNameNotFound},
		{"exist", fs.ErrExist, StatusObjectNameCollision},
		{"permission", errors.Wrap(fs.ErrPermission, "open"), StatusAccessDenied},
		{"closed", fs.ErrClosed, StatusFileClosed},
		{"eof", io.EOF, StatusEndOfFile},
		{"deadline", context.DeadlineExceeded, StatusIoTimeout},
		{"canceled", context.Canceled, StatusCancelled},
		{"other", errors.New("?"), StatusUnsuccessful},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToStatus(tt.err))
		})
	}
}

func TestNtStatus(t *testing.T) {
	assert.True(t, StatusSuccess.IsSuccess())
	assert.False(t, StatusBufferOverflow.IsSuccess())
	assert.False(t, StatusAccessDenied.IsSuccess())
	assert.Equal(t, "STATUS_ACCESS_DENIED", StatusAccessDenied.String())
	assert.Equal(t, "STATUS_0x12345678", NtStatus(0x12345678).String())
	assert.Contains(t, StatusNoSuchFile.Error(), "NO_SUCH_FILE")
}
