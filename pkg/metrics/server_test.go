package metrics

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_ScrapesMountSeries(t *testing.T) {
	InitRegistry()
	unregister := RegisterMount(MountStatus{
		MountPoint:  `T:\`,
		Backend:     "memory",
		OpenHandles: func() int { return 3 },
		IdleBuffers: func() int { return 2 },
	})
	defer unregister()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(ServerConfig{})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()

	status, body := get(t, base+"/metrics")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "dokanfs_mount_info")
	assert.Contains(t, body, `backend="memory"`)
	assert.Contains(t, body, "dokanfs_process_")

	status, body = get(t, base+"/")
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `T:\`)
	assert.Contains(t, body, "<td>3</td>")
	assert.Contains(t, body, "<td>2</td>")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServer_MountsJSON(t *testing.T) {
	unregister := RegisterMount(MountStatus{MountPoint: `J:\`, Backend: "badger"})
	defer unregister()

	srv := httptest.NewServer(NewServer(ServerConfig{}).Handler())
	defer srv.Close()

	status, body := get(t, srv.URL+"/mounts")
	require.Equal(t, http.StatusOK, status)

	var views []mountView
	require.NoError(t, json.Unmarshal([]byte(body), &views))

	var found *mountView
	for i := range views {
		if views[i].MountPoint == `J:\` {
			found = &views[i]
		}
	}
	require.NotNil(t, found, "mount missing from %s", body)
	assert.Equal(t, "badger", found.Backend)
	assert.Zero(t, found.OpenHandles, "nil callback reads as zero")
}

func TestServer_UnknownPath(t *testing.T) {
	srv := httptest.NewServer(NewServer(ServerConfig{}).Handler())
	defer srv.Close()

	status, _ := get(t, srv.URL+"/nope")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRegisterMount_Unregister(t *testing.T) {
	InitRegistry()

	unregister := RegisterMount(MountStatus{MountPoint: `U:\`, Backend: "mirror"})
	assert.Equal(t, 1.0, testutil.ToFloat64(mountInfo.WithLabelValues(`U:\`, "mirror")))

	unregister()
	unregister()

	for _, m := range Mounts() {
		assert.NotEqual(t, `U:\`, m.MountPoint)
	}
	assert.False(t, mountInfo.DeleteLabelValues(`U:\`, "mirror"), "series should already be gone")
}

func TestRegisterMount_ReplaceKeepsNewer(t *testing.T) {
	first := RegisterMount(MountStatus{MountPoint: `R:\`, Backend: "memory", MountedAt: time.Unix(100, 0)})
	second := RegisterMount(MountStatus{MountPoint: `R:\`, Backend: "s3", MountedAt: time.Unix(200, 0)})
	defer second()

	first()

	var backend string
	for _, m := range Mounts() {
		if m.MountPoint == `R:\` {
			backend = m.Backend
		}
	}
	assert.Equal(t, "s3", backend, "stale unregister must not remove the newer mount")
}
