package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/marmos91/dokanfs/internal/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes metrics and mount status over HTTP.
//
// Endpoints:
//   - GET /metrics: Prometheus exposition (503 when metrics are disabled)
//   - GET /mounts: registered volumes as JSON
//   - GET /: index page listing the mounted volumes
type Server struct {
	server       *http.Server
	port         int
	shutdownOnce sync.Once
}

// ServerConfig configures the metrics HTTP server.
type ServerConfig struct {
	// Port to listen on. Default: 9090
	Port int
}

func (c *ServerConfig) applyDefaults() {
	if c.Port <= 0 {
		c.Port = 9090
	}
}

// mountView is the rendered form of a MountStatus.
type mountView struct {
	MountPoint  string    `json:"mount_point"`
	Backend     string    `json:"backend"`
	MountedAt   time.Time `json:"mounted_at"`
	Uptime      string    `json:"uptime"`
	OpenHandles int       `json:"open_handles"`
	IdleBuffers int       `json:"idle_buffers"`
}

func mountViews(now time.Time) []mountView {
	statuses := Mounts()
	views := make([]mountView, 0, len(statuses))
	for _, m := range statuses {
		v := mountView{
			MountPoint: m.MountPoint,
			Backend:    m.Backend,
			MountedAt:  m.MountedAt,
			Uptime:     now.Sub(m.MountedAt).Truncate(time.Second).String(),
		}
		if m.OpenHandles != nil {
			v.OpenHandles = m.OpenHandles()
		}
		if m.IdleBuffers != nil {
			v.IdleBuffers = m.IdleBuffers()
		}
		views = append(views, v)
	}
	return views
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>dokanfs</title>
    <style>
        body { font-family: sans-serif; max-width: 900px; margin: 50px auto; padding: 20px; }
        table { border-collapse: collapse; width: 100%; }
        th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #ddd; }
        .info { background: #f0f0f0; padding: 15px; border-radius: 5px; margin: 20px 0; }
    </style>
</head>
<body>
    <h1>dokanfs</h1>
    <div class="info">
        <p><strong>Metrics:</strong> <a href="/metrics">/metrics</a>{{if not .Enabled}} (collection disabled){{end}}</p>
        <p><strong>Mounts:</strong> <a href="/mounts">/mounts</a></p>
    </div>
    <h2>Mounted volumes</h2>
    {{if .Mounts}}
    <table>
        <tr><th>Mount point</th><th>Backend</th><th>Uptime</th><th>Open handles</th><th>Idle buffers</th></tr>
        {{range .Mounts}}
        <tr><td>{{.MountPoint}}</td><td>{{.Backend}}</td><td>{{.Uptime}}</td><td>{{.OpenHandles}}</td><td>{{.IdleBuffers}}</td></tr>
        {{end}}
    </table>
    {{else}}
    <p>No volume is mounted.</p>
    {{end}}
</body>
</html>
`))

// NewServer creates a metrics HTTP server in a stopped state. Call Start or
// Serve to begin serving requests.
func NewServer(config ServerConfig) *Server {
	config.applyDefaults()

	mux := http.NewServeMux()

	if registry := GetRegistry(); registry != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		}))
		logger.Debug("Metrics endpoint registered at /metrics")
	} else {
		mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/plain")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = fmt.Fprintf(w, "Metrics collection is disabled\n")
		})
		logger.Debug("Metrics collection disabled")
	}

	mux.HandleFunc("/mounts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(mountViews(time.Now())); err != nil {
			logger.Debug("Failed to write /mounts response: %v", err)
		}
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		err := indexTemplate.Execute(w, struct {
			Enabled bool
			Mounts  []mountView
		}{IsEnabled(), mountViews(time.Now())})
		if err != nil {
			logger.Debug("Failed to render index page: %v", err)
		}
	})

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", config.Port),
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		port: config.Port,
	}
}

// Start listens on the configured port and serves until ctx is cancelled,
// then shuts down gracefully. A listen failure is returned right away.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("Metrics server listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Metrics server shutdown signal received")
		// ctx is already done; shutdown gets its own deadline
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("metrics server failed: %w", err)
	}
}

// Stop gracefully shuts the server down. Safe to call more than once.
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("metrics server shutdown error: %w", err)
			logger.Error("Metrics server shutdown error: %v", err)
		} else {
			logger.Info("Metrics server stopped gracefully")
		}
	})
	return shutdownErr
}

// Handler returns the server's request multiplexer.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Port returns the configured TCP port.
func (s *Server) Port() int {
	return s.port
}
