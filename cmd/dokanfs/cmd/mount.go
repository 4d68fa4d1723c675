package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marmos91/dokanfs/internal/logger"
	"github.com/marmos91/dokanfs/pkg/config"
	"github.com/marmos91/dokanfs/pkg/dokan"
	"github.com/marmos91/dokanfs/pkg/metrics"
	"github.com/spf13/cobra"
)

var (
	backendType string
	mirrorRoot  string
	readOnly    bool
)

var mountCmd = &cobra.Command{
	Use:   "mount [mountpoint]",
	Short: "Mount the configured backend",
	Long: `Mount the configured backend and serve it until interrupted.

The mount point argument overrides mount.mount_point. Ctrl+C or SIGTERM
unmounts the volume, waiting at most server.shutdown_timeout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		applyMountFlags(cfg, args)
		if err := config.Validate(cfg); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}

		closeLog, err := configureLogging(cfg.Logging)
		if err != nil {
			return err
		}
		defer closeLog()

		return runMount(cmd.Context(), cfg)
	},
}

func init() {
	mountCmd.Flags().StringVarP(&backendType, "backend", "b", "", "override backend.type (memory, mirror, badger, s3)")
	mountCmd.Flags().StringVar(&mirrorRoot, "root", "", "directory to expose with the mirror backend")
	mountCmd.Flags().BoolVar(&readOnly, "read-only", false, "mount the volume write protected")
}

// applyMountFlags layers command line overrides on top of the loaded config.
func applyMountFlags(cfg *config.Config, args []string) {
	if len(args) == 1 {
		cfg.Mount.MountPoint = args[0]
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if backendType != "" {
		cfg.Backend.Type = backendType
	}
	if mirrorRoot != "" {
		if backendType == "" {
			cfg.Backend.Type = "mirror"
		}
		cfg.Backend.Mirror["root"] = mirrorRoot
	}
	if readOnly {
		cfg.Mount.Flags.WriteProtect = true
	}
}

// configureLogging applies the logging section and returns a function that
// closes the log file, if one was opened.
func configureLogging(cfg config.LoggingConfig) (func(), error) {
	logger.SetLevel(cfg.Level)
	logger.SetFormat(cfg.Format)

	switch cfg.Output {
	case "stdout":
		logger.SetOutput(os.Stdout)
	case "stderr":
		logger.SetOutput(os.Stderr)
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		logger.SetOutput(f)
		return func() {
			logger.SetOutput(os.Stderr)
			_ = f.Close()
		}, nil
	}
	return func() {}, nil
}

func runMount(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := config.InitializeMetrics(cfg)
	if m.Server != nil {
		go func() {
			if err := m.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	fs, closeBackend, err := config.CreateFileSystem(ctx, &cfg.Backend, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeBackend(); err != nil {
			logger.Error("Failed to close %s backend: %v", cfg.Backend.Type, err)
		}
	}()

	opts, err := config.MountOptions(cfg, m)
	if err != nil {
		return err
	}

	logger.Info("Mount configuration:")
	logger.Info("  Mount point: %s", opts.MountPoint)
	logger.Info("  Backend: %s", cfg.Backend.Type)
	logger.Info("  Timeout: %v", opts.Timeout)
	logger.Info("  Direct I/O: %v", !opts.DisableDirectIO)
	if opts.ThreadCount > 0 {
		logger.Info("  Threads: %d", opts.ThreadCount)
	} else {
		logger.Info("  Threads: driver default")
	}

	// Interrupts during the mount handshake cancel it
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	mountCtx, stopMount := context.WithCancel(ctx)
	go func() {
		select {
		case <-sigChan:
			stopMount()
		case <-mountCtx.Done():
		}
	}()
	inst, err := dokan.Mount(mountCtx, fs, opts)
	stopMount()
	if err != nil {
		return fmt.Errorf("failed to mount %s: %w", opts.MountPoint, err)
	}

	logger.Info("Volume is mounted at %s. Press Ctrl+C to unmount.", inst.MountPoint())

	unregister := metrics.RegisterMount(metrics.MountStatus{
		MountPoint:  inst.MountPoint(),
		Backend:     cfg.Backend.Type,
		OpenHandles: inst.OpenHandles,
		IdleBuffers: opts.BufferPool.Idle,
	})
	defer unregister()

	select {
	case sig := <-sigChan:
		logger.Info("Got %s signal, unmounting %s...", sig, inst.MountPoint())
		return unmount(inst, cfg.Server.ShutdownTimeout)

	case <-inst.Done():
		if err := inst.Wait(); err != nil {
			return err
		}
		logger.Info("Volume unmounted externally")
		return nil
	}
}

// unmount removes the mount point and waits for the driver to let go of the
// volume, giving up after timeout.
func unmount(inst *dokan.Instance, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- inst.Unmount()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("unmount failed: %w", err)
		}
		logger.Info("Volume unmounted gracefully")
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("unmount of %s did not finish within %v (%d handles open)",
			inst.MountPoint(), timeout, inst.OpenHandles())
	}
}

var unmountCmd = &cobra.Command{
	Use:   "unmount <mountpoint>",
	Short: "Remove a Dokan mount point",
	Long: `Remove a Dokan mount point, including one left behind by a process
that exited without unmounting.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := dokan.RemoveMountPoint(args[0]); err != nil {
			return err
		}
		fmt.Printf("Unmounted %s\n", args[0])
		return nil
	},
}
