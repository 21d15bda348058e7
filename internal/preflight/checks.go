package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"seedkeeper/internal/config"
	"seedkeeper/internal/deps"
	"seedkeeper/internal/services"
	"seedkeeper/internal/tracker"
)

const trackerCheckTimeout = 5 * time.Second

// CheckTracker verifies that the qBittorrent WebUI API answers /app/version.
func CheckTracker(ctx context.Context, cfg *config.Config, opts ...tracker.Option) Result {
	const name = "qBittorrent API"

	if cfg.Tracker.URL == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, trackerCheckTimeout)
	defer cancel()

	client := tracker.NewFromConfig(cfg, nil, opts...)
	version, err := client.Version(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeTrackerError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (qBittorrent %s)", client.BaseURL(), version)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external tools the upload pass shells out to,
// plus the configured rclone remote.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, executor services.Executor) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "rclone",
			Command:     cfg.Remote.RcloneBinary,
			Description: "Required for uploads and checksum checks",
		},
		{
			Name:        "unar",
			Command:     cfg.Archive.UnarBinary,
			Description: "Required to extract rar archives (zip is handled in-process)",
			Optional:    true,
		},
	}
	results := deps.CheckBinaries(requirements)
	if results[0].Available && cfg.Remote.Destination != "" {
		if executor == nil {
			executor = services.CommandExecutor{}
		}
		results = append(results, deps.CheckRcloneRemote(ctx, executor, cfg.Remote.RcloneBinary, cfg.Remote.Destination))
	}
	return results
}

func summarizeTrackerError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "version check timed out (WebUI unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "version check timed out (WebUI unreachable)"
	}
	return err.Error()
}
