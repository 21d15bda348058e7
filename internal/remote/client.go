// Package remote wraps the rclone CLI as the durable storage capability:
// upload a local path to a remote destination, and verify one-way that a
// local path is already present there with matching checksums.
package remote

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"seedkeeper/internal/config"
	"seedkeeper/internal/logging"
	"seedkeeper/internal/services"
)

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec services.Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger attaches a logger for rclone output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client wraps rclone interactions.
type Client struct {
	binary        string
	transfers     int
	statsInterval string
	exec          services.Executor
	logger        *slog.Logger
}

// New constructs an rclone client.
func New(binary string, transfers int, statsInterval string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("rclone binary required")
	}
	if transfers <= 0 {
		transfers = 4
	}
	if strings.TrimSpace(statsInterval) == "" {
		statsInterval = "30s"
	}
	client := &Client{
		binary:        binary,
		transfers:     transfers,
		statsInterval: statsInterval,
		exec:          services.CommandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "rclone")
	return client, nil
}

// NewFromConfig builds a client from the remote section of cfg.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Client, error) {
	return New(cfg.Remote.RcloneBinary, cfg.Remote.Transfers, cfg.Remote.StatsInterval,
		append([]Option{WithLogger(logger)}, opts...)...)
}

// Upload copies src to dest with checksum verification.
func (c *Client) Upload(ctx context.Context, src, dest string) error {
	args := []string{
		"copy", src, dest,
		"--transfers", strconv.Itoa(c.transfers),
		"--checksum",
		"--stats", c.statsInterval,
		"--stats-log-level", "NOTICE",
	}
	logger := logging.WithContext(ctx, c.logger)
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		if line = strings.TrimSpace(line); line != "" {
			logger.Info(line)
		}
	})
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "upload", "rclone copy", src+" -> "+dest, err)
	}
	return nil
}

// ExistsMatching reports whether every file under src is already present at
// dest with a matching checksum. Any failure, including an unreachable remote,
// reads as "not present" so the caller falls back to uploading.
func (c *Client) ExistsMatching(ctx context.Context, src, dest string) bool {
	args := []string{"check", src, dest, "--checksum", "--one-way"}
	logger := logging.WithContext(ctx, c.logger)
	err := c.exec.Run(ctx, c.binary, args, func(line string) {
		if line = strings.TrimSpace(line); line != "" {
			logger.Debug(line)
		}
	})
	return err == nil
}

// Destination joins the remote, the accumulated base path and the item name.
// Directory items pass their name and land in a named child; file items pass
// an empty name and land directly in base.
func Destination(remote, base, name string) string {
	return strings.TrimRight(remote, "/") + "/" + base + name
}
