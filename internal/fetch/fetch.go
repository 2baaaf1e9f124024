package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"github.com/tlanger/edgebackup/internal/models"
)

const (
	// archivePath is where EdgeOS writes the generated configuration
	// archive on the device.
	archivePath = "/config/config.boot.tar.gz"

	archiveCommand = "tar -czf " + archivePath + " -C / config"
	showCommand    = "show configuration commands"
)

// FetchError wraps any failure while retrieving a snapshot from the device,
// whether transport, authentication, or remote command execution.
type FetchError struct {
	Host string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch from %s failed: %v", e.Host, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Config holds the device connection parameters.
type Config struct {
	Host    string
	Port    int
	User    string
	KeyPath string
	Timeout time.Duration
}

// Client retrieves configuration snapshots from an EdgeRouter over SSH.
type Client struct {
	cfg Config
	log *slog.Logger
}

// New returns a client for the given device.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Port == 0 {
		cfg.Port = 22
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{cfg: cfg, log: logger}
}

// Fetch connects to the device, generates the archive form, downloads it
// via SFTP and captures the plain-text configuration. The returned snapshot
// is stamped with the capture time. Any failure is reported as a FetchError.
func (c *Client) Fetch(ctx context.Context) (*models.Snapshot, error) {
	snap, err := c.fetch(ctx)
	if err != nil {
		return nil, &FetchError{Host: c.cfg.Host, Err: err}
	}
	return snap, nil
}

func (c *Client) fetch(ctx context.Context) (*models.Snapshot, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	c.log.Info("ssh connection established", "host", c.cfg.Host)

	archive, err := c.fetchArchive(conn)
	if err != nil {
		return nil, err
	}
	c.log.Info("configuration archive retrieved", "bytes", len(archive))

	text, err := c.fetchText(conn)
	if err != nil {
		return nil, err
	}
	c.log.Info("text configuration retrieved", "bytes", len(text))

	return &models.Snapshot{
		ArchiveBytes: archive,
		TextBytes:    text,
		CapturedAt:   time.Now(),
	}, nil
}

func (c *Client) dial(ctx context.Context) (*ssh.Client, error) {
	key, err := os.ReadFile(c.cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ssh key %s: %w", c.cfg.KeyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ssh key: %w", err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            c.cfg.User,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.cfg.Timeout,
	}

	addr := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
	dialer := net.Dialer{Timeout: c.cfg.Timeout}
	raw, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(raw, addr, sshCfg)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("ssh handshake with %s failed: %w", addr, err)
	}
	return ssh.NewClient(sshConn, chans, reqs), nil
}

func (c *Client) fetchArchive(conn *ssh.Client) ([]byte, error) {
	session, err := conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer session.Close()
	if err := session.Run(archiveCommand); err != nil {
		return nil, fmt.Errorf("failed to generate archive on device: %w", err)
	}

	sftpc, err := sftp.NewClient(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sftp session: %w", err)
	}
	defer sftpc.Close()

	f, err := sftpc.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s on device: %w", archivePath, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to download archive: %w", err)
	}
	return data, nil
}

func (c *Client) fetchText(conn *ssh.Client) ([]byte, error) {
	session, err := conn.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open ssh session: %w", err)
	}
	defer session.Close()

	output, err := session.Output(showCommand)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration commands: %w", err)
	}
	return output, nil
}
