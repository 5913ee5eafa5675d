// Package ssh provides a small SSH/SFTP client used by the remote_exec tool.
package ssh

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	"gofer/internal/logging"
)

// Config holds connection parameters for a remote host.
type Config struct {
	Host          string
	Port          int
	User          string
	KeyPath       string
	KeyPassphrase string
	Password      string // fallback if no key works
	Timeout       time.Duration
}

// DefaultConfig returns a Config with the usual defaults filled in.
func DefaultConfig() *Config {
	username := "root"
	home := ""
	if u, err := user.Current(); err == nil {
		username = u.Username
		home = u.HomeDir
	}
	return &Config{
		Port:    22,
		User:    username,
		KeyPath: filepath.Join(home, ".ssh", "id_ed25519"),
		Timeout: 30 * time.Second,
	}
}

// Client is a lazily connecting SSH client. The connection is established on
// first use and reused until it dies.
type Client struct {
	config *Config
	conn   *ssh.Client
	mu     sync.Mutex
}

// NewClient creates a Client for the given config. No connection is made yet.
func NewClient(config *Config) *Client {
	return &Client{config: config}
}

// Connect establishes the SSH connection, reusing a live one if present.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		if _, _, err := c.conn.SendRequest("keepalive@openssh.com", true, nil); err == nil {
			return nil
		}
		c.conn.Close()
		c.conn = nil
	}

	sshConfig, err := c.clientConfig()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", c.config.Host, c.config.Port)
	logging.Info("connecting to remote host", "addr", addr, "user", c.config.User)

	dialer := &net.Dialer{Timeout: c.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, sshConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("SSH handshake failed: %w", err)
	}

	c.conn = ssh.NewClient(sshConn, chans, reqs)
	return nil
}

func (c *Client) clientConfig() (*ssh.ClientConfig, error) {
	var authMethods []ssh.AuthMethod

	if c.config.KeyPath != "" {
		if signer := loadSigner(expandHome(c.config.KeyPath), c.config.KeyPassphrase); signer != nil {
			authMethods = append(authMethods, ssh.PublicKeys(signer))
		}
	}

	// Common key files as fallback.
	if len(authMethods) == 0 {
		for _, name := range []string{"id_ed25519", "id_ecdsa", "id_rsa"} {
			if signer := loadSigner(expandHome(filepath.Join("~/.ssh", name)), ""); signer != nil {
				authMethods = append(authMethods, ssh.PublicKeys(signer))
				break
			}
		}
	}

	if c.config.Password != "" {
		authMethods = append(authMethods, ssh.Password(c.config.Password))
	}

	if len(authMethods) == 0 {
		return nil, fmt.Errorf("no authentication method available")
	}

	return &ssh.ClientConfig{
		User:            c.config.User,
		Auth:            authMethods,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.config.Timeout,
	}, nil
}

func loadSigner(keyPath, passphrase string) ssh.Signer {
	key, err := os.ReadFile(keyPath)
	if err != nil {
		return nil
	}
	var signer ssh.Signer
	if passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(key, []byte(passphrase))
	} else {
		signer, err = ssh.ParsePrivateKey(key)
	}
	if err != nil {
		logging.Warn("failed to parse SSH key", "path", keyPath, "error", err)
		return nil
	}
	return signer
}

// Run executes a command on the remote host and returns its combined output
// and exit code.
func (c *Client) Run(ctx context.Context, command string) (string, int, error) {
	if err := c.Connect(ctx); err != nil {
		return "", -1, err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	session, err := conn.NewSession()
	if err != nil {
		return "", -1, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr strings.Builder
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() {
		done <- session.Run(command)
	}()

	select {
	case <-ctx.Done():
		session.Signal(ssh.SIGKILL)
		return "", -1, ctx.Err()
	case err := <-done:
		output := stdout.String()
		if stderr.Len() > 0 {
			if output != "" {
				output += "\nSTDERR:\n"
			}
			output += stderr.String()
		}

		exitCode := 0
		if err != nil {
			if exitErr, ok := err.(*ssh.ExitError); ok {
				exitCode = exitErr.ExitStatus()
			} else {
				return output, -1, fmt.Errorf("command failed: %w", err)
			}
		}
		return output, exitCode, nil
	}
}

// Upload copies a local file to the remote host via SFTP.
func (c *Client) Upload(ctx context.Context, localPath, remotePath string) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	sftpClient, err := sftp.NewClient(conn)
	if err != nil {
		return fmt.Errorf("failed to create SFTP client: %w", err)
	}
	defer sftpClient.Close()

	localFile, err := os.Open(expandHome(localPath))
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer localFile.Close()

	localInfo, err := localFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat local file: %w", err)
	}

	remoteFile, err := sftpClient.Create(remotePath)
	if err != nil {
		return fmt.Errorf("failed to create remote file: %w", err)
	}
	defer remoteFile.Close()

	if _, err := io.Copy(remoteFile, localFile); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	if err := sftpClient.Chmod(remotePath, localInfo.Mode()); err != nil {
		logging.Warn("failed to set remote file permissions", "error", err)
	}
	return nil
}

// Download copies a remote file to the local host via SFTP.
func (c *Client) Download(ctx context.Context, remotePath, localPath string) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()

	sftpClient, err := sftp.NewClient(conn)
	if err != nil {
		return fmt.Errorf("failed to create SFTP client: %w", err)
	}
	defer sftpClient.Close()

	remoteFile, err := sftpClient.Open(remotePath)
	if err != nil {
		return fmt.Errorf("failed to open remote file: %w", err)
	}
	defer remoteFile.Close()

	localFile, err := os.Create(expandHome(localPath))
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}
	defer localFile.Close()

	if _, err := io.Copy(localFile, remoteFile); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	return nil
}

// Close closes the SSH connection if open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if u, err := user.Current(); err == nil {
			return filepath.Join(u.HomeDir, path[2:])
		}
	}
	return path
}
