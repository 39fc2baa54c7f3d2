package ssh

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/interfaces"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

const defaultPort = "22"

// Config describes how to reach and log in to the remote host
type Config struct {
	// Address is host or host:port, port 22 is assumed when missing
	Address string
	User    string
	// KeyFile is the private key path; password authentication is used when empty
	KeyFile string
	// KnownHostsFile enables host key verification; any host key is accepted when empty
	KnownHostsFile string
	// Timeout bounds dialing and the handshake only
	Timeout time.Duration
	// IgnoreExitStatus treats every command that closes its channel as successful
	IgnoreExitStatus bool
}

// Client owns the single SSH connection of a deployment run
type Client struct {
	addr             string
	user             string
	ignoreExitStatus bool
	client           *ssh.Client
}

var _ interfaces.RemoteSession = (*Client)(nil)

// Connect dials the remote host, performs the handshake and authenticates.
// Rejected credentials yield errdefs.ErrAuthentication, connection and
// handshake failures errdefs.ErrTransport.
func Connect(cfg Config, creds CredentialProvider) (*Client, error) {
	addr := NormalizeAddress(cfg.Address)
	var credErr error
	auth, err := authMethods(cfg, addr, creds, &credErr)
	if err != nil {
		return nil, err
	}
	hostKeyCallback, err := hostKeyCallback(cfg.KnownHostsFile)
	if err != nil {
		return nil, err
	}

	clientConfig := &ssh.ClientConfig{
		User:            cfg.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         cfg.Timeout,
	}

	conn, err := net.DialTimeout("tcp", addr, cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %w", errdefs.ErrTransport, addr, err)
	}
	if cfg.Timeout > 0 {
		conn.SetDeadline(time.Now().Add(cfg.Timeout))
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, addr, clientConfig)
	if err != nil {
		conn.Close()
		if credErr != nil {
			return nil, fmt.Errorf("%w: read password for %s@%s: %w", errdefs.ErrAuthentication, cfg.User, addr, credErr)
		}
		if isAuthFailure(err) {
			return nil, fmt.Errorf("%w: login failed for user %s: %w", errdefs.ErrAuthentication, cfg.User, err)
		}
		return nil, fmt.Errorf("%w: handshake with %s: %w", errdefs.ErrTransport, addr, err)
	}
	// commands and uploads run without a deadline
	conn.SetDeadline(time.Time{})

	log.Infof("Connected to %s as %s", addr, cfg.User)
	return &Client{
		addr:             addr,
		user:             cfg.User,
		ignoreExitStatus: cfg.IgnoreExitStatus,
		client:           ssh.NewClient(sshConn, chans, reqs),
	}, nil
}

// NormalizeAddress appends the default SSH port when address has none
func NormalizeAddress(address string) string {
	if _, _, err := net.SplitHostPort(address); err == nil {
		return address
	}
	return net.JoinHostPort(strings.Trim(address, "[]"), defaultPort)
}

func isAuthFailure(err error) bool {
	return strings.Contains(err.Error(), "unable to authenticate")
}

func hostKeyCallback(knownHostsFile string) (ssh.HostKeyCallback, error) {
	if knownHostsFile == "" {
		log.Debugf("Host key verification disabled")
		return ssh.InsecureIgnoreHostKey(), nil
	}
	callback, err := knownhosts.New(knownHostsFile)
	if err != nil {
		return nil, fmt.Errorf("%w: load known hosts %s: %w", errdefs.ErrConfiguration, knownHostsFile, err)
	}
	return callback, nil
}

// authMethods builds the key or password method. A failure of the password
// prompt is stored in credErr since the handshake reports it without its cause.
func authMethods(cfg Config, addr string, creds CredentialProvider, credErr *error) ([]ssh.AuthMethod, error) {
	if cfg.KeyFile != "" {
		signer, err := loadSigner(cfg.KeyFile, creds)
		if err != nil {
			return nil, err
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	}
	return []ssh.AuthMethod{ssh.PasswordCallback(func() (string, error) {
		password, err := creds.Password(cfg.User, addr)
		if err != nil {
			*credErr = err
			return "", err
		}
		return strings.TrimSpace(password), nil
	})}, nil
}

// Address returns the host:port the client is connected to
func (c *Client) Address() string {
	return c.addr
}

// Close closes the SSH connection
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// Execute runs command in a fresh session and returns its standard output.
// A non-zero exit status is an errdefs.ErrTransfer unless the client ignores exit statuses.
func (c *Client) Execute(command string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("%w: not connected", errdefs.ErrTransport)
	}
	log.Infof("> %s", command)

	session, err := c.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("%w: open session: %w", errdefs.ErrTransport, err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr
	err = session.Run(command)
	output := stdout.String()
	if output != "" {
		log.Debugf("%s", strings.TrimRight(output, "\n"))
	}
	if err == nil {
		return output, nil
	}

	var exitErr *ssh.ExitError
	var missingErr *ssh.ExitMissingError
	switch {
	case errors.As(err, &exitErr):
		if c.ignoreExitStatus {
			log.Debugf("Ignoring exit status %d of %q", exitErr.ExitStatus(), command)
			return output, nil
		}
		return output, fmt.Errorf("%w: %q exited with status %d: %s",
			errdefs.ErrTransfer, command, exitErr.ExitStatus(), strings.TrimSpace(stderr.String()))
	case errors.As(err, &missingErr) && c.ignoreExitStatus:
		return output, nil
	default:
		return output, fmt.Errorf("%w: run %q: %w", errdefs.ErrTransport, command, err)
	}
}
