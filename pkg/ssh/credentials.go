package ssh

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/monshunter/ohmydeploy/pkg/envar"
	"github.com/monshunter/ohmydeploy/pkg/errdefs"
	"github.com/monshunter/ohmydeploy/pkg/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"
)

// CredentialProvider supplies secrets when authentication needs them
type CredentialProvider interface {
	Password(user, address string) (string, error)
	Passphrase(keyFile string) (string, error)
}

// TerminalCredentials prompts on the controlling terminal without echo
type TerminalCredentials struct {
	In  *os.File
	Out io.Writer
}

// NewTerminalCredentials prompts on stderr and reads from stdin
func NewTerminalCredentials() *TerminalCredentials {
	return &TerminalCredentials{In: os.Stdin, Out: os.Stderr}
}

func (t *TerminalCredentials) Password(user, address string) (string, error) {
	return t.prompt(fmt.Sprintf("Password for %s@%s: ", user, address))
}

func (t *TerminalCredentials) Passphrase(keyFile string) (string, error) {
	return t.prompt(fmt.Sprintf("Key password for %s: ", keyFile))
}

func (t *TerminalCredentials) prompt(prompt string) (string, error) {
	fmt.Fprint(t.Out, prompt)
	secret, err := term.ReadPassword(int(t.In.Fd()))
	fmt.Fprintln(t.Out)
	if err != nil {
		return "", fmt.Errorf("read from terminal: %w", err)
	}
	return string(secret), nil
}

// StaticCredentials returns fixed secrets
type StaticCredentials struct {
	Secret        string
	KeyPassphrase string
}

func (s StaticCredentials) Password(string, string) (string, error) {
	return s.Secret, nil
}

func (s StaticCredentials) Passphrase(string) (string, error) {
	return s.KeyPassphrase, nil
}

// envCredentials prefers OHMYDEPLOY_PASSWORD and OHMYDEPLOY_KEY_PASSPHRASE over the fallback
type envCredentials struct {
	fallback CredentialProvider
}

// WithEnvCredentials consults the environment before asking fallback
func WithEnvCredentials(fallback CredentialProvider) CredentialProvider {
	return envCredentials{fallback: fallback}
}

func (e envCredentials) Password(user, address string) (string, error) {
	if password, ok := envar.Password(); ok {
		return password, nil
	}
	return e.fallback.Password(user, address)
}

func (e envCredentials) Passphrase(keyFile string) (string, error) {
	if passphrase, ok := envar.KeyPassphrase(); ok {
		return passphrase, nil
	}
	return e.fallback.Passphrase(keyFile)
}

// PublicKeyPath derives the public key path from a private key path by
// replacing its extension with ".pub"
func PublicKeyPath(keyFile string) string {
	return strings.TrimSuffix(keyFile, filepath.Ext(keyFile)) + ".pub"
}

// loadSigner parses the private key, asking for a passphrase only when the key is encrypted.
// When the matching public key file exists it must describe the same key.
func loadSigner(keyFile string, creds CredentialProvider) (ssh.Signer, error) {
	pemBytes, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("%w: read private key: %w", errdefs.ErrConfiguration, err)
	}

	signer, err := ssh.ParsePrivateKey(pemBytes)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) {
		passphrase, perr := creds.Passphrase(keyFile)
		if perr != nil {
			return nil, fmt.Errorf("%w: read key passphrase: %w", errdefs.ErrAuthentication, perr)
		}
		signer, err = ssh.ParsePrivateKeyWithPassphrase(pemBytes, []byte(passphrase))
		if err != nil {
			return nil, fmt.Errorf("%w: decrypt private key %s: %w", errdefs.ErrAuthentication, keyFile, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: parse private key %s: %w", errdefs.ErrConfiguration, keyFile, err)
	}

	pubFile := PublicKeyPath(keyFile)
	pubBytes, err := os.ReadFile(pubFile)
	if err != nil {
		log.Debugf("No public key at %s, using the one derived from %s", pubFile, keyFile)
		return signer, nil
	}
	pub, _, _, _, err := ssh.ParseAuthorizedKey(pubBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: parse public key %s: %w", errdefs.ErrConfiguration, pubFile, err)
	}
	if !bytes.Equal(pub.Marshal(), signer.PublicKey().Marshal()) {
		return nil, fmt.Errorf("%w: public key %s does not match private key %s", errdefs.ErrConfiguration, pubFile, keyFile)
	}
	return signer, nil
}
