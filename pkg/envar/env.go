package envar

import "os"

const (
	// OHMYDEPLOY_PASSWORD supplies the SSH login password without prompting
	OHMYDEPLOY_PASSWORD = "OHMYDEPLOY_PASSWORD"
	// OHMYDEPLOY_KEY_PASSPHRASE supplies the private key passphrase without prompting
	OHMYDEPLOY_KEY_PASSPHRASE = "OHMYDEPLOY_KEY_PASSPHRASE"
	// OHMYDEPLOY_CONFIG overrides the default config file name
	OHMYDEPLOY_CONFIG = "OHMYDEPLOY_CONFIG"
)

// DefaultConfigFile is read when present and no --config flag is given
const DefaultConfigFile = "ohmydeploy.yaml"

func Password() (string, bool) {
	return os.LookupEnv(OHMYDEPLOY_PASSWORD)
}

func KeyPassphrase() (string, bool) {
	return os.LookupEnv(OHMYDEPLOY_KEY_PASSPHRASE)
}

func ConfigFile() string {
	if file := os.Getenv(OHMYDEPLOY_CONFIG); file != "" {
		return file
	}
	return DefaultConfigFile
}
