// Package preferences persists the client's sync settings in a config file
// under the user's config directory.
package preferences

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	keySyncEnabled     = "sync.enabled"
	keyAutoSyncEnabled = "sync.auto"
	keyServerHost      = "sync.server_host"
	keyServerPort      = "sync.server_port"

	defaultServerPort = 3000
)

type Preferences struct {
	v    *viper.Viper
	path string
}

// Load reads preferences from dir/config.yaml, creating the file with
// defaults on first use.
func Load(dir string) (*Preferences, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault(keySyncEnabled, false)
	v.SetDefault(keyAutoSyncEnabled, true)
	v.SetDefault(keyServerHost, "")
	v.SetDefault(keyServerPort, defaultServerPort)

	path := filepath.Join(dir, "config.yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := v.WriteConfigAs(path); err != nil {
			return nil, fmt.Errorf("write default config: %w", err)
		}
	}

	return &Preferences{v: v, path: path}, nil
}

func (p *Preferences) SyncEnabled() bool     { return p.v.GetBool(keySyncEnabled) }
func (p *Preferences) AutoSyncEnabled() bool { return p.v.GetBool(keyAutoSyncEnabled) }
func (p *Preferences) ServerHost() string    { return p.v.GetString(keyServerHost) }
func (p *Preferences) ServerPort() int       { return p.v.GetInt(keyServerPort) }

func (p *Preferences) SetSyncEnabled(enabled bool) error {
	p.v.Set(keySyncEnabled, enabled)
	return p.save()
}

func (p *Preferences) SetAutoSyncEnabled(enabled bool) error {
	p.v.Set(keyAutoSyncEnabled, enabled)
	return p.save()
}

func (p *Preferences) SetServer(host string, port int) error {
	p.v.Set(keyServerHost, host)
	p.v.Set(keyServerPort, port)
	return p.save()
}

// HasValidServerConfig reports whether enough is configured to reach a server.
func (p *Preferences) HasValidServerConfig() bool {
	return p.ServerHost() != "" && p.ServerPort() > 0 && p.ServerPort() <= 65535
}

// ServerBaseURL builds the base URL sync calls are made against.
func (p *Preferences) ServerBaseURL() string {
	return fmt.Sprintf("http://%s:%d", p.ServerHost(), p.ServerPort())
}

func (p *Preferences) save() error {
	if err := p.v.WriteConfigAs(p.path); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}
