// Package config implements the ambient ConfigManager named by
// spec.md §5: a YAML-backed property set, read-mostly, whose reloads
// swap an immutable snapshot atomically so no reader ever observes a
// half-applied config (grounded on the teacher's database.Config
// struct-plus-yaml.v3 pattern in database/database.go).
package config

import (
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/jdbcx/jdbcx-core/errs"
)

// Extension holds one extension's static option defaults, merged as
// the "extensionDefaults" tier of variable.MergeOptions.
type Extension struct {
	Defaults map[string]string `yaml:"defaults"`
}

// Snapshot is one immutable, fully-loaded configuration.
type Snapshot struct {
	Server struct {
		Threads       int    `yaml:"threads"`
		RequestLimit  int    `yaml:"request.limit"`
		RequestTTLMs  int    `yaml:"request.timeout"`
		BindAddress   string `yaml:"bind"`
		RetainMaxByte int64  `yaml:"retain.max.bytes"`
	} `yaml:"server"`

	Acl struct {
		AllowAll      bool     `yaml:"allowAll"`
		AllowedHosts  []string `yaml:"allowedHosts"`
		AllowedIPs    []string `yaml:"allowedIPs"`
		CIDRRanges    []string `yaml:"cidrRanges"`
	} `yaml:"acl"`

	Auth struct {
		BearerToken string `yaml:"bearerToken"`
	} `yaml:"auth"`

	Extensions map[string]Extension `yaml:"extensions"`

	ConnectionProperties map[string]string `yaml:"connectionProperties"`
}

// Manager is the process-wide config holder. Snapshot is read via an
// atomic.Pointer so Get never blocks on a concurrent Reload.
type Manager struct {
	snap atomic.Pointer[Snapshot]
}

// NewManager loads path once and returns a ready Manager. path falls
// back to JDBCX_CONFIG, then JDBCX_HOME/config.yaml, if empty.
func NewManager(path string) (*Manager, error) {
	m := &Manager{}
	if err := m.Reload(path); err != nil {
		return nil, err
	}
	return m, nil
}

func resolvePath(path string) string {
	if path != "" {
		return path
	}
	if env := os.Getenv("JDBCX_CONFIG"); env != "" {
		return env
	}
	if home := os.Getenv("JDBCX_HOME"); home != "" {
		return home + "/config.yaml"
	}
	return "config.yaml"
}

// Reload re-reads path (or the same resolution rule as NewManager when
// path is empty) and atomically swaps the snapshot in. Readers that
// already hold a *Snapshot from Get keep seeing the old one.
func (m *Manager) Reload(path string) error {
	resolved := resolvePath(path)
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return errs.ConfigError(err, "reading config %q", resolved)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(raw, &snap); err != nil {
		return errs.ConfigError(err, "parsing config %q", resolved)
	}
	applyDefaults(&snap)
	m.snap.Store(&snap)
	return nil
}

func applyDefaults(s *Snapshot) {
	if s.Server.RequestLimit == 0 {
		s.Server.RequestLimit = 10000
	}
	if s.Server.RequestTTLMs == 0 {
		s.Server.RequestTTLMs = 10000
	}
	if s.Server.BindAddress == "" {
		s.Server.BindAddress = ":8080"
	}
}

// Get returns the currently active snapshot. Never nil after a
// successful NewManager/Reload.
func (m *Manager) Get() *Snapshot { return m.snap.Load() }

// Marshal renders the current snapshot back to YAML, used by the
// /config admin endpoint and jdbcxd -export-config.
func (m *Manager) Marshal() ([]byte, error) {
	return yaml.Marshal(m.Get())
}

// MarshalRedacted renders the current snapshot with secrets blanked,
// for the /config admin endpoint: unlike -export-config (operator-only,
// full fidelity), this response can reach any authenticated caller.
func (m *Manager) MarshalRedacted() ([]byte, error) {
	snap := *m.Get()
	if snap.Auth.BearerToken != "" {
		snap.Auth.BearerToken = "***"
	}
	return yaml.Marshal(&snap)
}
