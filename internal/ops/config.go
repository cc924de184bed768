package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"main/internal/exec"
	"main/internal/keyring"
	"main/internal/risk"
	"main/internal/schema"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Registry RegistryConfig `json:"registry"`
	Risk     risk.Config    `json:"risk"`
	Exec     exec.Config    `json:"exec"`
	Keys     KeysConfig     `json:"keys"`
	Audit    AuditConfig    `json:"audit"`
	Boundary BoundaryConfig `json:"boundary"`
}

// RegistryConfig defines the known symbols.
type RegistryConfig struct {
	Symbols []SymbolConfig `json:"symbols"`
}

// SymbolConfig describes a symbol entry.
type SymbolConfig struct {
	Name  string           `json:"name"`
	Scale schema.ScaleSpec `json:"scale"`
}

// KeysConfig selects and seeds the key provider.
type KeysConfig struct {
	// Provider is "memory" (default) or "vault".
	Provider string              `json:"provider"`
	Vault    keyring.VaultConfig `json:"vault"`
	// Preload derives deterministic keys into the provider at startup.
	Preload []PreloadKey `json:"preload"`
}

// PreloadKey names a key to derive from a seed at startup.
type PreloadKey struct {
	ID   string `json:"id"`
	Seed uint64 `json:"seed"`
}

// AuditConfig wires the optional Postgres audit trail.
type AuditConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	QueueCap int    `json:"queueCap"`
}

// BoundaryConfig selects the execution boundary transport.
type BoundaryConfig struct {
	// SocketPath selects the UDS transport; empty means loopback.
	SocketPath string `json:"socketPath"`
	// Embedded runs an accept-all boundary server in-process, for demo
	// and bench runs against the socket path.
	Embedded bool `json:"embedded"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Registry *schema.Registry
	Risk     risk.Config
	Exec     exec.Config
	Keys     KeysConfig
	Audit    AuditConfig
	Boundary BoundaryConfig
}

// Default returns the configuration used when no file is given.
func Default() FileConfig {
	return FileConfig{
		Registry: RegistryConfig{
			Symbols: []SymbolConfig{
				{Name: "BTC-USD", Scale: schema.ScaleSpec{PriceScale: 2, QuantityScale: 8, NotionalScale: 8}},
				{Name: "ETH-USD", Scale: schema.ScaleSpec{PriceScale: 2, QuantityScale: 8, NotionalScale: 8}},
			},
		},
		Exec: exec.Config{
			AckTimeout: 2 * time.Second,
			MaxRetries: 3,
		},
		Keys: KeysConfig{Provider: "memory"},
	}
}

// Load reads a JSON config file and resolves it. An empty path yields the
// defaults.
func Load(path string) (Loaded, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Loaded{}, err
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Loaded{}, err
		}
	}
	return resolve(cfg)
}

func resolve(cfg FileConfig) (Loaded, error) {
	registry, err := buildRegistry(cfg.Registry)
	if err != nil {
		return Loaded{}, err
	}
	if err := validateKeys(cfg.Keys); err != nil {
		return Loaded{}, err
	}
	if cfg.Exec.AckTimeout <= 0 {
		cfg.Exec.AckTimeout = 2 * time.Second
	}
	if cfg.Audit.Enabled && cfg.Audit.Database == "" {
		return Loaded{}, fmt.Errorf("audit enabled without database")
	}
	return Loaded{
		Registry: registry,
		Risk:     cfg.Risk,
		Exec:     cfg.Exec,
		Keys:     cfg.Keys,
		Audit:    cfg.Audit,
		Boundary: cfg.Boundary,
	}, nil
}

func buildRegistry(cfg RegistryConfig) (*schema.Registry, error) {
	reg := schema.NewRegistry()
	for _, sym := range cfg.Symbols {
		if err := validateScale(sym.Scale); err != nil {
			return nil, fmt.Errorf("invalid scale for %s: %w", sym.Name, err)
		}
		if _, err := reg.AddSymbol(sym.Name, sym.Scale); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func validateScale(scale schema.ScaleSpec) error {
	if scale.PriceScale < 0 || scale.QuantityScale < 0 || scale.NotionalScale < 0 {
		return fmt.Errorf("scale must be >= 0")
	}
	return nil
}

func validateKeys(cfg KeysConfig) error {
	switch cfg.Provider {
	case "", "memory":
	case "vault":
		if cfg.Vault.Address == "" {
			return fmt.Errorf("vault provider requires an address")
		}
	default:
		return fmt.Errorf("unknown key provider: %s", cfg.Provider)
	}
	for _, key := range cfg.Preload {
		if key.ID == "" {
			return fmt.Errorf("preload key id is empty")
		}
	}
	return nil
}
