package driver

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/record"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/stream"
)

// ErrNameBudget is returned when RecordNameLenMax cannot hold the record
// prefix and a capability suffix.
var ErrNameBudget = record.ErrNameBudget

// Config configures a Driver.
type Config struct {
	// PortName names the parameter port records are bound to.
	PortName string `yaml:"portName"`

	// YAMLDoc is the register-tree description file.
	YAMLDoc string `yaml:"yamlDoc"`

	// Root is the sub-path traversal starts from. Empty means the tree root.
	Root string `yaml:"root"`

	// IPAddr overrides the target address of the description. A dotted
	// IPv4 address or mdns:<instance>.
	IPAddr string `yaml:"ipAddr"`

	// RecordPrefix is prepended to every record name with a colon.
	RecordPrefix string `yaml:"recordPrefix"`

	// RecordNameLenMax bounds the full record name, prefix included.
	RecordNameLenMax int `yaml:"recordNameLenMax"`

	// DictFile and TopDictFile are the general and top substitution
	// dictionaries. Without a top dictionary the built-in one applies.
	DictFile    string `yaml:"dictFile"`
	TopDictFile string `yaml:"topDictFile"`

	// RecordDictFile, when set, binds records from an explicit
	// <path> <name> list instead of traversing the tree.
	RecordDictFile string `yaml:"recordDictFile"`

	// DiagDir receives the register map, record list and dictionary
	// misses. Empty disables the files.
	DiagDir string `yaml:"diagDir"`

	// EventLog is the CBOR diagnostic event file. Empty disables it.
	EventLog string `yaml:"eventLog"`

	MaxMenu       int `yaml:"maxMenu"`
	DescLenMax    int `yaml:"descLenMax"`
	StreamMaxSize int `yaml:"streamMaxSize"`

	// Logger receives progress and debug output. Nil disables logging.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultConfig returns a Config with default limits.
func DefaultConfig() Config {
	return Config{
		PortName:         "ATCA",
		RecordNameLenMax: record.DefaultNameLenMax,
		MaxMenu:          record.DefaultMaxMenu,
		DescLenMax:       record.DefaultDescLenMax,
		StreamMaxSize:    stream.DefaultMaxSize,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.PortName == "" {
		return errors.New("portName is required")
	}
	if c.RecordPrefix == "" {
		return errors.New("recordPrefix is required")
	}
	if c.StreamMaxSize < stream.HeaderSize+stream.FooterSize {
		return fmt.Errorf("streamMaxSize %d below frame overhead", c.StreamMaxSize)
	}
	return c.builderConfig().Validate()
}

func (c Config) builderConfig() record.Config {
	return record.Config{
		Prefix:     c.RecordPrefix,
		NameLenMax: c.RecordNameLenMax,
		MaxMenu:    c.MaxMenu,
		DescLenMax: c.DescLenMax,
		Logger:     c.Logger,
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}
	return config, nil
}
