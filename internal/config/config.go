package config

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Program   ProgramConfig   `mapstructure:"program"`
	Economics EconomicsConfig `mapstructure:"economics"`
	Lottery   LotteryConfig   `mapstructure:"lottery"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	Solana    SolanaConfig    `mapstructure:"solana"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Database  DatabaseConfig  `mapstructure:"database"`
}

// ProgramConfig identifies the deployed program and how addresses are derived.
type ProgramConfig struct {
	ID            string `mapstructure:"id"`
	AddressScheme string `mapstructure:"address_scheme"` // pda or hash
	TokenDecimals uint8  `mapstructure:"token_decimals"`
	InitialSupply uint64 `mapstructure:"initial_supply"`
}

// EconomicsConfig holds the default tax, burn and pool parameters applied at initialize.
type EconomicsConfig struct {
	BuyTaxBps       uint16 `mapstructure:"buy_tax_bps"`
	SellTaxBps      uint16 `mapstructure:"sell_tax_bps"`
	BankLpBps       uint16 `mapstructure:"bank_lp_bps"`
	LockedLpBps     uint16 `mapstructure:"locked_lp_bps"`
	BootstrapSol    uint64 `mapstructure:"bootstrap_sol"`    // lamports per pool
	BootstrapTokens uint64 `mapstructure:"bootstrap_tokens"` // base units per pool
}

// LotteryConfig holds draw timing parameters.
type LotteryConfig struct {
	// RevealDelaySlots fixes the target slot of a draw at commitSlot + delay.
	RevealDelaySlots   uint64 `mapstructure:"reveal_delay_slots"`
	RevealTimeoutSlots uint64 `mapstructure:"reveal_timeout_slots"`
}

// OracleConfig configures the static price oracle.
type OracleConfig struct {
	TokensPerSol  uint64 `mapstructure:"tokens_per_sol"`
	TokenPriceUSD string `mapstructure:"token_price_usd"`
}

// SolanaConfig holds Solana-specific configuration
type SolanaConfig struct {
	RPC     string `mapstructure:"rpc"`
	Network string `mapstructure:"network"`
	Timeout int    `mapstructure:"timeout"` // in seconds
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// MetricsConfig selects the metrics backend.
type MetricsConfig struct {
	Backend string `mapstructure:"backend"` // none, log or prometheus
	Listen  string `mapstructure:"listen"`
}

// DatabaseConfig selects and configures the optional persistence backend.
type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Type     string         `mapstructure:"type"` // postgres, mongodb or memory
	Postgres PostgresConfig `mapstructure:"postgres"`
	MongoDB  MongoDBConfig  `mapstructure:"mongodb"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"sslmode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // in seconds
}

// MongoDBConfig holds MongoDB connection settings.
type MongoDBConfig struct {
	URI            string `mapstructure:"uri"`
	Database       string `mapstructure:"database"`
	MaxPoolSize    uint64 `mapstructure:"max_pool_size"`
	MinPoolSize    uint64 `mapstructure:"min_pool_size"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // in seconds
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Program: ProgramConfig{
			ID:            "Cmkuew2GUYTjZh8QQnP8NzSq9wAJtoJ64vUViPUkdgUk",
			AddressScheme: "pda",
			TokenDecimals: 9,
			InitialSupply: 10_000_000_000_000_000_000,
		},
		Economics: EconomicsConfig{
			BuyTaxBps:       250,
			SellTaxBps:      250,
			BankLpBps:       1500,
			LockedLpBps:     8500,
			BootstrapSol:    125_000_000_000,
			BootstrapTokens: 500_000_000_000_000_000,
		},
		Lottery: LotteryConfig{
			RevealDelaySlots:   1,
			RevealTimeoutSlots: 150,
		},
		Oracle: OracleConfig{
			TokensPerSol:  1_000_000_000_000_000,
			TokenPriceUSD: "0.0002",
		},
		Solana: SolanaConfig{
			RPC:     "https://api.devnet.solana.com",
			Network: "devnet",
			Timeout: 30,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Backend: "log",
			Listen:  ":9464",
		},
		Database: DatabaseConfig{
			Enabled: false,
			Type:    "postgres",
			Postgres: PostgresConfig{
				Host:            "localhost",
				Port:            5432,
				User:            "postgres",
				Database:        "soflotto",
				SSLMode:         "disable",
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 300,
			},
			MongoDB: MongoDBConfig{
				URI:            "mongodb://localhost:27017",
				Database:       "soflotto",
				MaxPoolSize:    10,
				MinPoolSize:    1,
				ConnectTimeout: 10,
			},
		},
	}
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName(".soflotto")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME")
	}

	// Environment variables
	v.SetEnvPrefix("SOFLOTTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// maxTaxBps mirrors tax.MaxTaxBps; the engine rejects anything higher.
const maxTaxBps = 2500

// maxRevealTimeoutSlots is the blockhash history kept by the ledger. A draw
// must settle while its target slot is still in that history.
const maxRevealTimeoutSlots = 300

// Validate checks cross-field constraints that the engine relies on.
func (c *Config) Validate() error {
	if uint32(c.Economics.BankLpBps)+uint32(c.Economics.LockedLpBps) != 10000 {
		return fmt.Errorf("economics: bank_lp_bps + locked_lp_bps must equal 10000, got %d",
			uint32(c.Economics.BankLpBps)+uint32(c.Economics.LockedLpBps))
	}
	if c.Economics.BuyTaxBps > maxTaxBps || c.Economics.SellTaxBps > maxTaxBps {
		return fmt.Errorf("economics: tax rates must not exceed %d bps", maxTaxBps)
	}
	if c.Lottery.RevealDelaySlots == 0 || c.Lottery.RevealDelaySlots >= c.Lottery.RevealTimeoutSlots {
		return fmt.Errorf("lottery: reveal_delay_slots must be in [1, reveal_timeout_slots)")
	}
	if c.Lottery.RevealTimeoutSlots > maxRevealTimeoutSlots {
		return fmt.Errorf("lottery: reveal_timeout_slots must not exceed %d", maxRevealTimeoutSlots)
	}
	switch c.Program.AddressScheme {
	case "pda", "hash":
	default:
		return fmt.Errorf("program: unknown address scheme %q", c.Program.AddressScheme)
	}
	if c.Oracle.TokensPerSol == 0 {
		return fmt.Errorf("oracle: tokens_per_sol must be positive")
	}
	if _, err := c.Oracle.PriceUSD(); err != nil {
		return err
	}
	return nil
}

// PriceUSD parses the configured token USD price.
func (c *OracleConfig) PriceUSD() (decimal.Decimal, error) {
	price, err := decimal.NewFromString(c.TokenPriceUSD)
	if err != nil {
		return decimal.Zero, fmt.Errorf("oracle: invalid token_price_usd %q: %w", c.TokenPriceUSD, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("oracle: token_price_usd must not be negative")
	}
	return price, nil
}

// GetRPCEndpoint returns the RPC endpoint for the configured network
func (c *SolanaConfig) GetRPCEndpoint() string {
	if c.RPC != "" {
		return c.RPC
	}

	switch c.Network {
	case "mainnet", "mainnet-beta":
		return "https://api.mainnet-beta.solana.com"
	case "testnet":
		return "https://api.testnet.solana.com"
	case "localnet", "localhost":
		return "http://localhost:8899"
	default:
		return "https://api.devnet.solana.com"
	}
}
