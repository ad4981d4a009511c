package config

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"gopkg.in/yaml.v2"

	"github.com/michaelpento.lv/arbbot/types"
	"github.com/michaelpento.lv/arbbot/utils/math"
)

// Polygon mainnet defaults
const (
	PolygonChainID = 137
	PolygonUSDC    = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	PolygonUSDT    = "0xc2132D05D31c914a87C6611C10748AEb04B58e8F"
	PolygonWMATIC  = "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"

	QuickSwapRouter = "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff"
	SushiSwapRouter = "0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506"
	AaveLendingPool = "0x8dFf5E27EA6b7AC08EbFdf9eB090F32ee9a30fcf"
)

type Config struct {
	// Chain and network settings
	ChainID     uint64 `yaml:"chain_id"`
	RPCEndpoint string `yaml:"-"`

	// Secrets, read from the environment only
	PrivateKey      string `yaml:"-"`
	ContractAddress string `yaml:"-"`

	// Route
	BorrowToken TokenConfig   `yaml:"borrow_token"`
	QuoteToken  TokenConfig   `yaml:"quote_token"`
	Venues      []VenueConfig `yaml:"venues"`

	// Amounts in whole borrowed-token units, e.g. "1000" or "2.5"
	TradeSize      string `yaml:"trade_size"`
	MinGrossProfit string `yaml:"min_gross_profit"`

	// Network fee conversion. When NativePrice is set it is used as the
	// price of one native token in borrowed-token units; otherwise the price
	// is quoted along NativePricePath on the first venue.
	NativePrice     string   `yaml:"native_price"`
	NativePricePath []string `yaml:"native_price_path"`

	// Execution
	MaxGasPriceGwei string `yaml:"max_gas_price_gwei"`
	GasLimitMargin  uint64 `yaml:"gas_limit_margin"`
	LendingPool     string `yaml:"lending_pool"`
	DryRun          bool   `yaml:"dry_run"`

	// Timing
	CycleInterval  time.Duration `yaml:"cycle_interval"`
	CallTimeout    time.Duration `yaml:"call_timeout"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`

	RPCRateLimit   RateLimitConfig `yaml:"rpc_rate_limit"`
	Metrics        MetricsConfig   `yaml:"metrics"`
	TokenCacheSize int             `yaml:"token_cache_size"`
}

type TokenConfig struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Decimals uint8  `yaml:"decimals"`
}

type VenueConfig struct {
	Name   string `yaml:"name"`
	Router string `yaml:"router"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"`
}

// Params are the numeric parameters of Config parsed into raw token units
type Params struct {
	TradeSize      *big.Int
	MinGrossProfit *big.Int
	NativePrice    *big.Int // nil when the price is quoted
	MaxGasPrice    *big.Int // wei, nil when uncapped
}

func (c *Config) ValidateConfig() error {
	var errors []string

	if c.RPCEndpoint == "" {
		errors = append(errors, "RPC URL must be specified")
	}
	if _, err := c.SigningKey(); err != nil {
		errors = append(errors, err.Error())
	}
	if !common.IsHexAddress(c.ContractAddress) {
		errors = append(errors, "contract address must be a hex address")
	}

	if err := c.BorrowToken.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("borrow token error: %v", err))
	}
	if err := c.QuoteToken.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("quote token error: %v", err))
	}
	if strings.EqualFold(c.BorrowToken.Address, c.QuoteToken.Address) {
		errors = append(errors, "borrow and quote tokens must differ")
	}

	if len(c.Venues) != 2 {
		errors = append(errors, fmt.Sprintf("exactly 2 venues must be configured, got %d", len(c.Venues)))
	} else {
		for i, v := range c.Venues {
			if err := v.Validate(); err != nil {
				errors = append(errors, fmt.Sprintf("venue %d error: %v", i, err))
			}
		}
		if strings.EqualFold(c.Venues[0].Name, c.Venues[1].Name) {
			errors = append(errors, "venues must have distinct names")
		}
		if c.Venues[0].Router != "" && strings.EqualFold(c.Venues[0].Router, c.Venues[1].Router) {
			errors = append(errors, "venues must have distinct routers")
		}
	}

	if params, err := c.Params(c.BorrowToken.Decimals); err != nil {
		errors = append(errors, err.Error())
	} else {
		if params.TradeSize.Sign() <= 0 {
			errors = append(errors, "trade_size must be positive")
		}
		if params.MinGrossProfit.Sign() < 0 {
			errors = append(errors, "min_gross_profit must not be negative")
		}
	}
	if c.NativePrice == "" {
		if _, err := c.NativePriceRoute(); err != nil {
			errors = append(errors, err.Error())
		}
	}
	if c.LendingPool != "" && !common.IsHexAddress(c.LendingPool) {
		errors = append(errors, "lending_pool must be a hex address")
	}

	if c.CycleInterval <= 0 {
		errors = append(errors, "cycle_interval must be positive")
	}
	if c.CallTimeout <= 0 {
		errors = append(errors, "call_timeout must be positive")
	}
	if c.ConfirmTimeout <= 0 {
		errors = append(errors, "confirm_timeout must be positive")
	}
	if c.TokenCacheSize <= 0 {
		errors = append(errors, "token_cache_size must be positive")
	}

	if err := c.RPCRateLimit.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("RPC rate limit error: %v", err))
	}
	if err := c.Metrics.Validate(); err != nil {
		errors = append(errors, fmt.Sprintf("metrics config error: %v", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (t *TokenConfig) Validate() error {
	if !common.IsHexAddress(t.Address) {
		return fmt.Errorf("address %q is not a hex address", t.Address)
	}
	if t.Decimals > 36 {
		return fmt.Errorf("decimals %d out of range", t.Decimals)
	}
	return nil
}

func (v *VenueConfig) Validate() error {
	if v.Name == "" {
		return fmt.Errorf("name must be specified")
	}
	if v.Router != "" && !common.IsHexAddress(v.Router) {
		return fmt.Errorf("router %q is not a hex address", v.Router)
	}
	return nil
}

func (r *RateLimitConfig) Validate() error {
	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests per second must be positive")
	}
	if r.BurstSize <= 0 {
		return fmt.Errorf("burst size must be positive")
	}

	return nil
}

func (m *MetricsConfig) Validate() error {
	if m.Enabled && m.ListenAddress == "" {
		return fmt.Errorf("listen address must be specified when metrics are enabled")
	}
	return nil
}

// SigningKey parses the bot's private key
func (c *Config) SigningKey() (*ecdsa.PrivateKey, error) {
	if c.PrivateKey == "" {
		return nil, fmt.Errorf("private key must be specified")
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(c.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// Settlement returns the settlement contract address
func (c *Config) Settlement() common.Address {
	return common.HexToAddress(c.ContractAddress)
}

// OutboundPath is the borrowed token swapped into the quote token
func (c *Config) OutboundPath() types.TokenPath {
	return types.TokenPath{common.HexToAddress(c.BorrowToken.Address), common.HexToAddress(c.QuoteToken.Address)}
}

// ReturnPath is the quote token swapped back into the borrowed token
func (c *Config) ReturnPath() types.TokenPath {
	return types.TokenPath{common.HexToAddress(c.QuoteToken.Address), common.HexToAddress(c.BorrowToken.Address)}
}

// NativePriceRoute is the path used to quote the native token in
// borrowed-token units. It must end at the borrowed token.
func (c *Config) NativePriceRoute() (types.TokenPath, error) {
	path := make(types.TokenPath, 0, len(c.NativePricePath))
	for _, hex := range c.NativePricePath {
		if !common.IsHexAddress(hex) {
			return nil, fmt.Errorf("native_price_path entry %q is not a hex address", hex)
		}
		path = append(path, common.HexToAddress(hex))
	}
	if err := path.Validate(); err != nil {
		return nil, fmt.Errorf("invalid native_price_path: %w", err)
	}
	if path.Last() != common.HexToAddress(c.BorrowToken.Address) {
		return nil, fmt.Errorf("native_price_path must end with the borrow token")
	}
	return path, nil
}

// Params parses the configured amounts for a borrowed token with the given
// decimals
func (c *Config) Params(decimals uint8) (*Params, error) {
	tradeSize, err := math.ParseUnits(c.TradeSize, decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid trade_size: %w", err)
	}
	minGrossProfit, err := math.ParseUnits(c.MinGrossProfit, decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid min_gross_profit: %w", err)
	}

	params := &Params{TradeSize: tradeSize, MinGrossProfit: minGrossProfit}

	if c.NativePrice != "" {
		params.NativePrice, err = math.ParseUnits(c.NativePrice, decimals)
		if err != nil {
			return nil, fmt.Errorf("invalid native_price: %w", err)
		}
	}
	if c.MaxGasPriceGwei != "" {
		params.MaxGasPrice, err = math.ParseUnits(c.MaxGasPriceGwei, 9)
		if err != nil {
			return nil, fmt.Errorf("invalid max_gas_price_gwei: %w", err)
		}
	}

	return params, nil
}

// LoadConfig builds the configuration from defaults, an optional YAML file,
// the env file and the process environment, then validates it
func LoadConfig(cfgFile, envFile string) (*Config, error) {
	config := DefaultConfig()

	if cfgFile != "" {
		data, err := os.ReadFile(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, config); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	if err := LoadEnv(envFile); err != nil {
		return nil, err
	}
	if err := config.loadSecrets(); err != nil {
		return nil, err
	}

	if err := config.ValidateConfig(); err != nil {
		return nil, err
	}

	return config, nil
}

// loadSecrets reads the required settings that never live in the config file
func (c *Config) loadSecrets() error {
	var missing []string
	for _, secret := range []struct {
		key string
		dst *string
	}{
		{EnvRPCURL, &c.RPCEndpoint},
		{EnvPrivateKey, &c.PrivateKey},
		{EnvContractAddress, &c.ContractAddress},
	} {
		value, err := GetRequiredEnv(secret.key)
		if err != nil {
			missing = append(missing, secret.key)
			continue
		}
		*secret.dst = value
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func DefaultConfig() *Config {
	return &Config{
		ChainID: PolygonChainID,
		BorrowToken: TokenConfig{
			Address:  PolygonUSDC,
			Symbol:   "USDC",
			Decimals: 6,
		},
		QuoteToken: TokenConfig{
			Address:  PolygonUSDT,
			Symbol:   "USDT",
			Decimals: 6,
		},
		Venues: []VenueConfig{
			{Name: "QuickSwap", Router: QuickSwapRouter},
			{Name: "SushiSwap", Router: SushiSwapRouter},
		},
		TradeSize:       "1000",
		MinGrossProfit:  "2",
		NativePricePath: []string{PolygonWMATIC, PolygonUSDC},
		MaxGasPriceGwei: "500",
		GasLimitMargin:  50000,
		LendingPool:     AaveLendingPool,
		CycleInterval:   15 * time.Second,
		CallTimeout:     10 * time.Second,
		ConfirmTimeout:  3 * time.Minute,
		RPCRateLimit: RateLimitConfig{
			RequestsPerSecond: 10,
			BurstSize:         20,
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9090",
		},
		TokenCacheSize: 64,
	}
}
