package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/michaelpento.lv/arbbot/config"
	"github.com/michaelpento.lv/arbbot/utils"
)

var (
	cfgFile string
	envFile string
	debug   bool
	dryRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "arbbot",
	Short: "A flash loan arbitrage bot for two DEX venues",
	Long: `A CLI bot that compares the price of a token pair on two Uniswap V2
style venues, and when a round trip is profitable after gas and the flash
loan fee, borrows the capital and executes both swaps in one transaction.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults are used when empty)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "env file holding RPC_URL, BOT_PRIVATE_KEY and CONTRACT_ADDRESS (default is ./.env)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "evaluate opportunities without sending transactions")
}

func initConfig() {
	// LOG_LEVEL may live in the env file. A bad file is reported by loadConfig.
	_ = config.LoadEnv(envFile)
	utils.InitLogger(debug)
}

// loadConfig reads the configuration and applies command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(cfgFile, envFile)
	if err != nil {
		return nil, err
	}
	if dryRun {
		cfg.DryRun = true
	}
	return cfg, nil
}
