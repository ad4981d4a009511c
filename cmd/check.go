package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/michaelpento.lv/arbbot/cmd/bot"
	"github.com/michaelpento.lv/arbbot/utils"
	"github.com/michaelpento.lv/arbbot/utils/math"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one dry-run cycle and print the evaluations",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := utils.GetLogger()
		defer utils.CleanupLogger()

		cfg, err := loadConfig()
		if err != nil {
			log.Error("Failed to load config", zap.Error(err))
			return err
		}
		cfg.DryRun = true

		a, err := newApp(cmd.Context(), cfg, log)
		if err != nil {
			log.Error("Failed to start bot", zap.Error(err))
			return err
		}
		defer a.Close()

		results := a.bot.RunCycle(cmd.Context())
		printResults(cmd.OutOrStdout(), results, a.decimals, a.symbol)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func printResults(w io.Writer, results []bot.OrderingResult, decimals uint8, symbol string) {
	for _, r := range results {
		fmt.Fprintf(w, "%s -> %s\n", r.Source, r.Destination)
		if r.Err != nil {
			fmt.Fprintf(w, "  no opportunity: %v\n", r.Err)
			continue
		}

		e := r.Evaluation
		fmt.Fprintf(w, "  received:      %s %s\n", math.FormatUnits(e.Return.Received(), decimals), symbol)
		fmt.Fprintf(w, "  gross profit:  %s %s\n", math.FormatUnits(e.GrossProfit, decimals), symbol)
		if !e.CostsEstimated {
			fmt.Fprintf(w, "  below threshold, costs not estimated\n")
			continue
		}
		fmt.Fprintf(w, "  gas:           %d at %s gwei\n", e.GasEstimate, math.FormatUnits(e.GasPrice, 9))
		fmt.Fprintf(w, "  network fee:   %s %s\n", math.FormatUnits(e.NetworkFee, decimals), symbol)
		fmt.Fprintf(w, "  borrowing fee: %s %s\n", math.FormatUnits(e.BorrowingFee, decimals), symbol)
		fmt.Fprintf(w, "  net profit:    %s %s\n", math.FormatUnits(e.NetProfit, decimals), symbol)
		fmt.Fprintf(w, "  execute:       %t\n", e.Execute)
	}
}
