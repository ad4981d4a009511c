package cmd

import (
	"bytes"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/michaelpento.lv/arbbot/cmd/bot"
	"github.com/michaelpento.lv/arbbot/types"
)

func TestPrintResults(t *testing.T) {
	received := &types.Quote{Amounts: []*big.Int{big.NewInt(998000000), big.NewInt(1005000000)}}
	results := []bot.OrderingResult{
		{
			Source:      "QuickSwap",
			Destination: "SushiSwap",
			Evaluation: &types.OpportunityEvaluation{
				Return:         received,
				GrossProfit:    big.NewInt(5000000),
				CostsEstimated: true,
				GasEstimate:    300000,
				GasPrice:       big.NewInt(30000000000),
				NetworkFee:     big.NewInt(1500000),
				BorrowingFee:   big.NewInt(900000),
				NetProfit:      big.NewInt(2600000),
				Execute:        true,
			},
		},
		{
			Source:      "SushiSwap",
			Destination: "QuickSwap",
			Err:         errors.New("quote_unavailable on SushiSwap: execution reverted"),
		},
	}

	var buf bytes.Buffer
	printResults(&buf, results, 6, "USDC")
	out := buf.String()

	assert.Contains(t, out, "QuickSwap -> SushiSwap")
	assert.Contains(t, out, "gross profit:  5 USDC")
	assert.Contains(t, out, "gas:           300000 at 30 gwei")
	assert.Contains(t, out, "borrowing fee: 0.9 USDC")
	assert.Contains(t, out, "net profit:    2.6 USDC")
	assert.Contains(t, out, "execute:       true")
	assert.Contains(t, out, "SushiSwap -> QuickSwap\n  no opportunity: quote_unavailable")
}
