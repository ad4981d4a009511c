package cmd

import (
	"crypto/ecdsa"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"

	"github.com/michaelpento.lv/arbbot/config"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a signing key for the bot",
	Long: `Generate a new ECDSA key for signing settlement transactions. The output
can be appended to the env file; fund the printed address with the native
token before starting the bot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		key, err := crypto.GenerateKey()
		if err != nil {
			return fmt.Errorf("failed to generate key: %w", err)
		}
		writeKey(cmd.OutOrStdout(), key)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func writeKey(w io.Writer, key *ecdsa.PrivateKey) {
	fmt.Fprintf(w, "# signer %s\n", crypto.PubkeyToAddress(key.PublicKey).Hex())
	fmt.Fprintf(w, "%s=0x%x\n", config.EnvPrivateKey, crypto.FromECDSA(key))
}
