package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/rua-build/rua/internal/verify"
)

var tarcheckCmd = &cobra.Command{
	Use:   "tarcheck <path>",
	Short: "Run the interactive archive-review menu on an existing archive",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verifier := verify.New()
		_, err := verifier.Review(args[0], string(os.PathSeparator))
		return err
	},
}
