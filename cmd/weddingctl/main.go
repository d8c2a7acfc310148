package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "weddingctl",
	Short:         "Operator and client tooling for Wedding Planner",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(newCheckoutCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newSendTestEmailCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
