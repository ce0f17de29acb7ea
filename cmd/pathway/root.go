package main

import (
	"fmt"
	"os"

	"github.com/aretw0/pathway/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pathway",
	Short: "Pathway steers LLM conversations through a fixed list of steps",
	Long: `Pathway is an OpenAI-compatible chat completions proxy. Each call walks a cyclic
list of prompt steps, optionally gated by an LLM yes/no check on the user's reply.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		envFiles, _ := cmd.Flags().GetStringSlice("env-file")
		return config.LoadDotEnv(envFiles...)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringSlice("env-file", []string{".env"}, "Environment files loaded before flags are resolved (repeatable)")
}
