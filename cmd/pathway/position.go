package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/pathway/internal/config"
	"github.com/aretw0/pathway/internal/logging"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/ports"
	"github.com/spf13/cobra"
)

var positionCfg = config.Default()

var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Manage stored call positions",
	Long:  `List, inspect, and remove the positions kept by a durable store (file or redis).`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := rootCmd.PersistentPreRunE(cmd, args); err != nil {
			return err
		}
		if err := config.ApplyEnv(cmd.Flags()); err != nil {
			return err
		}
		if positionCfg.Store == config.StoreMemory {
			return errors.New("the memory store only lives inside a running server; use --store file or --store redis")
		}
		return positionCfg.Validate()
	},
}

var positionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List calls with a stored position",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store ports.PositionStore) error {
			ids, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("error listing positions: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(ids) == 0 {
				fmt.Fprintln(out, "No stored positions found.")
				return nil
			}
			fmt.Fprintln(out, "Stored Positions:")
			for _, id := range ids {
				fmt.Fprintln(out, "- "+id)
			}
			return nil
		})
	},
}

var positionInspectCmd = &cobra.Command{
	Use:   "inspect <call-id>",
	Short: "Show the position of a call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		callID := args[0]
		return withStore(func(store ports.PositionStore) error {
			index, err := store.Load(cmd.Context(), callID)
			if errors.Is(err, domain.ErrCallNotFound) {
				return fmt.Errorf("call '%s' has no stored position", callID)
			}
			if err != nil {
				return fmt.Errorf("error loading call '%s': %w", callID, err)
			}

			data, err := json.MarshalIndent(domain.CallSession{CallID: callID, Position: index}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		})
	},
}

var positionRmCmd = &cobra.Command{
	Use:   "rm <call-id>...",
	Short: "Remove positions, sending those calls back to step 0",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(store ports.PositionStore) error {
			var errs []error
			for _, callID := range args {
				if err := store.Delete(cmd.Context(), callID); err != nil {
					errs = append(errs, fmt.Errorf("error removing '%s': %w", callID, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed position of '%s'\n", callID)
			}
			return errors.Join(errs...)
		})
	},
}

func init() {
	rootCmd.AddCommand(positionCmd)
	positionCmd.AddCommand(positionLsCmd)
	positionCmd.AddCommand(positionInspectCmd)
	positionCmd.AddCommand(positionRmCmd)

	positionCfg.Store = config.StoreFile
	positionCfg.BindStoreFlags(positionCmd.PersistentFlags())
}

func withStore(fn func(ports.PositionStore) error) error {
	store, closer, err := openStore(positionCfg, logging.NewNop())
	if err != nil {
		return err
	}
	defer closer.Close()
	return fn(store)
}
