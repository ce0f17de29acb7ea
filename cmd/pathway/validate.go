package main

import (
	"fmt"
	"io"

	"github.com/aretw0/pathway/internal/validator"
	"github.com/aretw0/pathway/pkg/catalog"
	"github.com/aretw0/pathway/pkg/domain"
	"github.com/aretw0/pathway/pkg/render"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [pathway-file]",
	Short: "Check a pathway file",
	Long:  `Parses the pathway file and reports empty steps, unknown keys and other configuration errors.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "pathways.json"
		if len(args) > 0 {
			path = args[0]
		}
		if err := runValidate(cmd.OutOrStdout(), path); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(w io.Writer, path string) error {
	c, err := catalog.LoadFile(path)
	if err != nil {
		return err
	}

	for i, s := range c.Steps() {
		if g, ok := s.(domain.GatedStep); ok {
			fmt.Fprintf(w, "%3d  gated    %s\n", i, g.Check)
			continue
		}
		fmt.Fprintf(w, "%3d  ungated\n", i)
	}
	issues := validator.Lint(c, render.New())
	for _, issue := range issues {
		fmt.Fprintf(w, "warning: %s\n", issue)
	}
	fmt.Fprintf(w, "Pathway is valid: %d steps, %d warnings.\n", c.Len(), len(issues))
	return nil
}
