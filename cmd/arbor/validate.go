package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/arbor/pkg/definition"
	"github.com/aretw0/arbor/pkg/tasks"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check tree definitions for consistency",
	Long:  `Parses each definition and reports unknown node types, malformed shapes and invalid properties.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := tasks.NewRegistry()
		failed := 0
		for _, path := range args {
			if err := validateFile(path, reg); err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "%s: invalid\n", path)
				errs := definition.ValidationErrors(err)
				if len(errs) == 0 {
					errs = []error{err}
				}
				for _, e := range errs {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %v\n", e)
				}
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid ✅\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d definitions failed validation", failed, len(args))
		}
		return nil
	},
}

func validateFile(path string, reg *definition.Registry) error {
	def, err := definition.Load(path)
	if err != nil {
		return err
	}
	return definition.Validate(def, reg)
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
