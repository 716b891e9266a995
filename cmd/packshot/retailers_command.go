package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newRetailersCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retailers",
		Short: "List supported retailers and their policies",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry, err := newRegistry(cfg)
			if err != nil {
				return err
			}

			rows := make([][]string, 0)
			for _, policy := range registry.Policies() {
				types := make([]string, 0, len(policy.Rules))
				for _, rule := range policy.Rules {
					name := rule.Type
					if rule.Multi {
						name += " (multi)"
					}
					types = append(types, name)
				}
				rows = append(rows, []string{
					policy.Name,
					policy.SaveIDField,
					strings.Join(policy.RequiredFields, ", "),
					strings.Join(types, ", "),
					policy.FolderRoot,
				})
			}

			table := renderTable(
				[]string{"Retailer", "Save ID", "Required fields", "Asset types", "Folder root"},
				rows,
			)
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
