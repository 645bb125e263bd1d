package main

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the circulation policy",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective policy: stored settings over environment defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := loadEnv(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.services().Policy.Current(cmd.Context())
			if err != nil {
				return err
			}
			enc := jsoniter.ConfigFastest.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	})
	return cmd
}
