package main

import (
	"fmt"

	"circl/services/discovery"

	"github.com/spf13/cobra"
)

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "List quiz domains",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, d := range discovery.Domains() {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return nil
	},
}
