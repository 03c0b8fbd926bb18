package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fakegate",
		Short: "HTTP interception proxy with fake response substitution",
		Long: `fakegate sits between clients and their real APIs. Requests name their
destination in a target query parameter; when a configured rule matches,
fakegate answers with the rule's fake response, otherwise it forwards the
request transparently. Every transaction is recorded and can be streamed
live from the admin API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("fakegate %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
