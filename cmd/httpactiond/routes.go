package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the registered action paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFromFlags(cmd)
		if err != nil {
			return err
		}
		factory, err := newFactory(cfg, zap.NewNop())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, p := range factory.ActionPaths() {
			proxy, _ := factory.Action(p)
			fmt.Fprintf(out, "%s%s\t%s\n", p, cfg.Server.Extension, proxy.MethodName())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.Flags().Bool("case-insensitive", false, "Lowercase action paths")
}
