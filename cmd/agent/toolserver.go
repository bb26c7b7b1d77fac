package main

import (
	"github.com/petasbytes/tool-agent/internal/mcptool"
	"github.com/petasbytes/tool-agent/tools"
	"github.com/spf13/cobra"
)

func newToolServerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tool-server",
		Short: "Serve the calculator tools over stdio (Model Context Protocol)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := mcptool.NewServer("tool-agent", version, tools.Default())
			if err != nil {
				return err
			}
			return mcptool.ServeStdio(srv)
		},
	}
}
