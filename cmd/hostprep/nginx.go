package main

import (
	"github.com/fgeck/hostprep/internal/services/provision"
	"github.com/spf13/cobra"
)

var nginxCmd = &cobra.Command{
	Use:   "nginx",
	Short: "Install nginx",
	Long:  `Install nginx with the system package manager, then start and enable it.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, nil, provision.Service.InstallNginx)
	},
}
