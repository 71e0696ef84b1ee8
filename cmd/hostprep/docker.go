package main

import (
	"github.com/fgeck/hostprep/internal/services/provision"
	"github.com/spf13/cobra"
)

var dockerCmd = &cobra.Command{
	Use:   "docker",
	Short: "Install Docker",
	Long: `Install the Docker engine:
1. Detect the operating system
2. Install Docker from the distribution or vendor repository
3. Start and enable the docker service
4. Add the connecting user to the docker group`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, nil, provision.Service.InstallDocker)
	},
}
