package main

import (
	"github.com/fgeck/hostprep/internal/services/nginx"
	"github.com/fgeck/hostprep/internal/services/provision"
	"github.com/spf13/cobra"
)

var siteCmd = &cobra.Command{
	Use:   "site <domain>",
	Short: "Configure an nginx reverse-proxy site",
	Long: `Configure nginx to proxy <domain> to an application on localhost:
1. Render the virtual host
2. Deploy it to the nginx configuration directory
3. Enable it (debian-family hosts)
4. Test the configuration
5. Reload nginx, restarting it if the reload fails`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, map[string]any{"site.domain": args[0]}, provision.Service.SetupSite)
	},
}

func init() {
	siteCmd.Flags().Int("app-port", nginx.DefaultAppPort, "port the application listens on")
}
