package main

import (
	"fmt"

	"github.com/fgeck/hostprep/internal/config"
	"github.com/fgeck/hostprep/internal/services/nginx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var renderCmd = &cobra.Command{
	Use:   "render <domain>",
	Short: "Print the nginx site configuration for a domain",
	Long:  `Render the reverse-proxy virtual host for <domain> without contacting any host.`,
	Args:  cobra.ExactArgs(1),
	RunE:  renderSite,
}

func init() {
	renderCmd.Flags().Int("app-port", nginx.DefaultAppPort, "port the application listens on")
}

func renderSite(cmd *cobra.Command, args []string) error {
	parser := config.NewParser()
	if err := parser.BindFlags(cmd.Flags()); err != nil {
		return err
	}
	parser.Set("site.domain", args[0])

	cfg, err := parser.Load(configFile)
	if err != nil {
		log.Error().Err(err).Str("file", configFile).Msg("failed to load config")
		return err
	}

	content, err := nginx.Render(cfg.Site)
	if err != nil {
		log.Error().Err(err).Msg("failed to render site")
		return err
	}

	fmt.Print(content)
	return nil
}
