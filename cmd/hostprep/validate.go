package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  `Validate the merged configuration from file, environment and flags without contacting any host.`,
	Args:  cobra.NoArgs,
	RunE:  validateConfig,
}

func validateConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	// Print configuration summary
	fmt.Println("Configuration is valid!")
	fmt.Println()
	fmt.Println("Target:")
	if cfg.Target.IsRemote() {
		fmt.Printf("  Mode: remote\n")
		fmt.Printf("  Host: %s\n", cfg.Target.Host)
		fmt.Printf("  Port: %d\n", cfg.Target.Port)
		fmt.Printf("  Username: %s\n", cfg.Target.Username)
		fmt.Printf("  Key file: %s\n", cfg.Target.KeyPath)
		fmt.Printf("  Passphrase: %v\n", cfg.Target.Passphrase != "")
		fmt.Printf("  Timeout: %s\n", cfg.Target.Timeout)
	} else {
		fmt.Printf("  Mode: local\n")
	}

	if cfg.Site.Domain != "" {
		fmt.Println()
		fmt.Println("Site:")
		fmt.Printf("  Domain: %s\n", cfg.Site.Domain)
		fmt.Printf("  App port: %d\n", cfg.Site.AppPort)
	}

	fmt.Println()
	fmt.Println("Optional Features:")
	fmt.Printf("  Wake-on-LAN: %v\n", cfg.WOL != nil)
	fmt.Printf("  Telegram: %v\n", cfg.Telegram != nil)

	if cfg.WOL != nil {
		fmt.Println()
		fmt.Println("WOL Configuration:")
		fmt.Printf("  MAC Address: %s\n", cfg.WOL.MACAddress)
		fmt.Printf("  Broadcast IP: %s\n", cfg.WOL.BroadcastIP)
		if cfg.WOL.PollAddr != "" {
			fmt.Printf("  Poll address: %s\n", cfg.WOL.PollAddr)
		}
	}

	if cfg.Telegram != nil {
		fmt.Println()
		fmt.Println("Telegram Configuration:")
		fmt.Printf("  Chat ID: %s\n", cfg.Telegram.ChatID)
		fmt.Printf("  Bot Token: (configured)\n")
	}

	return nil
}
