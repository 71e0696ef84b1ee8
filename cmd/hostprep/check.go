package main

import (
	"fmt"

	"github.com/fgeck/hostprep/internal/services/provision"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Test the connection and detect the operating system",
	Long:  `Connect to the target, detect its operating system and report it without changing anything.`,
	Args:  cobra.NoArgs,
	RunE:  checkTarget,
}

func checkTarget(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	svc := provision.New(log.Logger, newPrinter())
	result, err := svc.Check(ctx, *cfg)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("Target:")
	fmt.Printf("  Address: %s\n", result.Target)
	fmt.Printf("  OS ID: %s\n", valueOr(result.Info.OSID, "(unknown)"))
	fmt.Printf("  Codename: %s\n", valueOr(result.Info.Codename, "(none)"))
	fmt.Printf("  Family: %s\n", result.Info.Family)

	return nil
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
