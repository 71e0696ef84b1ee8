package main

import (
	"io"
	"strings"
	"time"

	"github.com/fgeck/hostprep/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "dev"

	// Configuration flags.
	configFile string
	verbose    bool
	quiet      bool
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "hostprep",
	Short: "Provision Docker and nginx on a fresh host",
	Long: `hostprep installs and configures software on a Linux host, either the
local machine or a remote one over SSH:
  - Docker engine from the vendor repository
  - nginx web server
  - nginx reverse-proxy sites for local applications

Remote mode is selected when host, username and key file are all given;
otherwise every command runs against the local machine.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd.ErrOrStderr())
	},
	SilenceUsage: true,
	Version:      Version,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (optional)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose (debug) output")
	flags.BoolVarP(&quiet, "quiet", "q", false, "enable quiet mode (errors only)")
	flags.BoolVar(&jsonOutput, "json", false, "output logs in JSON format")

	flags.String("host", "", "remote host to provision")
	flags.String("username", "", "SSH username")
	flags.String("key-file", "", "path to the SSH private key")
	flags.Int("port", config.DefaultPort, "SSH port")
	flags.Duration("timeout", config.DefaultTimeout, "SSH connection timeout")

	rootCmd.AddCommand(dockerCmd)
	rootCmd.AddCommand(nginxCmd)
	rootCmd.AddCommand(siteCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(validateCmd)
}

func setupLogging(w io.Writer) {
	// Logs are diagnostics; stdout carries the progress lines.
	if jsonOutput {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
		output.FormatLevel = func(i interface{}) string {
			if s, ok := i.(string); ok {
				return strings.ToUpper(s)
			}
			return ""
		}
		log.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set log level
	switch {
	case quiet:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case verbose:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
