package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Davemasibo/mikrotikDashboard/internal/config"
	"github.com/Davemasibo/mikrotikDashboard/internal/format"
	"github.com/Davemasibo/mikrotikDashboard/internal/router"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check router connectivity",
	Long:  `Connect to the configured MikroTik router and print its identity, resources and hotspot state.`,
	Example: `  fortunet -c config.yaml check`,
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create a quiet logger for check mode
	logger := zerolog.New(os.Stderr).Level(zerolog.ErrorLevel).With().Timestamp().Logger()

	client := router.New(router.Config{
		Host:     cfg.Router.Host,
		Port:     cfg.Router.Port,
		Username: cfg.Router.Username,
		Password: cfg.Router.Password,
		Timeout:  parseDuration(cfg.Router.Timeout, router.DefaultTimeout),
	}, logger)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen, color.Bold)
	red := color.New(color.FgRed, color.Bold)
	yellow := color.New(color.FgYellow)

	_, _ = cyan.Printf("Router: %s:%d\n", cfg.Router.Host, cfg.Router.Port)

	info, err := client.SystemInfo(ctx)
	if err != nil {
		_, _ = red.Printf("✗ Connection failed: %v\n", err)
		return err
	}

	_, _ = green.Println("✓ Connected")
	fmt.Printf("  Identity:    %s\n", info.Identity)
	fmt.Printf("  Version:     %s\n", info.Version)
	fmt.Printf("  Uptime:      %s\n", format.ParseDuration(info.Uptime).String())
	fmt.Printf("  CPU load:    %s%%\n", info.CPULoad)
	fmt.Printf("  Free memory: %s\n", format.FormatBytes(atoiSafe(info.FreeMemory)))

	sessions, err := client.ActiveSessions(ctx)
	if err != nil {
		_, _ = yellow.Printf("⚠ Could not list active sessions: %v\n", err)
	} else {
		fmt.Printf("  Active sessions: %d\n", len(sessions))
	}

	users, err := client.HotspotUsers(ctx)
	if err != nil {
		_, _ = yellow.Printf("⚠ Could not list hotspot users: %v\n", err)
	} else {
		fmt.Printf("  Hotspot users:   %d\n", len(users))
	}

	return nil
}

func atoiSafe(s string) int64 {
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			return n
		}
		n = n*10 + int64(r-'0')
	}
	return n
}
