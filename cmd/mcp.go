package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/denysvitali/mtpfm/pkg/config"
	"github.com/denysvitali/mtpfm/pkg/devices"
	"github.com/denysvitali/mtpfm/pkg/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the file operations as MCP tools over stdio",
	Args:  cobra.NoArgs,
	RunE:  runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, args []string) error {
	logger := GetLogger()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	srv := mcp.NewServer(logger, devices.New(cfg, logger), cfg.Files.Device, cfg.Files.IgnoreHidden)
	return srv.ServeStdio()
}
