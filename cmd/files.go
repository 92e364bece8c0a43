package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/denysvitali/mtpfm/internal/models"
	"github.com/denysvitali/mtpfm/pkg/config"
	"github.com/denysvitali/mtpfm/pkg/devices"
)

// fileOp runs one dispatcher operation for a command invocation
type fileOp func(ctx context.Context, d *devices.Dispatcher, cfg *config.Config, args []string) models.Response

var lsCmd = &cobra.Command{
	Use:   "ls <path>",
	Short: "List a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runFileOp(listOp),
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Recursively delete files and folders",
	Args:  cobra.ArbitraryArgs,
	RunE:  runFileOp(deleteOp),
}

var mvCmd = &cobra.Command{
	Use:   "mv <old> <new>",
	Short: "Rename or move a file",
	Args:  cobra.ExactArgs(2),
	RunE:  runFileOp(renameOp),
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <path>",
	Short: "Create a folder with its parents",
	Args:  cobra.ExactArgs(1),
	RunE:  runFileOp(createFolderOp),
}

var storagesCmd = &cobra.Command{
	Use:   "storages",
	Short: "List the storages of the device",
	Args:  cobra.NoArgs,
	RunE:  runFileOp(storageListOp),
}

var existsCmd = &cobra.Command{
	Use:   "exists <path>",
	Short: "Check whether a path exists",
	Args:  cobra.ExactArgs(1),
	RunE:  runFileOp(fileExistsOp),
}

func init() {
	lsCmd.Flags().BoolP("all", "a", false, "Include hidden files")
	_ = viper.BindPFlag("files.show_hidden", lsCmd.Flags().Lookup("all"))

	rootCmd.AddCommand(lsCmd, rmCmd, mvCmd, mkdirCmd, storagesCmd, existsCmd)
}

func listOp(ctx context.Context, d *devices.Dispatcher, cfg *config.Config, args []string) models.Response {
	ignoreHidden := cfg.Files.IgnoreHidden && !viper.GetBool("files.show_hidden")
	return d.List(ctx, cfg.Files.Device, args[0], ignoreHidden)
}

func deleteOp(ctx context.Context, d *devices.Dispatcher, cfg *config.Config, args []string) models.Response {
	return d.Delete(ctx, cfg.Files.Device, args)
}

func renameOp(ctx context.Context, d *devices.Dispatcher, cfg *config.Config, args []string) models.Response {
	return d.Rename(ctx, cfg.Files.Device, args[0], args[1])
}

func createFolderOp(ctx context.Context, d *devices.Dispatcher, cfg *config.Config, args []string) models.Response {
	return d.CreateFolder(ctx, cfg.Files.Device, args[0])
}

func storageListOp(ctx context.Context, d *devices.Dispatcher, cfg *config.Config, _ []string) models.Response {
	return d.StorageList(ctx, cfg.Files.Device)
}

func fileExistsOp(ctx context.Context, d *devices.Dispatcher, cfg *config.Config, args []string) models.Response {
	return d.FileExists(ctx, cfg.Files.Device, args[0])
}

func runFileOp(op fileOp) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		// Load configuration
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		// Cancel the running operation on interrupt
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := GetLogger()
		resp := op(ctx, devices.New(cfg, logger), cfg, args)
		return writeEnvelope(cmd.OutOrStdout(), resp)
	}
}

// writeEnvelope prints resp as indented JSON and reports its error, if any
func writeEnvelope(w io.Writer, resp models.Response) error {
	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	if _, err := fmt.Fprintln(w, string(out)); err != nil {
		return err
	}
	if !resp.OK() {
		return errors.New(*resp.Error)
	}
	return nil
}
