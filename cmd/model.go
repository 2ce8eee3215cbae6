package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/soocke/pixel-tracker-go/config"
	"github.com/soocke/pixel-tracker-go/domain/inference"
)

func inspectModel(cmd *cobra.Command, args []string) error {
	snap, _ := loadConfig(NewLogger(io.Discard, slog.LevelInfo))
	opts := inference.Options{Size: snap.ModelSize, Slots: snap.ModelSlots, OnnxLibraryPath: snap.OnnxLibraryPath}
	if n, _ := cmd.Flags().GetInt("size"); n > 0 {
		opts.Size = n
	}
	if n, _ := cmd.Flags().GetInt("slots"); n > 0 {
		opts.Slots = n
	}
	info, err := inference.Inspect(args[0], opts)
	if err != nil {
		return err
	}
	printModelInfo(cmd.OutOrStdout(), info)
	if !info.Compatible() {
		return fmt.Errorf("model %s does not match size %d with %d slots", args[0], opts.Size, opts.Slots)
	}
	return nil
}

func printModelInfo(w io.Writer, info inference.ModelInfo) {
	fmt.Fprintf(w, "model:   %s\n", info.Path)
	fmt.Fprintf(w, "backend: %s\n", info.Backend)
	fmt.Fprintf(w, "layout:  %s\n", info.Layout)
	fmt.Fprintf(w, "input:   %v%s\n", info.InputShape, verdict(info.InputErr))
	fmt.Fprintf(w, "output:  %v%s\n", info.OutputShape, verdict(info.OutputErr))
}

func verdict(err error) string {
	if err != nil {
		return "  MISMATCH: " + err.Error()
	}
	return "  ok"
}

func initConfig(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if len(args) == 1 {
		path = args[0]
	}
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s exists; use --force to overwrite", path)
	}
	if err := config.DefaultSnapshot().Save(path); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
