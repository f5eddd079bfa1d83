package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luma/natscope/client"
	"github.com/luma/natscope/internal/env"
)

var (
	replayChunkSize int
	replayDelay     time.Duration
)

func init() {
	flags := ReplayCmd.Flags()
	flags.IntVar(&replayChunkSize, "chunk-size", client.DefaultChunkSize,
		"How many bytes to send per write")
	flags.DurationVar(&replayDelay, "delay", 0,
		"Optional pause between chunks")
}

var ReplayCmd = &cobra.Command{
	Use:   "replay <file> <addr>",
	Short: "Replay a raw capture file at a running tap",
	Long: `Replay a raw capture file at a running tap

Usage
	natscope replay capture.bin 127.0.0.1:7422

`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		log, err := env.MakeLogger()
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("Failed to open capture: %w", err)
		}
		defer f.Close()

		replayer := client.NewReplayer(log.Named("replay"))
		replayer.ChunkSize = replayChunkSize
		replayer.Delay = replayDelay

		ctx := context.Background()

		if err := replayer.Connect(ctx, args[1]); err != nil {
			return fmt.Errorf("Failed to connect to tap: %w", err)
		}
		defer replayer.Close()

		sent, err := replayer.Replay(ctx, f)
		if err != nil {
			return fmt.Errorf("Replay failed after %d bytes: %w", sent, err)
		}

		log.Info("Replay complete", zap.Int64("bytes", sent))
		return nil
	},
}
