package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/natscope/protocol"
)

var decodeChunkSize int

func init() {
	DecodeCmd.Flags().IntVar(&decodeChunkSize, "chunk-size", 4096,
		"How many bytes to feed the decoder per read")
}

var DecodeCmd = &cobra.Command{
	Use:   "decode [file]",
	Short: "Decode a raw captured byte stream and print its frames",
	Long: `Decode a raw captured byte stream and print its frames

The file holds one connection's bytes in arrival order, exactly as they
crossed the wire. Use '-' (or no argument) to read from stdin.

Usage
	natscope decode capture.bin
	cat capture.bin | natscope decode

`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src := os.Stdin
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("Failed to open capture: %w", err)
			}
			defer f.Close()

			src = f
		}

		frames, err := decodeStream(src, cmd.OutOrStdout())
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d frames\n", frames)
		return nil
	},
}

func decodeStream(src io.Reader, out io.Writer) (int, error) {
	decoder := protocol.NewDecoder()
	total := 0

	emit := func(frames []protocol.Frame) {
		for _, frame := range frames {
			meta := frame.GetMeta()

			mark := " "
			if meta.Truncated {
				mark = "!"
			}

			fmt.Fprintf(out, "%8d %s %v\n", meta.Start, mark, frame)
			total++
		}
	}

	buf := make([]byte, decodeChunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			emit(decoder.Decode(buf[:n]))
		}

		if err != nil {
			if err != io.EOF {
				return total, fmt.Errorf("Failed to read capture: %w", err)
			}

			break
		}
	}

	emit(decoder.Flush())

	return total, nil
}
