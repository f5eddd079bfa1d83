package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luma/natscope/internal/meta"
)

var rootCmd = &cobra.Command{
	Use:   "natscope",
	Short: "Passive decoder for captured NATS client protocol traffic",
	Long: `natscope decodes the NATS client wire protocol from captured byte
streams. It never joins the conversation: point mirrored traffic at its tap,
or hand it a raw capture file, and it reconstructs the frames.`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := meta.GetInfo()
		fmt.Printf("natscope %s (%s, %s, %s)\n",
			info.Version, info.Build, info.Platform, info.GoVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(TapCmd)
	rootCmd.AddCommand(DecodeCmd)
	rootCmd.AddCommand(ReplayCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
