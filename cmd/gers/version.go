package main

import (
	"fmt"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"gers/internal/config"
)

var (
	nameStyle    = color.New(color.FgCyan, color.Bold)
	versionStyle = color.New(color.FgGreen)
	errorStyle   = color.New(color.FgRed, color.Bold)
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the engine version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s %s/%s)\n",
			nameStyle.Sprint("gers"), versionStyle.Sprint("v"+config.Version),
			runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}
