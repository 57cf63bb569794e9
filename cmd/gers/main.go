package main

import (
	"runtime"

	"github.com/spf13/cobra"
	"github.com/xlab/closer"

	"gers/internal/config"
)

func init() {
	// GLFW, the GL context and the script VM all live on the main thread.
	runtime.LockOSThread()
}

var rootCmd = &cobra.Command{
	Use:           "gers",
	Short:         "Scriptable 2D game engine",
	Long:          `gers runs games written in Lua on an OpenGL sprite renderer`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.Version = config.Version
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Println(errorStyle.Sprint(err))
		closer.Exit(1)
	}
	closer.Close()
}
