package cmd

import (
	"fmt"
	"log"
	"os"

	"MoisHub/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "moishub",
	Short: "MoisHub is a music sharing community backend.",
	Run: func(cmd *cobra.Command, args []string) {
		log.Println("Starting MoisHub server...")
		// server.Start handles its own port and startup logging.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
