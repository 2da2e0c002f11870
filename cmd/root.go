// Package cmd holds the CLI commands of the visitor log book.
package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "visitor-log-book",
	Short: "Facial-recognition visitor log book",
	Long: `Visitor Log Book tracks who is inside the building. A camera kiosk
scans faces at the checkpoint: recognized present visitors are checked
out, new faces are enrolled with their details and checked in.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
