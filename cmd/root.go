package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "phenotrack",
	Short: "A CLI tool for plant phenotyping image analysis",
	Long: `PhenoTrack analyzes plant phenotyping data: it groups pseudo-landmarks
into homology groups across imaging days, measures the spatial distribution
of segmented objects, and serves the results over a web API.`,
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
