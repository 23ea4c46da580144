package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "leo",
	Short: "AI tutor for kids",
	Long:  "Leo — terminal client for the Leo tutoring service: voice and text lessons, quizzes, and a local parent journal.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd, "")
	},
}

func Execute() error {
	// A .env next to the binary is a convenience for development setups;
	// missing files are fine.
	godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("api", "", "Base URL of the tutoring service (overrides LEO_API_URL)")
	rootCmd.PersistentFlags().String("db", "", "Path to the SQLite journal file (overrides LEO_DB)")

	rootCmd.AddCommand(learnCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
