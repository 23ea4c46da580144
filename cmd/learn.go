package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var learnCmd = &cobra.Command{
	Use:   "learn",
	Short: "Start a session with a learning code right away",
	RunE: func(cmd *cobra.Command, args []string) error {
		code, _ := cmd.Flags().GetString("code")
		if code == "" {
			return errors.New("a learning code is required: leo learn --code LEO-123")
		}
		return runApp(cmd, code)
	},
}

func init() {
	learnCmd.Flags().String("code", "", "Learning code handed out by the tutoring service")
}
