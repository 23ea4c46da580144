package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// version is set via -ldflags at build time.
var version = "(devel)"

const releaseURL = "https://api.github.com/repos/leolearn/leo/releases/latest"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("leo", version)

		check, _ := cmd.Flags().GetBool("check")
		if !check {
			return nil
		}
		if !semver.IsValid(version) {
			fmt.Println("Development build, skipping release check.")
			return nil
		}

		latest, err := latestReleaseTag(cmd.Context())
		if err != nil {
			return fmt.Errorf("check latest release: %w", err)
		}
		switch semver.Compare(version, latest) {
		case -1:
			fmt.Printf("A newer release is available: %s\n", latest)
		default:
			fmt.Println("You are on the latest release.")
		}
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("check", false, "Compare against the latest published release")
}

func latestReleaseTag(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var release struct {
		TagName string `json:"tag_name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", err
	}
	if !semver.IsValid(release.TagName) {
		return "", fmt.Errorf("unexpected tag %q", release.TagName)
	}
	return release.TagName, nil
}
