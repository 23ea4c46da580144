package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leolearn/leo/internal/api"
	"github.com/leolearn/leo/internal/app"
	"github.com/leolearn/leo/internal/audio"
	"github.com/leolearn/leo/internal/journal"
	"github.com/leolearn/leo/internal/profile"
	sess "github.com/leolearn/leo/internal/session"
)

// runApp opens the journal, builds dependencies, and launches the TUI.
// A non-empty code starts a session immediately once the UI is up.
func runApp(cmd *cobra.Command, code string) error {
	cfg, err := resolveAPIConfig(cmd)
	if err != nil {
		return err
	}
	client := api.New(cfg)

	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve journal path: %w", err)
	}
	jrnl, err := journal.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer jrnl.Close()

	prof := profile.New()
	notifier := app.NewNotifier(prof)

	store := sess.NewStore()
	mgr := sess.NewManager(store, client, sess.Options{
		Notifier: notifier,
		Archiver: jrnl,
	})

	if code != "" {
		if err := mgr.StartSession(cmd.Context(), code); err != nil {
			fmt.Fprintln(os.Stderr, "Could not start the session:", err)
			return err
		}
	}

	recorder := audio.NewRecorder(nil)
	speaker := audio.NewSpeaker(client, nil, cfg.Voice, nil)
	defer speaker.Close()

	return app.Run(app.Options{
		Manager:  mgr,
		Recorder: recorder,
		Speaker:  speaker,
		Journal:  jrnl,
		Profile:  prof,
		Notifier: notifier,
	})
}

// resolveAPIConfig builds the service config from env, then applies the
// --api flag on top.
func resolveAPIConfig(cmd *cobra.Command) (api.Config, error) {
	cfg := api.ConfigFromEnv()
	if u, _ := cmd.Flags().GetString("api"); u != "" {
		cfg.BaseURL = u
	}
	if err := cfg.Validate(); err != nil {
		return api.Config{}, fmt.Errorf("service config: %w", err)
	}
	return cfg, nil
}

// resolveDBPath returns the journal path using --db flag (highest
// priority), then LEO_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, journal.EnsureDir(p)
	}
	return journal.DefaultPath()
}
