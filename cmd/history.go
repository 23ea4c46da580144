package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/leolearn/leo/internal/journal"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print journaled sessions and concept mastery",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := resolveDBPath(cmd)
		if err != nil {
			return fmt.Errorf("resolve journal path: %w", err)
		}
		jrnl, err := journal.Open(dbPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer jrnl.Close()

		ctx := cmd.Context()

		limit, _ := cmd.Flags().GetInt("limit")
		sessions, err := jrnl.RecentSessions(ctx, limit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions recorded yet.")
			return nil
		}

		fmt.Printf("%-20s %-18s %-16s %-9s %s\n", "DATE", "CHILD", "CONCEPT", "DURATION", "MASTERY")
		for _, s := range sessions {
			mastery := "-"
			if s.MasteryPercent != nil {
				mastery = fmt.Sprintf("%.0f%%", *s.MasteryPercent)
			}
			dur := (time.Duration(s.DurationSecs) * time.Second).String()
			fmt.Printf("%-20s %-18s %-16s %-9s %s\n",
				s.StartedAt.Format("2006-01-02 15:04"), s.ChildName, s.Concept, dur, mastery)
		}

		stats, err := jrnl.ConceptMastery(ctx)
		if err != nil {
			return err
		}
		if len(stats) > 0 {
			fmt.Println()
			fmt.Printf("%-16s %-9s %s\n", "CONCEPT", "SESSIONS", "AVG MASTERY")
			for _, st := range stats {
				avg := "-"
				if st.AvgMastery != nil {
					avg = fmt.Sprintf("%.0f%%", *st.AvgMastery)
				}
				fmt.Printf("%-16s %-9d %s\n", st.Concept, st.Sessions, avg)
			}
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of sessions to list")
}
