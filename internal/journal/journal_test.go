package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leolearn/leo/internal/session"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "leo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleArchive(id, concept string, mastery *float64, startedAt time.Time) session.Archive {
	return session.Archive{
		SessionID:      id,
		ChildName:      "Mira",
		Concept:        concept,
		StartedAt:      startedAt,
		DurationSecs:   420,
		MasteryPercent: mastery,
		Turns: []session.Message{
			{Role: session.RoleAssistant, Content: "Let's learn!", Kind: session.KindText},
			{Role: session.RoleUser, Content: "ok", Kind: session.KindText},
			{Role: session.RoleUser, Content: "what is it?", Kind: session.KindAudio, TranscribedText: "what is it?"},
		},
	}
}

func TestArchiveAndReplay(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	p := 87.0
	started := time.Date(2026, 5, 2, 16, 30, 0, 0, time.UTC)
	require.NoError(t, j.ArchiveSession(ctx, sampleArchive("sess-1", "fractions", &p, started)))

	sessions, err := j.RecentSessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	got := sessions[0]
	require.Equal(t, "sess-1", got.ID)
	require.Equal(t, "fractions", got.Concept)
	require.Equal(t, 420, got.DurationSecs)
	require.NotNil(t, got.MasteryPercent)
	require.Equal(t, 87.0, *got.MasteryPercent)
	require.Equal(t, started.Unix(), got.StartedAt.Unix())

	turns, err := j.Turns(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, turns, 3)
	require.Equal(t, "assistant", turns[0].Role)
	require.Equal(t, "Let's learn!", turns[0].Content)
	require.Equal(t, "audio", turns[2].Kind)
}

func TestRecentSessions_OrderAndLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		a := sampleArchive("", "fractions", nil, base.Add(time.Duration(i)*time.Hour))
		require.NoError(t, j.ArchiveSession(ctx, a))
	}

	sessions, err := j.RecentSessions(ctx, 2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	require.True(t, sessions[0].StartedAt.After(sessions[1].StartedAt), "newest first")
}

func TestArchiveSession_ReplaceIsIdempotent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	started := time.Date(2026, 5, 2, 16, 30, 0, 0, time.UTC)
	a := sampleArchive("sess-1", "fractions", nil, started)
	require.NoError(t, j.ArchiveSession(ctx, a))
	require.NoError(t, j.ArchiveSession(ctx, a))

	sessions, err := j.RecentSessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	turns, err := j.Turns(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, turns, 3, "re-archiving must not duplicate turns")
}

func TestConceptMastery(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	p80, p60 := 80.0, 60.0
	require.NoError(t, j.ArchiveSession(ctx, sampleArchive("a", "fractions", &p80, base)))
	require.NoError(t, j.ArchiveSession(ctx, sampleArchive("b", "fractions", &p60, base.Add(time.Hour))))
	require.NoError(t, j.ArchiveSession(ctx, sampleArchive("c", "photosynthesis", nil, base.Add(2*time.Hour))))

	stats, err := j.ConceptMastery(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	require.Equal(t, "fractions", stats[0].Concept)
	require.Equal(t, 2, stats[0].Sessions)
	require.NotNil(t, stats[0].AvgMastery)
	require.InDelta(t, 70.0, *stats[0].AvgMastery, 0.001)

	require.Equal(t, "photosynthesis", stats[1].Concept)
	require.Equal(t, 1, stats[1].Sessions)
	require.Nil(t, stats[1].AvgMastery)
}
