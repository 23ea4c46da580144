package audio

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type fakeSynth struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeSynth) Synthesize(_ context.Context, _, text, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3:" + text), nil
}

func (f *fakeSynth) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakePlayback struct {
	stopped bool
}

func (p *fakePlayback) Stop() { p.stopped = true }

type fakePlayer struct {
	playbacks []*fakePlayback
	paths     []string
	err       error
}

func (f *fakePlayer) Play(path string) (Playback, error) {
	if f.err != nil {
		return nil, f.err
	}
	pb := &fakePlayback{}
	f.playbacks = append(f.playbacks, pb)
	f.paths = append(f.paths, path)
	return pb, nil
}

func newTestSpeaker(synth *fakeSynth, plyr *fakePlayer) *Speaker {
	return NewSpeaker(synth, plyr, "nova", func(string, ...any) {})
}

func TestSpeaker_CachesPerIndex(t *testing.T) {
	synth := &fakeSynth{}
	plyr := &fakePlayer{}
	sp := newTestSpeaker(synth, plyr)
	defer sp.Close()

	ctx := context.Background()
	sp.PlayMessage(ctx, "sess-1", 0, "Hello!")
	sp.PlayMessage(ctx, "sess-1", 0, "Hello!")

	if got := synth.callCount(); got != 1 {
		t.Errorf("synthesis requests = %d, want 1 (cache hit on replay)", got)
	}
	if len(plyr.paths) != 2 {
		t.Fatalf("playbacks = %d, want 2", len(plyr.paths))
	}
	if plyr.paths[0] != plyr.paths[1] {
		t.Error("replay must reuse the cached file")
	}
}

func TestSpeaker_SameTextDifferentIndexFetchesTwice(t *testing.T) {
	synth := &fakeSynth{}
	plyr := &fakePlayer{}
	sp := newTestSpeaker(synth, plyr)
	defer sp.Close()

	ctx := context.Background()
	sp.PlayMessage(ctx, "sess-1", 2, "Well done!")
	sp.PlayMessage(ctx, "sess-1", 5, "Well done!")

	if got := synth.callCount(); got != 2 {
		t.Errorf("synthesis requests = %d, want 2 (keyed by index, not content)", got)
	}
}

func TestSpeaker_PlaybackIsExclusive(t *testing.T) {
	synth := &fakeSynth{}
	plyr := &fakePlayer{}
	sp := newTestSpeaker(synth, plyr)
	defer sp.Close()

	ctx := context.Background()
	sp.PlayMessage(ctx, "sess-1", 0, "first")
	sp.PlayMessage(ctx, "sess-1", 1, "second")

	if len(plyr.playbacks) != 2 {
		t.Fatalf("playbacks = %d", len(plyr.playbacks))
	}
	if !plyr.playbacks[0].stopped {
		t.Error("starting the second playback must stop the first")
	}
	if plyr.playbacks[1].stopped {
		t.Error("second playback stopped prematurely")
	}
}

func TestSpeaker_SynthesisFailureIsSilent(t *testing.T) {
	var logged []string
	synth := &fakeSynth{err: errors.New("synthesis down")}
	plyr := &fakePlayer{}
	sp := NewSpeaker(synth, plyr, "nova", func(format string, args ...any) {
		logged = append(logged, format)
	})
	defer sp.Close()

	sp.PlayMessage(context.Background(), "sess-1", 0, "Hello!")

	if len(plyr.playbacks) != 0 {
		t.Error("nothing should play when synthesis fails")
	}
	if len(logged) == 0 {
		t.Error("failure must be logged")
	}

	// A later retry for the same index issues a fresh request.
	synth.err = nil
	sp.PlayMessage(context.Background(), "sess-1", 0, "Hello!")
	if got := synth.callCount(); got != 2 {
		t.Errorf("synthesis requests = %d, want 2 (failures are not cached)", got)
	}
}

func TestSpeaker_StopAndClose(t *testing.T) {
	synth := &fakeSynth{}
	plyr := &fakePlayer{}
	sp := newTestSpeaker(synth, plyr)

	ctx := context.Background()
	sp.PlayMessage(ctx, "sess-1", 0, "Hello!")
	sp.Stop()
	if !plyr.playbacks[0].stopped {
		t.Error("Stop must halt active playback")
	}

	sp.PlayMessage(ctx, "sess-1", 1, "Bye!")
	sp.Close()
	if !plyr.playbacks[1].stopped {
		t.Error("Close must halt active playback")
	}

	// After teardown the cache is gone; replay fetches again.
	sp.PlayMessage(ctx, "sess-1", 0, "Hello!")
	if got := synth.callCount(); got != 3 {
		t.Errorf("synthesis requests = %d, want 3 after cache teardown", got)
	}
}
