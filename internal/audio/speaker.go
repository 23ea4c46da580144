package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Synthesizer produces spoken audio for assistant text. Implemented by the
// learning service client.
type Synthesizer interface {
	Synthesize(ctx context.Context, sessionID, text, voice string) ([]byte, error)
}

// Playback is one in-progress audio playback.
type Playback interface {
	Stop()
}

// Player starts playback of an audio file.
type Player interface {
	Play(path string) (Playback, error)
}

// Speaker plays assistant messages aloud. Synthesized audio is cached per
// message index, not per text, and reused on replay. Playback is exclusive:
// starting a new message stops the one playing. Synthesis failures degrade
// silently; spoken replies are a convenience, not part of the learning
// contract.
type Speaker struct {
	synth Synthesizer
	plyr  Player
	voice string
	logf  func(format string, args ...any)

	mu      sync.Mutex
	cache   map[int]string // message index -> cached audio file
	current Playback
}

// NewSpeaker creates a Speaker. A nil player selects the system command
// player; a nil logf logs to stderr.
func NewSpeaker(synth Synthesizer, plyr Player, voice string, logf func(string, ...any)) *Speaker {
	if plyr == nil {
		plyr = &CommandPlayer{}
	}
	if logf == nil {
		logf = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}
	}
	return &Speaker{
		synth: synth,
		plyr:  plyr,
		voice: voice,
		logf:  logf,
		cache: make(map[int]string),
	}
}

// PlayMessage speaks the assistant message at the given log index. The
// first call for an index fetches synthesized audio; later calls replay
// the cached file without a new request. Failures are logged, never
// surfaced.
func (sp *Speaker) PlayMessage(ctx context.Context, sessionID string, index int, text string) {
	sp.mu.Lock()
	path, cached := sp.cache[index]
	sp.mu.Unlock()

	if !cached {
		data, err := sp.synth.Synthesize(ctx, sessionID, text, sp.voice)
		if err != nil {
			sp.logf("speech synthesis failed for message %d: %v", index, err)
			return
		}
		path = filepath.Join(os.TempDir(), "leo-tts-"+uuid.NewString()+".mp3")
		if err := os.WriteFile(path, data, 0o600); err != nil {
			sp.logf("cache synthesized audio: %v", err)
			return
		}
		sp.mu.Lock()
		sp.cache[index] = path
		sp.mu.Unlock()
	}

	sp.mu.Lock()
	if sp.current != nil {
		sp.current.Stop()
		sp.current = nil
	}
	pb, err := sp.plyr.Play(path)
	if err != nil {
		sp.mu.Unlock()
		sp.logf("audio playback failed: %v", err)
		return
	}
	sp.current = pb
	sp.mu.Unlock()
}

// Stop halts any active playback.
func (sp *Speaker) Stop() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.current != nil {
		sp.current.Stop()
		sp.current = nil
	}
}

// Close stops playback and releases every cached audio file. The cache has
// a manual lifetime tied to the owning view; nothing is reclaimed
// implicitly.
func (sp *Speaker) Close() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	if sp.current != nil {
		sp.current.Stop()
		sp.current = nil
	}
	for idx, path := range sp.cache {
		os.Remove(path)
		delete(sp.cache, idx)
	}
}

// playerCandidates are the system playback tools probed in order.
var playerCandidates = []struct {
	bin  string
	args func(path string) []string
}{
	{"afplay", func(p string) []string { return []string{p} }},
	{"mpv", func(p string) []string { return []string{"--no-video", "--really-quiet", p} }},
	{"mpg123", func(p string) []string { return []string{"-q", p} }},
	{"ffplay", func(p string) []string { return []string{"-nodisp", "-autoexit", "-loglevel", "quiet", p} }},
}

// CommandPlayer plays audio files by shelling out to the first available
// system player.
type CommandPlayer struct{}

func (cp *CommandPlayer) Play(path string) (Playback, error) {
	for _, c := range playerCandidates {
		if _, err := exec.LookPath(c.bin); err != nil {
			continue
		}
		cmd := exec.Command(c.bin, c.args(path)...)
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("start %s: %w", c.bin, err)
		}
		done := make(chan struct{})
		go func() {
			_ = cmd.Wait()
			close(done)
		}()
		return &commandPlayback{cmd: cmd, done: done}, nil
	}
	return nil, fmt.Errorf("no audio player found (tried afplay, mpv, mpg123, ffplay)")
}

type commandPlayback struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *commandPlayback) Stop() {
	select {
	case <-p.done:
		return
	default:
	}
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	<-p.done
}
