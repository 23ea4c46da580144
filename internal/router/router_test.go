package router

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/leolearn/leo/internal/screen"
)

// stubScreen is a minimal screen for testing.
type stubScreen struct {
	title   string
	initRan bool
	closed  bool
}

func (s *stubScreen) Init() tea.Cmd {
	s.initRan = true
	return nil
}
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return s.title }
func (s *stubScreen) Title() string                           { return s.title }
func (s *stubScreen) Close()                                  { s.closed = true }

func TestPush(t *testing.T) {
	s1 := &stubScreen{title: "welcome"}
	r := New(s1)

	s2 := &stubScreen{title: "session"}
	r.Push(s2)

	if r.Depth() != 2 {
		t.Errorf("expected depth 2, got %d", r.Depth())
	}
	if r.Active().Title() != "session" {
		t.Errorf("expected active 'session', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on pushed screen")
	}
}

func TestPop(t *testing.T) {
	s1 := &stubScreen{title: "welcome"}
	r := New(s1)

	s2 := &stubScreen{title: "journal"}
	r.Push(s2)
	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Active().Title() != "welcome" {
		t.Errorf("expected active 'welcome', got %q", r.Active().Title())
	}
	if !s2.closed {
		t.Error("expected popped screen to be closed")
	}
}

func TestPopNoopAtBottom(t *testing.T) {
	s1 := &stubScreen{title: "welcome"}
	r := New(s1)

	r.Pop()

	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if s1.closed {
		t.Error("bottom screen must not be closed by a no-op pop")
	}
}

func TestReplace(t *testing.T) {
	s1 := &stubScreen{title: "welcome"}
	r := New(s1)

	s2 := &stubScreen{title: "session"}
	r.Replace(s2)

	if r.Depth() != 1 {
		t.Errorf("expected depth 1, got %d", r.Depth())
	}
	if r.Active().Title() != "session" {
		t.Errorf("expected active 'session', got %q", r.Active().Title())
	}
	if !s2.initRan {
		t.Error("expected Init() to run on replacement screen")
	}
	if !s1.closed {
		t.Error("expected replaced screen to be closed")
	}
}

func TestUpdateNavigationMessages(t *testing.T) {
	s1 := &stubScreen{title: "welcome"}
	r := New(s1)

	s2 := &stubScreen{title: "session"}
	r.Update(PushScreenMsg{Screen: s2})
	if r.Depth() != 2 {
		t.Errorf("expected depth 2 after PushScreenMsg, got %d", r.Depth())
	}

	r.Update(PopScreenMsg{})
	if r.Depth() != 1 {
		t.Errorf("expected depth 1 after PopScreenMsg, got %d", r.Depth())
	}

	s3 := &stubScreen{title: "journal"}
	r.Update(ReplaceScreenMsg{Screen: s3})
	if r.Active().Title() != "journal" {
		t.Errorf("expected active 'journal', got %q", r.Active().Title())
	}
}
