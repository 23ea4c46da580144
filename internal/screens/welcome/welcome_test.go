package welcome

import (
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/leolearn/leo/internal/api"
	"github.com/leolearn/leo/internal/router"
	"github.com/leolearn/leo/internal/screen"
	sess "github.com/leolearn/leo/internal/session"
)

// stubScreen is a minimal screen implementation for testing.
type stubScreen struct{}

func (s *stubScreen) Init() tea.Cmd                           { return nil }
func (s *stubScreen) Update(tea.Msg) (screen.Screen, tea.Cmd) { return s, nil }
func (s *stubScreen) View(int, int) string                    { return "session" }
func (s *stubScreen) Title() string                           { return "Session" }

func testWelcome(results ...api.MockResult) (*WelcomeScreen, *int) {
	mock := api.NewMock(results...)
	mgr := sess.NewManager(sess.NewStore(), mock, sess.Options{
		ResetDelay: time.Hour,
		Logf:       func(string, ...any) {},
	})
	sessionCalls := 0
	factory := func() screen.Screen {
		sessionCalls++
		return &stubScreen{}
	}
	w := New(mgr, factory, factory)
	w.Init()
	return w, &sessionCalls
}

func TestSubmitEmptyCode(t *testing.T) {
	w, calls := testWelcome()

	scr, cmd := w.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	ww := scr.(*WelcomeScreen)
	if cmd != nil {
		t.Error("expected no command for an empty code")
	}
	if ww.errMsg == "" {
		t.Error("expected a prompt to enter a code")
	}
	if *calls != 0 {
		t.Error("session screen must not be created")
	}
}

func TestSubmitSuccessReplacesWithSession(t *testing.T) {
	w, calls := testWelcome(api.MockResult{Start: &api.SessionStartResponse{
		SessionID: "sess-1",
		ChildName: "Maya",
		AgeLevel:  8,
		Concept:   "fractions",
	}})
	w.input.Model.SetValue("leo-782")

	_, cmd := w.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a start command")
	}

	msg := cmd()
	started, ok := msg.(startedMsg)
	if !ok {
		t.Fatalf("msg = %T, want startedMsg", msg)
	}
	if started.Err != nil {
		t.Fatalf("start failed: %v", started.Err)
	}

	scr, cmd := w.Update(started)
	if cmd == nil {
		t.Fatal("expected a navigation command after a successful start")
	}
	if _, ok := cmd().(router.ReplaceScreenMsg); !ok {
		t.Error("expected the welcome screen to be replaced")
	}
	if *calls != 1 {
		t.Errorf("session factory calls = %d, want 1", *calls)
	}
	if scr.(*WelcomeScreen).errMsg != "" {
		t.Error("no error expected on success")
	}
}

func TestSubmitRejectionShowsServiceDetail(t *testing.T) {
	w, calls := testWelcome(api.MockResult{Err: &api.RequestError{
		Status: 404,
		Detail: "Invalid or expired learning code",
	}})
	w.input.Model.SetValue("LEO-000")

	_, cmd := w.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a start command")
	}

	scr, _ := w.Update(cmd())
	ww := scr.(*WelcomeScreen)
	if ww.errMsg != "Invalid or expired learning code" {
		t.Errorf("errMsg = %q, want the service detail", ww.errMsg)
	}
	if *calls != 0 {
		t.Error("session screen must not be created on rejection")
	}
}

func TestValueIsUppercased(t *testing.T) {
	w, _ := testWelcome()
	w.input.Model.SetValue("  leo-782 ")
	if got := w.input.Value(); got != "LEO-782" {
		t.Errorf("Value = %q, want %q", got, "LEO-782")
	}
}
