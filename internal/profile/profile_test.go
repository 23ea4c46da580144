package profile

import (
	"testing"

	"github.com/leolearn/leo/internal/session"
)

func TestProfile_RoleLifecycle(t *testing.T) {
	p := New()
	if p.Kind() != KindNone {
		t.Fatalf("Kind = %v, want None", p.Kind())
	}

	p.SessionStarted(session.ChildIdentity{ID: "c1", Name: "Mira", AgeLevel: 8, LearningCode: "LEO-782"})
	if p.Kind() != KindChild {
		t.Fatalf("Kind = %v, want Child", p.Kind())
	}
	child, ok := p.Child()
	if !ok || child.Name != "Mira" || child.LearningCode != "LEO-782" {
		t.Errorf("child = %+v, ok = %v", child, ok)
	}

	p.LoggedOut()
	if p.Kind() != KindNone {
		t.Errorf("Kind = %v after logout, want None", p.Kind())
	}
	if _, ok := p.Child(); ok {
		t.Error("child data must be cleared on logout")
	}
}

func TestProfile_ParentReplacesChild(t *testing.T) {
	p := New()
	p.SessionStarted(session.ChildIdentity{Name: "Mira"})
	p.SetParent()

	if p.Kind() != KindParent {
		t.Fatalf("Kind = %v, want Parent", p.Kind())
	}
	if _, ok := p.Child(); ok {
		t.Error("child data must not survive a role switch")
	}
}
