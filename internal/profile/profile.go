// Package profile tracks which actor is using the app. The two actor kinds
// share one session concept but see different screens; the distinction is a
// tagged variant dispatched at the presentation boundary, not inheritance.
package profile

import (
	"sync"

	"github.com/leolearn/leo/internal/session"
)

// Kind is the actor variant.
type Kind int

const (
	KindNone Kind = iota
	KindChild
	KindParent
)

// Child is the role-specific data carried by the child variant.
type Child struct {
	ID           string
	Name         string
	AgeLevel     int
	LearningCode string
}

// Profile is the role collaborator the session manager notifies. It holds
// the active actor and their role-specific data.
type Profile struct {
	mu    sync.Mutex
	kind  Kind
	child Child
}

// New creates an empty Profile with no active role.
func New() *Profile {
	return &Profile{}
}

// Kind returns the active actor kind.
func (p *Profile) Kind() Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.kind
}

// Child returns the child data and whether a child role is active.
func (p *Profile) Child() (Child, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.child, p.kind == KindChild
}

// SetParent switches to the parent role.
func (p *Profile) SetParent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kind = KindParent
	p.child = Child{}
}

// SessionStarted installs the child role from a session start notification.
func (p *Profile) SessionStarted(c session.ChildIdentity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kind = KindChild
	p.child = Child{
		ID:           c.ID,
		Name:         c.Name,
		AgeLevel:     c.AgeLevel,
		LearningCode: c.LearningCode,
	}
}

// LoggedOut clears the active role.
func (p *Profile) LoggedOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.kind = KindNone
	p.child = Child{}
}
