package interactions

import (
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// ViewRegistry tracks the active views bound to messages, along with unbound
// persistent views and modals waiting for a submission.
type ViewRegistry struct {
	mu      sync.Mutex
	views   map[snowflake.ID]*View
	unbound map[*View]struct{}
	modals  map[*Modal]struct{}
}

func newViewRegistry() *ViewRegistry {
	return &ViewRegistry{
		views:   make(map[snowflake.ID]*View),
		unbound: make(map[*View]struct{}),
		modals:  make(map[*Modal]struct{}),
	}
}

// Get returns the active view bound to messageID.
func (r *ViewRegistry) Get(messageID snowflake.ID) (*View, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.views[messageID]
	return v, ok
}

func (r *ViewRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// StopAll stops every view bound to a message.
func (r *ViewRegistry) StopAll() {
	r.mu.Lock()
	views := make([]*View, 0, len(r.views))
	for _, v := range r.views {
		views = append(views, v)
	}
	r.mu.Unlock()

	for _, v := range views {
		v.Stop()
	}
}

func (r *ViewRegistry) add(messageID snowflake.ID, v *View) *View {
	r.mu.Lock()
	defer r.mu.Unlock()
	previous := r.views[messageID]
	r.views[messageID] = v
	return previous
}

func (r *ViewRegistry) remove(messageID snowflake.ID, v *View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.views[messageID] == v {
		delete(r.views, messageID)
	}
}

// detachAll stops pending modals and detaches unbound persistent views so they
// can be started again once the manager is loaded.
func (r *ViewRegistry) detachAll() {
	r.mu.Lock()
	unbound := make([]*View, 0, len(r.unbound))
	for v := range r.unbound {
		unbound = append(unbound, v)
	}
	modals := make([]*Modal, 0, len(r.modals))
	for m := range r.modals {
		modals = append(modals, m)
	}
	clear(r.unbound)
	r.mu.Unlock()

	for _, v := range unbound {
		v.detach()
	}
	for _, m := range modals {
		m.Stop()
	}
}

func (r *ViewRegistry) addUnbound(v *View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unbound[v] = struct{}{}
}

func (r *ViewRegistry) removeUnbound(v *View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.unbound, v)
}

func (r *ViewRegistry) addModal(m *Modal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.modals[m] = struct{}{}
}

func (r *ViewRegistry) removeModal(m *Modal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.modals, m)
}
