package interactions

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/snowflake/v2"
)

func TestViewBuildRows(t *testing.T) {
	m := New()
	v := NewView(m)
	for i := range 7 {
		if err := v.AddButton(&Button{CustomID: fmt.Sprint(i), Label: fmt.Sprint(i)}); err != nil {
			t.Fatalf("add button %d: %v", i, err)
		}
	}
	rows := v.Build()
	if len(rows) != 2 {
		t.Fatalf("expected 2 action rows, got %d", len(rows))
	}
}

func TestViewItemLimits(t *testing.T) {
	v := NewView(New())
	for i := range maxViewItems {
		if err := v.AddButton(&Button{CustomID: fmt.Sprint(i)}); err != nil {
			t.Fatalf("add button %d: %v", i, err)
		}
	}
	if err := v.AddButton(&Button{CustomID: "overflow"}); !errors.Is(err, ErrTooManyItems) {
		t.Fatalf("expected ErrTooManyItems, got %v", err)
	}

	v = NewView(New())
	if err := v.AddButton(&Button{CustomID: "same"}); err != nil {
		t.Fatalf("add button: %v", err)
	}
	if err := v.AddButton(&Button{CustomID: "same"}); !errors.Is(err, ErrDuplicateItem) {
		t.Fatalf("expected ErrDuplicateItem, got %v", err)
	}
}

func TestViewStartRequiresLoad(t *testing.T) {
	v := NewView(New())
	if err := v.AddButton(&Button{CustomID: "a"}); err != nil {
		t.Fatalf("add button: %v", err)
	}
	if err := v.Start(1); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("expected ErrNotLoaded, got %v", err)
	}
}

func TestViewRunsMatchingCallbackAndAutodefers(t *testing.T) {
	m, _, em := loadManager(t)
	called := make(chan string, 2)
	v := NewView(m)
	for _, id := range []string{"yes", "no"} {
		if err := v.AddButton(&Button{CustomID: id, Callback: func(_ context.Context, c *ViewContext) error {
			called <- c.CustomID()
			return nil
		}}); err != nil {
			t.Fatalf("add button: %v", err)
		}
	}
	if err := v.Start(900); err != nil {
		t.Fatalf("start view: %v", err)
	}

	responder := &recordingResponder{}
	em.emit(componentInteraction(t, "no", "900"), responder.respond)
	// same custom id on another message must be ignored
	em.emit(componentInteraction(t, "yes", "901"), (&recordingResponder{}).respond)
	waitIdle(t, m)

	select {
	case id := <-called:
		if id != "no" {
			t.Fatalf("expected the %q callback, got %q", "no", id)
		}
	default:
		t.Fatalf("expected a callback to run")
	}
	if len(called) != 0 {
		t.Fatalf("expected exactly one callback")
	}
	got := responder.responses()
	if len(got) != 1 || got[0] != discord.InteractionResponseTypeDeferredUpdateMessage {
		t.Fatalf("expected a deferred update, got %v", got)
	}
}

func TestViewCallbackResponseSkipsAutodefer(t *testing.T) {
	m, _, em := loadManager(t)
	v := NewView(m)
	if err := v.AddButton(&Button{CustomID: "reply", Callback: func(_ context.Context, c *ViewContext) error {
		return c.RespondContent("hi", true)
	}}); err != nil {
		t.Fatalf("add button: %v", err)
	}
	if err := v.Start(900); err != nil {
		t.Fatalf("start view: %v", err)
	}

	responder := &recordingResponder{}
	em.emit(componentInteraction(t, "reply", "900"), responder.respond)
	waitIdle(t, m)

	got := responder.responses()
	if len(got) != 1 || got[0] != discord.InteractionResponseTypeCreateMessage {
		t.Fatalf("expected a single message response, got %v", got)
	}
}

func TestViewCheckBlocksCallbacks(t *testing.T) {
	m, _, em := loadManager(t)
	ran := false
	v := NewView(m, WithCheck(func(c *ViewContext) bool {
		return c.User().ID == 1
	}))
	if err := v.AddButton(&Button{CustomID: "a", Callback: func(context.Context, *ViewContext) error {
		ran = true
		return nil
	}}); err != nil {
		t.Fatalf("add button: %v", err)
	}
	if err := v.Start(900); err != nil {
		t.Fatalf("start view: %v", err)
	}
	em.emit(componentInteraction(t, "a", "900"), (&recordingResponder{}).respond)
	waitIdle(t, m)
	if ran {
		t.Fatalf("expected check to block the callback")
	}
}

func TestViewReplacesViewOnSameMessage(t *testing.T) {
	m, _, _ := loadManager(t)
	first := NewView(m)
	second := NewView(m)
	for _, v := range []*View{first, second} {
		if err := v.AddButton(&Button{CustomID: "a"}); err != nil {
			t.Fatalf("add button: %v", err)
		}
	}
	if err := first.Start(900); err != nil {
		t.Fatalf("start first: %v", err)
	}
	if err := second.Start(900); err != nil {
		t.Fatalf("start second: %v", err)
	}

	if first.Active() {
		t.Fatalf("expected first view to be stopped")
	}
	got, ok := m.Views().Get(900)
	if !ok || got != second {
		t.Fatalf("expected second view to be tracked")
	}
	if n := m.registry.Len(EventTypeComponentInteraction); n != 1 {
		t.Fatalf("expected one view listener, got %d", n)
	}
}

func TestViewStartTwice(t *testing.T) {
	m, _, _ := loadManager(t)
	v := NewView(m)
	if err := v.AddButton(&Button{CustomID: "a"}); err != nil {
		t.Fatalf("add button: %v", err)
	}
	if err := v.Start(900); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := v.Start(901); !errors.Is(err, ErrViewStarted) {
		t.Fatalf("expected ErrViewStarted, got %v", err)
	}
}

func TestViewLinkOnlyIsNotTracked(t *testing.T) {
	m, _, _ := loadManager(t)
	v := NewView(m)
	if err := v.AddButton(&Button{Label: "Docs", URL: "https://example.com"}); err != nil {
		t.Fatalf("add button: %v", err)
	}
	if err := v.Start(900); err != nil {
		t.Fatalf("start: %v", err)
	}
	if m.Views().Len() != 0 {
		t.Fatalf("expected link-only view not to be tracked")
	}
}

func TestViewTimeout(t *testing.T) {
	m, _, _ := loadManager(t)
	timedOut := make(chan struct{})
	v := NewView(m, WithTimeout(20*time.Millisecond), WithOnTimeout(func(*View) {
		close(timedOut)
	}))
	if err := v.AddButton(&Button{CustomID: "a"}); err != nil {
		t.Fatalf("add button: %v", err)
	}
	if err := v.Start(900); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := v.Wait(ctx); err != nil {
		t.Fatalf("wait for view: %v", err)
	}
	select {
	case <-timedOut:
	default:
		t.Fatalf("expected timeout hook to run")
	}
	if _, ok := m.Views().Get(900); ok {
		t.Fatalf("expected timed out view to be untracked")
	}
}

func TestPersistentListenerSurvivesReload(t *testing.T) {
	m, _, _ := loadManager(t)
	hits := make(chan struct{}, 1)
	v := NewView(m, WithTimeout(0))
	if err := v.AddButton(&Button{CustomID: "persistent", Callback: func(context.Context, *ViewContext) error {
		hits <- struct{}{}
		return nil
	}}); err != nil {
		t.Fatalf("add button: %v", err)
	}
	if err := v.StartListener(); err != nil {
		t.Fatalf("start listener: %v", err)
	}
	if m.Views().Len() != 0 {
		t.Fatalf("expected unbound view not to be bound to a message")
	}
	if err := m.Unload(); err != nil {
		t.Fatalf("unload: %v", err)
	}
	if v.Active() {
		t.Fatalf("expected unbound view to be detached by unload")
	}
	select {
	case <-v.Done():
		t.Fatalf("expected detached view not to be stopped")
	default:
	}

	app, em := newFakeApp()
	if err := m.Load(app); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if err := v.StartListener(); err != nil {
		t.Fatalf("restart listener: %v", err)
	}
	em.emit(componentInteraction(t, "persistent", "901"), (&recordingResponder{}).respond)
	waitIdle(t, m)
	select {
	case <-hits:
	default:
		t.Fatalf("expected restarted view to receive the interaction")
	}

	v.Stop()
	if v.Active() {
		t.Fatalf("expected view to stop")
	}
}

func TestStartListenerRequiresPersistentView(t *testing.T) {
	m, _, _ := loadManager(t)
	v := NewView(m)
	if err := v.AddButton(&Button{CustomID: "a"}); err != nil {
		t.Fatalf("add button: %v", err)
	}
	if err := v.StartListener(); !errors.Is(err, ErrNotPersistent) {
		t.Fatalf("expected ErrNotPersistent, got %v", err)
	}
}

func TestNavigatorPageToggles(t *testing.T) {
	m, _, em := loadManager(t)
	pages := []discord.Embed{{Title: "one"}, {Title: "two"}, {Title: "three"}}
	n, err := NewNavigator(m, pages)
	if err != nil {
		t.Fatalf("new navigator: %v", err)
	}
	if !n.first.Disabled || !n.prev.Disabled || n.next.Disabled || n.last.Disabled {
		t.Fatalf("expected only forward buttons enabled on the first page")
	}
	if n.indicator.Label != "1/3" {
		t.Fatalf("expected indicator 1/3, got %q", n.indicator.Label)
	}

	messageID := snowflake.ID(900)
	if err := n.Start(messageID); err != nil {
		t.Fatalf("start navigator: %v", err)
	}

	responder := &recordingResponder{}
	em.emit(componentInteraction(t, navLastID, "900"), responder.respond)
	waitIdle(t, m)

	if n.CurrentPage() != 2 {
		t.Fatalf("expected last page, got %d", n.CurrentPage())
	}
	if n.first.Disabled || n.prev.Disabled || !n.next.Disabled || !n.last.Disabled {
		t.Fatalf("expected only backward buttons enabled on the last page")
	}
	got := responder.responses()
	if len(got) != 1 || got[0] != discord.InteractionResponseTypeUpdateMessage {
		t.Fatalf("expected an update message response, got %v", got)
	}

	em.emit(componentInteraction(t, navPrevID, "900"), (&recordingResponder{}).respond)
	waitIdle(t, m)
	if n.CurrentPage() != 1 || n.indicator.Label != "2/3" {
		t.Fatalf("expected page 2/3, got %d (%s)", n.CurrentPage()+1, n.indicator.Label)
	}

	em.emit(componentInteraction(t, navStopID, "900"), (&recordingResponder{}).respond)
	waitIdle(t, m)
	if n.Active() {
		t.Fatalf("expected navigator to stop")
	}
}

func TestNavigatorNeedsPages(t *testing.T) {
	if _, err := NewNavigator(New(), nil); err == nil {
		t.Fatalf("expected an error for an empty navigator")
	}
}

func TestNavigatorTimeoutDisablesButtons(t *testing.T) {
	m, app, _ := loadManager(t)
	pages := []discord.Embed{{Title: "one"}, {Title: "two"}}
	n, err := NewNavigator(m, pages, WithTimeout(20*time.Millisecond))
	if err != nil {
		t.Fatalf("new navigator: %v", err)
	}
	message, err := n.Send(400)
	if err != nil {
		t.Fatalf("send navigator: %v", err)
	}
	if message.ID != 900 || n.MessageID() != 900 {
		t.Fatalf("expected navigator to be bound to message 900")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		t.Fatalf("wait for navigator: %v", err)
	}
	for _, item := range n.Items() {
		if !item.Disabled {
			t.Fatalf("expected %s to be disabled", item.CustomID)
		}
	}
	updates := app.rest.(*fakeRest).updates()
	if len(updates) != 1 || updates[0].Components == nil || len(*updates[0].Components) != 2 {
		t.Fatalf("expected one message update with the disabled rows, got %d", len(updates))
	}
}

func TestNavigatorKeepsCustomTimeoutHook(t *testing.T) {
	m, app, _ := loadManager(t)
	hooked := make(chan struct{})
	n, err := NewNavigator(m, []discord.Embed{{Title: "one"}, {Title: "two"}},
		WithTimeout(20*time.Millisecond),
		WithOnTimeout(func(*View) { close(hooked) }))
	if err != nil {
		t.Fatalf("new navigator: %v", err)
	}
	if _, err := n.Send(400); err != nil {
		t.Fatalf("send navigator: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := n.Wait(ctx); err != nil {
		t.Fatalf("wait for navigator: %v", err)
	}
	select {
	case <-hooked:
	default:
		t.Fatalf("expected the custom timeout hook to run")
	}
	if len(app.rest.(*fakeRest).updates()) != 0 {
		t.Fatalf("expected no default message update")
	}
}
