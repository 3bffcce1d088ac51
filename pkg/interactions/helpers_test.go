package interactions

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
)

const (
	testGuildID   = "300"
	testChannelID = "400"
	testUserID    = "500"
	testRoleID    = "600"
)

type fakeEventManager struct {
	mu        sync.Mutex
	listeners []bot.EventListener
}

func (m *fakeEventManager) AddEventListeners(listeners ...bot.EventListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, listeners...)
}

func (m *fakeEventManager) RemoveEventListeners(listeners ...bot.EventListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, listener := range listeners {
		for i, l := range m.listeners {
			if l == listener {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				break
			}
		}
	}
}

func (m *fakeEventManager) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.listeners)
}

// emit delivers a raw interaction the way the gateway would.
func (m *fakeEventManager) emit(raw discord.Interaction, respond events.InteractionResponderFunc) {
	m.mu.Lock()
	listeners := append([]bot.EventListener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range listeners {
		l.OnEvent(&events.InteractionCreate{Interaction: raw, Respond: respond})
	}
}

// fakeRest records message writes. Any other REST call panics.
type fakeRest struct {
	rest.Rest
	mu      sync.Mutex
	created []discord.MessageCreate
	updated []discord.MessageUpdate
}

func (r *fakeRest) CreateMessage(channelID snowflake.ID, messageCreate discord.MessageCreate, _ ...rest.RequestOpt) (*discord.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, messageCreate)
	return &discord.Message{ID: 900, ChannelID: channelID}, nil
}

func (r *fakeRest) UpdateMessage(channelID snowflake.ID, messageID snowflake.ID, messageUpdate discord.MessageUpdate, _ ...rest.RequestOpt) (*discord.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, messageUpdate)
	return &discord.Message{ID: messageID, ChannelID: channelID}, nil
}

func (r *fakeRest) updates() []discord.MessageUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]discord.MessageUpdate(nil), r.updated...)
}

type fakeApp struct {
	eventManager EventManager
	rest         rest.Rest
}

func (a *fakeApp) EventManager() EventManager {
	return a.eventManager
}

func (a *fakeApp) Rest() rest.Rest {
	return a.rest
}

func newFakeApp() (*fakeApp, *fakeEventManager) {
	em := &fakeEventManager{}
	return &fakeApp{
		eventManager: em,
		rest:         &fakeRest{},
	}, em
}

type recordingResponder struct {
	mu    sync.Mutex
	types []discord.InteractionResponseType
}

func (r *recordingResponder) respond(responseType discord.InteractionResponseType, _ discord.InteractionResponseData, _ ...rest.RequestOpt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, responseType)
	return nil
}

func (r *recordingResponder) responses() []discord.InteractionResponseType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]discord.InteractionResponseType(nil), r.types...)
}

const interactionBase = `"id":"100","application_id":"200","token":"token","version":1,` +
	`"guild_id":"` + testGuildID + `","channel_id":"` + testChannelID + `",` +
	`"channel":{"id":"` + testChannelID + `","type":0,"guild_id":"` + testGuildID + `","name":"general","position":0,"permissions":"0"},` +
	`"member":{"user":{"id":"` + testUserID + `","username":"student","discriminator":"0"},"roles":["` + testRoleID + `"],"joined_at":"2024-01-01T00:00:00Z","permissions":"0"},` +
	`"locale":"en-US"`

func componentInteraction(t *testing.T, customID string, messageID string) discord.ComponentInteraction {
	t.Helper()
	raw := fmt.Sprintf(`{%s,"type":3,"data":{"component_type":2,"custom_id":%q},`+
		`"message":{"id":%q,"channel_id":"%s","type":0,"content":"","author":{"id":"200","username":"kasugai","discriminator":"0"},`+
		`"timestamp":"2024-01-01T00:00:00Z","attachments":[],"embeds":[],"mentions":[],"mention_roles":[],"pinned":false,"mention_everyone":false,"tts":false,"flags":0}}`,
		interactionBase, customID, messageID, testChannelID)
	var interaction discord.ComponentInteraction
	if err := json.Unmarshal([]byte(raw), &interaction); err != nil {
		t.Fatalf("unmarshal component interaction: %v", err)
	}
	return interaction
}

func modalInteraction(t *testing.T, customID string, inputs ...string) discord.ModalSubmitInteraction {
	t.Helper()
	var components []string
	for i := 0; i+1 < len(inputs); i += 2 {
		components = append(components, fmt.Sprintf(`{"type":18,"id":%d,"component":{"type":4,"id":%d,"custom_id":%q,"value":%q}}`,
			i+1, i+2, inputs[i], inputs[i+1]))
	}
	raw := fmt.Sprintf(`{%s,"type":5,"data":{"custom_id":%q,"components":[%s]}}`,
		interactionBase, customID, strings.Join(components, ","))
	var interaction discord.ModalSubmitInteraction
	if err := json.Unmarshal([]byte(raw), &interaction); err != nil {
		t.Fatalf("unmarshal modal interaction: %v", err)
	}
	return interaction
}

func commandInteraction(t *testing.T) discord.ApplicationCommandInteraction {
	t.Helper()
	raw := fmt.Sprintf(`{%s,"type":2,"data":{"id":"700","name":"whatsdue","type":1}}`, interactionBase)
	var interaction discord.ApplicationCommandInteraction
	if err := json.Unmarshal([]byte(raw), &interaction); err != nil {
		t.Fatalf("unmarshal command interaction: %v", err)
	}
	return interaction
}

func waitIdle(t *testing.T, m *Manager) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.WaitUntilIdle(ctx); err != nil {
		t.Fatalf("wait until idle: %v", err)
	}
}

func loadManager(t *testing.T, opts ...ConfigOpt) (*Manager, *fakeApp, *fakeEventManager) {
	t.Helper()
	m := New(opts...)
	app, em := newFakeApp()
	if err := m.Load(app); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(func() {
		if m.Loaded() {
			_ = m.Unload()
		}
	})
	return m, app, em
}
