package interactions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/json"
	"github.com/disgoorg/snowflake/v2"
	"github.com/lmittmann/tint"
)

const (
	navFirstID     = "nav:first"
	navPrevID      = "nav:prev"
	navIndicatorID = "nav:indicator"
	navNextID      = "nav:next"
	navLastID      = "nav:last"
	navStopID      = "nav:stop"
)

var errNoPages = errors.New("interactions: a navigator needs at least one page")

// Navigator is a view that pages through embeds.
type Navigator struct {
	*View
	pages     []discord.Embed
	current   int
	channelID snowflake.ID

	first, prev, indicator, next, last *Button
}

// NewNavigator creates a navigator over pages. Unless WithOnTimeout is given,
// a timed out navigator disables its buttons on the message it was sent with.
func NewNavigator(manager *Manager, pages []discord.Embed, opts ...ViewOpt) (*Navigator, error) {
	if len(pages) == 0 {
		return nil, errNoPages
	}
	n := &Navigator{
		View:  NewView(manager, opts...),
		pages: pages,
	}
	n.first = &Button{CustomID: navFirstID, Label: "«", Style: discord.ButtonStyleSecondary, Callback: n.goTo(func() int { return 0 })}
	n.prev = &Button{CustomID: navPrevID, Label: "‹", Style: discord.ButtonStylePrimary, Callback: n.goTo(func() int { return n.current - 1 })}
	n.indicator = &Button{CustomID: navIndicatorID, Style: discord.ButtonStyleSecondary, Disabled: true}
	n.next = &Button{CustomID: navNextID, Label: "›", Style: discord.ButtonStylePrimary, Callback: n.goTo(func() int { return n.current + 1 })}
	n.last = &Button{CustomID: navLastID, Label: "»", Style: discord.ButtonStyleSecondary, Callback: n.goTo(func() int { return len(n.pages) - 1 })}
	stop := &Button{CustomID: navStopID, Label: "Stop", Style: discord.ButtonStyleDanger, Callback: n.onStop}

	for _, b := range []*Button{n.first, n.prev, n.indicator, n.next, n.last, stop} {
		if err := n.AddButton(b); err != nil {
			return nil, err
		}
	}
	if n.onTimeout == nil {
		n.onTimeout = n.disable
	}
	n.setPage(0)
	return n, nil
}

// Send posts the current page to channelID and starts the navigator on it.
func (n *Navigator) Send(channelID snowflake.ID) (*discord.Message, error) {
	app, ok := n.manager.App()
	if !ok {
		return nil, ErrNotLoaded
	}
	message, err := app.Rest().CreateMessage(channelID, n.MessageCreate())
	if err != nil {
		return nil, err
	}
	n.mu.Lock()
	n.channelID = channelID
	n.mu.Unlock()
	return message, n.Start(message.ID)
}

func (n *Navigator) disable(*View) {
	n.mu.Lock()
	for _, item := range n.items {
		item.Disabled = true
	}
	channelID, messageID := n.channelID, n.messageID
	update := discord.MessageUpdate{Components: json.Ptr(n.build())}
	n.mu.Unlock()

	if channelID == 0 || messageID == 0 {
		return
	}
	app, ok := n.manager.App()
	if !ok {
		return
	}
	if _, err := app.Rest().UpdateMessage(channelID, messageID, update); err != nil {
		n.manager.config.Logger.Warn("interactions: error while disabling a navigator",
			slog.Any("message.id", messageID),
			tint.Err(err))
	}
}

func (n *Navigator) Pages() int {
	return len(n.pages)
}

// CurrentPage returns the zero-based index of the page on display.
func (n *Navigator) CurrentPage() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// MessageCreate renders the current page for sending.
func (n *Navigator) MessageCreate() discord.MessageCreate {
	n.mu.Lock()
	defer n.mu.Unlock()
	return discord.MessageCreate{
		Embeds:     []discord.Embed{n.pages[n.current]},
		Components: n.build(),
	}
}

func (n *Navigator) messageUpdate() discord.MessageUpdate {
	n.mu.Lock()
	defer n.mu.Unlock()
	return discord.MessageUpdate{
		Embeds:     json.Ptr([]discord.Embed{n.pages[n.current]}),
		Components: json.Ptr(n.build()),
	}
}

func (n *Navigator) setPage(page int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	page = max(0, min(page, len(n.pages)-1))
	n.current = page

	atStart := page == 0
	atEnd := page == len(n.pages)-1
	n.first.Disabled = atStart
	n.prev.Disabled = atStart
	n.next.Disabled = atEnd
	n.last.Disabled = atEnd
	n.indicator.Label = fmt.Sprintf("%d/%d", page+1, len(n.pages))
}

func (n *Navigator) goTo(target func() int) ButtonCallback {
	return func(ctx context.Context, c *ViewContext) error {
		n.mu.Lock()
		page := target()
		n.mu.Unlock()
		n.setPage(page)
		return c.UpdateMessage(n.messageUpdate())
	}
}

func (n *Navigator) onStop(ctx context.Context, c *ViewContext) error {
	defer n.Stop()
	return c.UpdateMessage(discord.MessageUpdate{
		Components: json.Ptr([]discord.LayoutComponent{}),
	})
}
