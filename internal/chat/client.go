package chat

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

// Message is a single channel message with its thread handle.
type Message struct {
	Text   string
	Handle string
}

// Client wraps the Slack API for the relay: scanning channel history for
// order markers and posting threaded replies.
type Client struct {
	api       *slack.Client
	channelID string
	pageLimit int
}

// NewClient creates a Slack client bound to a single relay channel.
// Extra options are passed through to the underlying API client
// (tests use slack.OptionAPIURL).
func NewClient(token, channelID string, pageLimit int, timeout time.Duration, opts ...slack.Option) *Client {
	options := append([]slack.Option{
		slack.OptionHTTPClient(&http.Client{Timeout: timeout}),
	}, opts...)

	return &Client{
		api:       slack.New(token, options...),
		channelID: channelID,
		pageLimit: pageLimit,
	}
}

// History returns the most recent messages in the relay channel, newest
// first, reduced to text plus thread handle.
func (c *Client) History(ctx context.Context) ([]Message, error) {
	resp, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: c.channelID,
		Limit:     c.pageLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch channel history: %w", err)
	}

	messages := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, Message{
			Text:   m.Text,
			Handle: m.Timestamp,
		})
	}
	return messages, nil
}

// PostReply posts a comment into the thread identified by threadHandle,
// rendered as a section block with the author line plus a context footer.
func (c *Client) PostReply(ctx context.Context, threadHandle, author, text string) error {
	if author == "" {
		author = "Shopify"
	}

	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*💬 %s*\n%s", author, text), false, false),
		nil, nil,
	)
	footer := slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("_From Shopify • %s_", time.Now().Format("2006-01-02 15:04:05")), false, false),
	)

	_, _, err := c.api.PostMessageContext(ctx, c.channelID,
		slack.MsgOptionTS(threadHandle),
		slack.MsgOptionText("💬 "+text, false),
		slack.MsgOptionBlocks(section, footer),
	)
	if err != nil {
		return fmt.Errorf("post thread reply: %w", err)
	}
	return nil
}
