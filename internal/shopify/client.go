package shopify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const eventPageLimit = 50

// Comment is a single order comment from the Shopify event feed.
// OccurredAt is the feed's version token for the comment; it is compared
// for equality only, never parsed as a timestamp.
type Comment struct {
	Author     string
	Message    string
	OccurredAt string
}

type event struct {
	ID        int64  `json:"id"`
	Verb      string `json:"verb"`
	Body      string `json:"body"`
	Message   string `json:"message"`
	Author    string `json:"author"`
	CreatedAt string `json:"created_at"`
}

type eventsResponse struct {
	Events []event `json:"events"`
}

// Client queries the Shopify admin events API for order comments
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new event feed client.
// shopDomain may carry an explicit scheme; https is assumed otherwise.
func NewClient(shopDomain, accessToken, apiVersion string, timeout time.Duration) *Client {
	base := strings.TrimSuffix(shopDomain, "/")
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "https://" + base
	}

	return &Client{
		baseURL: fmt.Sprintf("%s/admin/api/%s", base, apiVersion),
		token:   accessToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// LatestComment returns the most recent comment-kind event for the order,
// or nil when the order has no comments yet. Transport, status and decode
// failures also fold into nil so the caller treats every attempt the same
// way: either something to deliver or nothing new.
//
// Only the single latest comment is observed. Comments posted between two
// polls of the caller are skipped; this is a known consequence of the
// latest-only contract.
func (c *Client) LatestComment(ctx context.Context, orderID string) *Comment {
	endpoint := fmt.Sprintf("%s/orders/%s/events.json?limit=%d", c.baseURL, url.PathEscape(orderID), eventPageLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		log.Printf("Shopify events request for order %s: %v", orderID, err)
		return nil
	}
	req.Header.Set("X-Shopify-Access-Token", c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Shopify events fetch for order %s failed: %v", orderID, err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("Shopify events fetch for order %s returned status %d", orderID, resp.StatusCode)
		return nil
	}

	var payload eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		log.Printf("Shopify events decode for order %s failed: %v", orderID, err)
		return nil
	}

	// The feed is ordered most-recent-first; the first comment-kind event
	// wins. Other event kinds in the same feed are ignored.
	for _, ev := range payload.Events {
		if ev.Verb != "comment" {
			continue
		}
		return &Comment{
			Author:     ev.Author,
			Message:    commentText(ev),
			OccurredAt: ev.CreatedAt,
		}
	}

	return nil
}

func commentText(ev event) string {
	if body := strings.TrimSpace(ev.Body); body != "" {
		return body
	}
	return strings.TrimSpace(ev.Message)
}
