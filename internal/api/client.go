// Package api is the REST side of the platform contract: identity, contacts,
// conversation history, the unread counter and the course assistant. The push
// channel lives in the transport package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/studyhall-app/studyhall/internal/models"
)

// ErrEntitlement marks an assistant response rejected for lack of the
// required subscription tier, as opposed to a generic failure.
var ErrEntitlement = errors.New("assistant entitlement denied")

const requestTimeout = 15 * time.Second

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Profile resolves the logged-in identity from the configured token.
func (c *Client) Profile(ctx context.Context) (models.Identity, error) {
	var identity models.Identity
	if err := c.get(ctx, "/api/users/me", nil, &identity); err != nil {
		return models.Identity{}, errors.Wrap(err, "fetch profile")
	}
	return identity, nil
}

// Contacts fetches the categorized contact bundle for a user. The bundle is
// refreshed wholesale on every browsing-mode entry.
func (c *Client) Contacts(ctx context.Context, userID string) (models.ContactBundle, error) {
	var bundle models.ContactBundle
	q := url.Values{"user": {userID}}
	if err := c.get(ctx, "/api/contacts", q, &bundle); err != nil {
		return models.ContactBundle{}, errors.Wrap(err, "fetch contacts")
	}
	return bundle, nil
}

// HistoryPage is one page of past messages, served newest-first.
type HistoryPage struct {
	Content []models.Message `json:"content"`
	Last    bool             `json:"last"`
}

// History fetches one fixed-size page of past messages between the user and
// a counterpart.
func (c *Client) History(ctx context.Context, userID, counterpartID string, page, size int) (HistoryPage, error) {
	var hp HistoryPage
	q := url.Values{
		"user":        {userID},
		"counterpart": {counterpartID},
		"page":        {strconv.Itoa(page)},
		"size":        {strconv.Itoa(size)},
	}
	if err := c.get(ctx, "/api/messages/history", q, &hp); err != nil {
		return HistoryPage{}, errors.Wrapf(err, "fetch history page %d", page)
	}
	return hp, nil
}

// UnreadCount fetches the server's authoritative unread total for a user.
func (c *Client) UnreadCount(ctx context.Context, userID string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	q := url.Values{"user": {userID}}
	if err := c.get(ctx, "/api/messages/unread", q, &out); err != nil {
		return 0, errors.Wrap(err, "fetch unread count")
	}
	return out.Count, nil
}

// AskAssistant sends a course-scoped question and returns the answer. A 402
// or 403 response classifies as ErrEntitlement; anything else non-2xx is a
// generic failure.
func (c *Client) AskAssistant(ctx context.Context, courseID, question string) (string, error) {
	body, err := json.Marshal(map[string]string{
		"courseId": courseID,
		"question": question,
	})
	if err != nil {
		return "", errors.Wrap(err, "encode assistant request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/api/assistant/chat", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "build assistant request")
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "assistant request")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusForbidden:
		return "", ErrEntitlement
	case resp.StatusCode != http.StatusOK:
		return "", errors.Errorf("assistant request: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", errors.Wrap(err, "decode assistant response")
	}
	return out.Answer, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
