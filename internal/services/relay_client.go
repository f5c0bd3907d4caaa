package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"threadkit/internal/models"
	"threadkit/internal/utils"
)

// Mutator is the remote write endpoint. Every rejection is just an error; callers
// get a message, not a reason code.
type Mutator interface {
	SubmitVote(ctx context.Context, author, permlink string, weightPercent int, creds models.Credentials) error
	SubmitComment(ctx context.Context, parentAuthor, parentPermlink, body string, creds models.Credentials) error
}

// RelayClient posts writes to a relay that signs and broadcasts them for the user.
type RelayClient struct {
	httpClient *http.Client
	base       string
}

func NewRelayClient(base string) *RelayClient {
	return &RelayClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		base:       strings.TrimRight(base, "/"),
	}
}

type voteRequest struct {
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Weight   int    `json:"weight"` // basis points, -10000..10000
}

type commentRequest struct {
	ParentAuthor   string `json:"parent_author"`
	ParentPermlink string `json:"parent_permlink"`
	Permlink       string `json:"permlink"`
	Body           string `json:"body"`
}

func (c *RelayClient) SubmitVote(ctx context.Context, author, permlink string, weightPercent int, creds models.Credentials) error {
	return c.post(ctx, "/vote", voteRequest{
		Author:   author,
		Permlink: permlink,
		Weight:   weightPercent * 100,
	}, creds)
}

func (c *RelayClient) SubmitComment(ctx context.Context, parentAuthor, parentPermlink, body string, creds models.Credentials) error {
	return c.post(ctx, "/comment", commentRequest{
		ParentAuthor:   parentAuthor,
		ParentPermlink: parentPermlink,
		Permlink:       utils.NewPermlink(parentPermlink),
		Body:           body,
	}, creds)
}

func (c *RelayClient) post(ctx context.Context, path string, payload any, creds models.Credentials) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("X-Hive-Username", creds.Username)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var msg struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &msg) == nil && msg.Error != "" {
		return fmt.Errorf("relay rejected %s: %s", path, msg.Error)
	}
	return fmt.Errorf("relay rejected %s: status %d", path, resp.StatusCode)
}
