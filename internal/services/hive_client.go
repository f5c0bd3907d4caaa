package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"threadkit/internal/models"
)

// maxReplyWalk bounds the condenser fallback so a runaway thread cannot pin a request.
const maxReplyWalk = 2000

// HiveClient fetches discussions over Hive JSON-RPC.
type HiveClient struct {
	httpClient *http.Client
	apiBase    string
	nextID     atomic.Int64
}

// NewHiveClient creates a client for the JSON-RPC node at apiBase.
func NewHiveClient(apiBase string) *HiveClient {
	return &HiveClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiBase: strings.TrimRight(apiBase, "/"),
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      int64  `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// FetchDiscussion returns the root and all its descendants as raw records. It asks
// bridge.get_discussion first (an object keyed by author/permlink) and falls back to
// walking condenser_api.get_content_replies (arrays) when the node lacks the bridge API.
func (c *HiveClient) FetchDiscussion(ctx context.Context, author, permlink string) ([]models.RawRecord, error) {
	records, err := c.bridgeDiscussion(ctx, author, permlink)
	if err == nil {
		return records, nil
	}
	var rpcErr *rpcError
	if !errors.As(err, &rpcErr) {
		return nil, err
	}
	log.Printf("[hive] bridge.get_discussion %s/%s: %v, walking replies instead", author, permlink, err)
	return c.condenserDiscussion(ctx, author, permlink)
}

func (c *HiveClient) bridgeDiscussion(ctx context.Context, author, permlink string) ([]models.RawRecord, error) {
	var byKey map[string]models.RawRecord
	params := map[string]string{"author": author, "permlink": permlink}
	if err := c.call(ctx, "bridge.get_discussion", params, &byKey); err != nil {
		return nil, err
	}
	if len(byKey) == 0 {
		return nil, fmt.Errorf("discussion %s/%s not found", author, permlink)
	}
	records := make([]models.RawRecord, 0, len(byKey))
	// root first; the remaining order is whatever the map yields, as the source promises none
	if root, ok := byKey[author+"/"+permlink]; ok {
		records = append(records, root)
	}
	for k, r := range byKey {
		if k == author+"/"+permlink {
			continue
		}
		records = append(records, r)
	}
	return records, nil
}

func (c *HiveClient) condenserDiscussion(ctx context.Context, author, permlink string) ([]models.RawRecord, error) {
	var root models.RawRecord
	if err := c.call(ctx, "condenser_api.get_content", []string{author, permlink}, &root); err != nil {
		return nil, err
	}
	if a, _ := root["author"].(string); a == "" {
		return nil, fmt.Errorf("discussion %s/%s not found", author, permlink)
	}

	records := []models.RawRecord{root}
	queue := [][2]string{{author, permlink}}
	seen := map[string]bool{author + "/" + permlink: true}
	for len(queue) > 0 && len(records) < maxReplyWalk {
		next := queue[0]
		queue = queue[1:]

		var replies []models.RawRecord
		if err := c.call(ctx, "condenser_api.get_content_replies", next[:], &replies); err != nil {
			return nil, err
		}
		for _, r := range replies {
			a, _ := r["author"].(string)
			p, _ := r["permlink"].(string)
			if seen[a+"/"+p] {
				continue
			}
			seen[a+"/"+p] = true
			records = append(records, r)
			queue = append(queue, [2]string{a, p})
		}
	}
	return records, nil
}

func (c *HiveClient) call(ctx context.Context, method string, params, out any) error {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiBase, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: HTTP request failed: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: failed to read response body: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status code: %d, body: %.200s", method, resp.StatusCode, body)
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return fmt.Errorf("%s: failed to unmarshal response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}

	dec := json.NewDecoder(bytes.NewReader(rpcResp.Result))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%s: malformed result: %w", method, err)
	}
	return nil
}
