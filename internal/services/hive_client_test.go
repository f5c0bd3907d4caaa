package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"threadkit/internal/discussion"
)

type rpcCall struct {
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func rpcServer(t *testing.T, handle func(call rpcCall) (any, *rpcError)) (*httptest.Server, *[]string) {
	t.Helper()
	var mu sync.Mutex
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var call rpcCall
		if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
			t.Errorf("bad request body: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		mu.Lock()
		methods = append(methods, call.Method)
		mu.Unlock()

		result, rpcErr := handle(call)
		w.Header().Set("Content-Type", "application/json")
		if rpcErr != nil {
			json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "error": rpcErr, "id": 1})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "result": result, "id": 1})
	}))
	t.Cleanup(srv.Close)
	return srv, &methods
}

func TestHiveClientBridgeDiscussion(t *testing.T) {
	srv, _ := rpcServer(t, func(call rpcCall) (any, *rpcError) {
		if call.Method != "bridge.get_discussion" {
			t.Errorf("unexpected method %s", call.Method)
		}
		return map[string]any{
			"bob/c1":      map[string]any{"author": "bob", "permlink": "c1", "parent_author": "alice", "parent_permlink": "post1", "depth": 1},
			"alice/post1": map[string]any{"author": "alice", "permlink": "post1", "depth": 0, "replies": []string{"bob/c1"}},
		}, nil
	})

	records, err := NewHiveClient(srv.URL).FetchDiscussion(context.Background(), "alice", "post1")
	if err != nil {
		t.Fatalf("FetchDiscussion failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0]["author"] != "alice" {
		t.Errorf("expected root first, got %v", records[0]["author"])
	}

	set := discussion.NormalizeAll(records, nil)
	if len(set) != 2 || set[1].Depth != 1 || !set[1].HasDepth {
		t.Errorf("records did not normalize: %+v", set)
	}
}

func TestHiveClientFallsBackToCondenser(t *testing.T) {
	srv, methods := rpcServer(t, func(call rpcCall) (any, *rpcError) {
		switch call.Method {
		case "bridge.get_discussion":
			return nil, &rpcError{Code: -32601, Message: "Method not found"}
		case "condenser_api.get_content":
			return map[string]any{"author": "alice", "permlink": "post1", "depth": 0}, nil
		case "condenser_api.get_content_replies":
			var params []string
			json.Unmarshal(call.Params, &params)
			switch params[0] + "/" + params[1] {
			case "alice/post1":
				return []any{
					map[string]any{"author": "bob", "permlink": "c1", "parent_author": "alice", "parent_permlink": "post1"},
				}, nil
			case "bob/c1":
				return []any{
					map[string]any{"author": "carol", "permlink": "c2", "parent_author": "bob", "parent_permlink": "c1"},
				}, nil
			}
			return []any{}, nil
		}
		t.Errorf("unexpected method %s", call.Method)
		return nil, nil
	})

	records, err := NewHiveClient(srv.URL).FetchDiscussion(context.Background(), "alice", "post1")
	if err != nil {
		t.Fatalf("FetchDiscussion failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if (*methods)[0] != "bridge.get_discussion" || (*methods)[1] != "condenser_api.get_content" {
		t.Errorf("unexpected call order %v", *methods)
	}
}

func TestHiveClientHTTPFailureDoesNotFallBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewHiveClient(srv.URL).FetchDiscussion(context.Background(), "alice", "post1"); err == nil {
		t.Fatal("expected an error for a 502 response")
	}
}

func TestHiveClientMissingDiscussion(t *testing.T) {
	srv, _ := rpcServer(t, func(call rpcCall) (any, *rpcError) {
		return map[string]any{}, nil
	})
	if _, err := NewHiveClient(srv.URL).FetchDiscussion(context.Background(), "ghost", "nothing"); err == nil {
		t.Fatal("expected not-found error")
	}
}
