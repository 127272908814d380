// Package chaintest provides an in-process JSON-RPC node for tests.
package chaintest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/memefactory/internal/chain"
)

// Handler answers one JSON-RPC method. Returning a *chain.RPCError sends
// that code and data back to the client.
type Handler func(params []json.RawMessage) (interface{}, error)

// Node is a scriptable JSON-RPC endpoint.
type Node struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	calls    map[string]int
}

// New starts a node that is closed when the test ends.
func New(t *testing.T) *Node {
	t.Helper()
	n := &Node{
		handlers: make(map[string]Handler),
		calls:    make(map[string]int),
	}
	n.Server = httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(n.Server.Close)
	return n
}

// Client returns an EVMClient pointed at the node.
func (n *Node) Client() *chain.EVMClient {
	return chain.NewEVMClient(n.URL)
}

// On installs a handler for method.
func (n *Node) On(method string, h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handlers[method] = h
}

// Result makes method always answer with result.
func (n *Node) Result(method string, result interface{}) {
	n.On(method, func([]json.RawMessage) (interface{}, error) { return result, nil })
}

// Fail makes method always answer with an RPC error.
func (n *Node) Fail(method string, code int, message, data string) {
	n.On(method, func([]json.RawMessage) (interface{}, error) {
		return nil, &chain.RPCError{Code: code, Message: message, Data: data}
	})
}

// Calls returns how many times method has been requested.
func (n *Node) Calls(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *Node) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
		ID     int64             `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	n.mu.Lock()
	n.calls[req.Method]++
	h, ok := n.handlers[req.Method]
	n.mu.Unlock()

	resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
	if !ok {
		resp["error"] = map[string]interface{}{"code": -32601, "message": "method not found"}
	} else if result, err := h(req.Params); err != nil {
		e := map[string]interface{}{"code": -32000, "message": err.Error()}
		var rpcErr *chain.RPCError
		if errors.As(err, &rpcErr) {
			e["code"] = rpcErr.Code
			e["message"] = rpcErr.Message
			if rpcErr.Data != "" {
				e["data"] = rpcErr.Data
			}
		}
		resp["error"] = e
	} else {
		resp["result"] = result
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp) //nolint:errcheck
}
