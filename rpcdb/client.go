package rpcdb

import (
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/kmill/pynomic/value"
)

// Client calls a Server's actions over the network, translated from
// client.py's RPCClient/RPCFunction: every Call opens a fresh connection,
// exactly as RPCClient.__send_request__ does, rather than holding one
// connection open across calls.
type Client struct {
	addr    string
	dial    net.Dialer
	timeout time.Duration
}

// NewClient constructs a Client that dials addr (host:port) for every call.
func NewClient(addr string) *Client {
	return &Client{addr: addr, timeout: 30 * time.Second}
}

// Call invokes action on the server with params (a value.Map, or nil for an
// action that takes none) and returns its result, or an *Error if the
// server reported one.
func (c *Client) Call(action string, params value.Value) (value.Value, error) {
	conn, err := c.dial.Dial("tcp", c.addr)
	if err != nil {
		return nil, fmt.Errorf("rpcdb: dial %s: %w", c.addr, err)
	}
	defer conn.Close()
	if c.timeout > 0 {
		conn.SetDeadline(time.Now().Add(c.timeout))
	}

	id := value.Str(uuid.New().String())
	req := value.Map{"id": id, "action": value.Str(action)}
	if params != nil {
		req["params"] = params
	}
	if err := writeMessage(conn, req); err != nil {
		return nil, fmt.Errorf("rpcdb: write request: %w", err)
	}

	resp, err := readMessage(conn)
	if err != nil {
		return nil, fmt.Errorf("rpcdb: read response: %w", err)
	}
	respMap, ok := resp.(value.Map)
	if !ok {
		return nil, fmt.Errorf("rpcdb: malformed response")
	}
	if errVal, ok := respMap["error"]; ok {
		return nil, parseError(errVal)
	}
	if result, ok := respMap["result"]; ok {
		return result, nil
	}
	return nil, fmt.Errorf("rpcdb: malformed response: no result or error")
}

func parseError(errVal value.Value) error {
	m, ok := errVal.(value.Map)
	if !ok {
		return &Error{Type: "unknown", Args: []string{"malformed error envelope"}}
	}
	typ := "unknown"
	if t, ok := m["type"].(value.Str); ok {
		typ = string(t)
	}
	var args []string
	if a, ok := m["args"].(value.Array); ok {
		for _, elt := range a {
			args = append(args, elt.String())
		}
	}
	return &Error{Type: typ, Args: args}
}
