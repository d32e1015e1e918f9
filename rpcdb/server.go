package rpcdb

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"golang.org/x/sync/errgroup"

	"github.com/kmill/pynomic/store"
	"github.com/kmill/pynomic/value"
)

// Server exposes a *store.Store over the network, one store.Store per
// Server, translated from server.py's RPCHandler plus ThreadedTCPServer: a
// connection carries exactly one request and one response, same as the
// Python source's StreamRequestHandler.handle reading a single message
// before returning.
type Server struct {
	store *store.Store
	log   *slog.Logger
}

// NewServer constructs a Server backed by s.
func NewServer(s *store.Store) *Server {
	return &Server{store: s, log: slog.Default()}
}

// Serve accepts connections on ln until ctx is cancelled, handling each one
// in its own goroutine managed by an errgroup.Group, in place of the
// original ThreadingMixIn's one handler thread per connection.
func (srv *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return g.Wait()
			default:
				return err
			}
		}
		g.Go(func() error {
			srv.handleConn(conn)
			return nil
		})
	}
}

func (srv *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	req, err := readMessage(conn)
	if err != nil {
		srv.log.Warn("rpcdb: failed to read request", "error", err)
		return
	}
	id, _ := field(req, "id")
	actionName, ok := field(req, "action")
	if !ok {
		srv.writeError(conn, id, fmt.Errorf("rpcdb: request missing \"action\""))
		return
	}
	name, ok := actionName.(value.Str)
	if !ok {
		srv.writeError(conn, id, fmt.Errorf("rpcdb: \"action\" must be a string"))
		return
	}
	a, ok := actions[string(name)]
	if !ok {
		srv.writeError(conn, id, fmt.Errorf("rpcdb: unknown action %q", name))
		return
	}
	params, _ := field(req, "params")

	result, err := a(srv.store, params)
	if err != nil {
		srv.writeError(conn, id, err)
		return
	}
	srv.writeResult(conn, id, result)
}

func (srv *Server) writeResult(conn net.Conn, id value.Value, result value.Value) {
	resp := value.Map{"result": result}
	if id != nil {
		resp["id"] = id
	}
	if err := writeMessage(conn, resp); err != nil {
		srv.log.Warn("rpcdb: failed to write response", "error", err)
	}
}

func (srv *Server) writeError(conn net.Conn, id value.Value, err error) {
	args := value.Array{value.Str(err.Error())}
	resp := value.Map{
		"error": value.Map{
			"type": value.Str(fmt.Sprintf("%T", err)),
			"args": args,
		},
	}
	if id != nil {
		resp["id"] = id
	}
	if werr := writeMessage(conn, resp); werr != nil {
		srv.log.Warn("rpcdb: failed to write error response", "error", werr)
	}
}
