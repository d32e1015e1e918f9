package rpcdb_test

import (
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/kmill/pynomic/rpcdb"
	"github.com/kmill/pynomic/store"
	"github.com/kmill/pynomic/value"
)

func startServer(t *testing.T) (*rpcdb.Client, func()) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	srv := rpcdb.NewServer(s)
	done := make(chan struct{})
	go func() {
		srv.Serve(ctx, ln)
		close(done)
	}()

	client := rpcdb.NewClient(ln.Addr().String())
	stop := func() {
		cancel()
		<-done
	}
	return client, stop
}

func TestInsertThenSelectRoundTrip(t *testing.T) {
	client, stop := startServer(t)
	defer stop()

	_, err := client.Call("insert", value.Map{
		"path":  value.Array{value.Str("name")},
		"value": value.Str("ann"),
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	result, err := client.Call("select", value.Map{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	arr, ok := result.(value.Array)
	if !ok || len(arr) != 1 {
		t.Fatalf("select result = %v, want a single-element array", result)
	}
	entry, ok := arr[0].(value.Map)
	if !ok || entry["value"] != value.Str("ann") {
		t.Errorf("select entry = %v, want value=Str(ann) (the sole root value)", entry)
	}
}

func TestSelectByPathstr(t *testing.T) {
	client, stop := startServer(t)
	defer stop()

	if _, err := client.Call("insert", value.Map{
		"path":  value.Array{value.Str("user")},
		"value": value.Map{"name": value.Str("bo")},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// "$.user" locates the user object itself; select enumerates its
	// children, here the lone "name" field.
	result, err := client.Call("select", value.Map{"pathstr": value.Str("$.user")})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	arr, ok := result.(value.Array)
	if !ok || len(arr) != 1 || arr[0].(value.Map)["value"] != value.Str("bo") {
		t.Fatalf("select result = %v, want a single-element array containing Str(bo)", result)
	}
}

func TestUnknownActionReturnsError(t *testing.T) {
	client, stop := startServer(t)
	defer stop()

	_, err := client.Call("nonesuch", value.Map{})
	if err == nil {
		t.Fatal("Call of an unknown action should fail")
	}
	rerr, ok := err.(*rpcdb.Error)
	if !ok {
		t.Fatalf("got %T, want *rpcdb.Error", err)
	}
	if len(rerr.Args) == 0 {
		t.Error("remote error should carry at least one argument")
	}
}

func TestRemoveDeletesRootLevelKey(t *testing.T) {
	client, stop := startServer(t)
	defer stop()

	if _, err := client.Call("insert", value.Map{
		"path":  value.Array{value.Str("x")},
		"value": value.Int(1),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// An omitted "path" resolves to the root, so remove enumerates the
	// root's own children - here, the single key "x".
	result, err := client.Call("remove", value.Map{})
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if result != value.Int(1) {
		t.Errorf("remove count = %v, want Int(1)", result)
	}

	selected, err := client.Call("select", value.Map{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if arr := selected.(value.Array); len(arr) != 0 {
		t.Errorf("after removing the only key, select returned %v, want none", arr)
	}
}

func TestUpdateThenCommitThenRollback(t *testing.T) {
	client, stop := startServer(t)
	defer stop()

	if _, err := client.Call("insert", value.Map{
		"path":  value.Array{value.Str("count")},
		"value": value.Int(1),
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	// An omitted "path" enumerates the root's own children - here, the
	// single key "count" - so its match is the value at ["count"].
	if _, err := client.Call("update", value.Map{
		"changes": value.Array{
			value.Map{"value": value.Int(2), "mode": value.Str("overwrite")},
		},
	}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := client.Call("commit", nil); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := client.Call("rollback", nil); err != nil {
		t.Fatalf("rollback: %v", err)
	}

	result, err := client.Call("select", value.Map{})
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	arr := result.(value.Array)
	if len(arr) != 1 || arr[0].(value.Map)["value"] != value.Int(2) {
		t.Errorf("after commit+rollback, count = %v, want a committed value of Int(2)", arr)
	}
}

func TestServeStopsOnContextCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen: %v", err)
	}
	s, err := store.Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	srv := rpcdb.NewServer(s)
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	cancel()
	select {
	case <-errc:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after context cancellation")
	}
}
