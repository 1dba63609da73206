package grpcstore

import (
	"bytes"
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/cidnet/cidutil"
	"xdao.co/cidnet/network"
	"xdao.co/cidnet/storage"
	"xdao.co/cidnet/storage/memstore"
	"xdao.co/cidnet/storage/testkit"
)

// startServer serves store over an in-memory listener and returns a connected client.
func startServer(t *testing.T, store storage.ContentStore) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterContentStoreServer(srv, &Server{Store: store})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
	client, err := Dial("passthrough:///bufnet", DialOptions{
		Extra: []grpc.DialOption{grpc.WithContextDialer(dialer)},
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	client.Timeout = 2 * time.Second
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGRPCStore_Conformance(t *testing.T) {
	testkit.RunContentStoreConformance(t, func(t *testing.T) storage.ContentStore {
		return startServer(t, memstore.New())
	})
}

func TestGRPCStore_RoundTrip(t *testing.T) {
	backing := memstore.New()
	client := startServer(t, backing)

	payload := []byte("hello grpcstore")
	id, err := client.Put(payload)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if id != cidutil.Generate(payload) {
		t.Fatalf("unexpected CID %s", id)
	}
	if !client.Has(id) || !backing.Has(id) {
		t.Fatalf("Has: expected true on client and backing store")
	}
	if client.Len() != 1 {
		t.Fatalf("Len: got %d want 1", client.Len())
	}
	got, err := client.Get(id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatalf("payload mismatch")
	}

	if _, err := client.Get(cidutil.Generate([]byte("absent"))); !storage.IsNotFound(err) {
		t.Fatalf("Get missing: got %v want ErrNotFound", err)
	}
}

func TestServer_RejectsMalformedCID(t *testing.T) {
	srv := &Server{Store: memstore.New()}
	if _, err := srv.Get(context.Background(), nil); mapRPC(err) != storage.ErrInvalidCID {
		t.Fatalf("Get(nil): got %v", err)
	}
	if _, err := (&Server{}).Len(context.Background(), nil); err == nil {
		t.Fatalf("expected error for server without store")
	}
}

func TestNetwork_RemoteNodes(t *testing.T) {
	n := network.New()
	backing := map[string]*memstore.Store{}
	for _, id := range []string{"r1", "r2", "r3", "r4"} {
		backing[id] = memstore.New()
		client := startServer(t, backing[id])
		n.AddStore(id, client, nil)
	}

	id, p := n.PutAll([]byte("PLDG FTW!!!!"))
	if len(p.Nodes) != 2 || p.Nodes[0] != "r1" || p.Nodes[1] != "r2" {
		t.Fatalf("unexpected placement: %+v", p)
	}
	if !backing["r1"].Has(id) || !backing["r2"].Has(id) || backing["r3"].Has(id) {
		t.Fatalf("replicas landed on the wrong daemons")
	}

	n.RemoveNode("r1")
	got, from, err := n.Locate(id)
	if err != nil || string(got) != "PLDG FTW!!!!" || from != "r2" {
		t.Fatalf("Locate after removing r1: %q from %q err=%v", got, from, err)
	}
}

func TestClient_CountReportsUnreachableDaemon(t *testing.T) {
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	backing := memstore.New()
	RegisterContentStoreServer(srv, &Server{Store: backing})
	go func() {
		_ = srv.Serve(lis)
	}()

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.DialContext(ctx) }
	client, err := Dial("passthrough:///bufnet", DialOptions{
		Extra: []grpc.DialOption{grpc.WithContextDialer(dialer)},
	})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer client.Close()
	client.Timeout = 2 * time.Second
	var buf bytes.Buffer
	log := zerolog.New(&buf)
	client.Log = &log

	if _, err := client.Put([]byte("counted")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if n, err := client.Count(); err != nil || n != 1 {
		t.Fatalf("Count: n=%d err=%v", n, err)
	}

	srv.Stop()
	if _, err := client.Count(); err == nil {
		t.Fatalf("expected Count error after the daemon stopped")
	}
	if got := client.Len(); got != 0 {
		t.Fatalf("Len: got %d want 0", got)
	}
	if !strings.Contains(buf.String(), "remote len failed") {
		t.Fatalf("expected Len failure to be logged, got %q", buf.String())
	}
}
