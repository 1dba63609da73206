package netconfig_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"xdao.co/cidnet/network"
	"xdao.co/cidnet/network/netconfig"
	"xdao.co/cidnet/storage"

	_ "xdao.co/cidnet/storage/boltstore"
	_ "xdao.co/cidnet/storage/localfs"
	_ "xdao.co/cidnet/storage/memstore"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadFile_JSON(t *testing.T) {
	path := writeFile(t, "net.json", `{
  "nodes": [
    {"id": "A"},
    {"id": "B", "backend": "memory"},
    {"id": "C", "backend": "localfs", "config": {"base-dir": "/tmp/x"}}
  ]
}`)
	cfg, err := netconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(cfg.Nodes) != 3 || cfg.Nodes[2].Config["base-dir"] != "/tmp/x" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, "net.toml", `
[defaults]
no-sync = "true"

[[nodes]]
id = "A"
backend = "bolt"
config = { base-dir = "/tmp/y" }

[[nodes]]
id = "B"
`)
	cfg, err := netconfig.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(cfg.Nodes) != 2 || cfg.Nodes[0].Backend != "bolt" || cfg.Defaults["no-sync"] != "true" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := netconfig.LoadFile(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
	if _, err := netconfig.LoadFile(writeFile(t, "net.yaml", "nodes: []")); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
	dup := writeFile(t, "dup.json", `{"nodes":[{"id":"A"},{"id":"A"}]}`)
	if _, err := netconfig.LoadFile(dup); err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate id error, got %v", err)
	}
	noID := writeFile(t, "noid.json", `{"nodes":[{"backend":"memory"}]}`)
	if _, err := netconfig.LoadFile(noID); err == nil {
		t.Fatalf("expected missing id error")
	}
}

func TestBuild_EmptyNetwork(t *testing.T) {
	n, err := netconfig.Config{}.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if n.NodeCount() != 0 || n.ReplicationFactor() != 1 {
		t.Fatalf("unexpected empty network state")
	}
}

func TestBuild_MixedBackendsSurviveNodeLoss(t *testing.T) {
	base := t.TempDir()
	cfg := netconfig.Config{
		Defaults: map[string]string{"base-dir": base, "no-sync": "true"},
		Nodes: []netconfig.NodeConfig{
			{ID: "disk", Backend: "localfs"},
			{ID: "db", Backend: "bolt"},
			{ID: "mem1"},
			{ID: "mem2"},
		},
	}
	n, err := cfg.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer n.Close()

	if got := strings.Join(n.NodeIDs(), ","); got != "disk,db,mem1,mem2" {
		t.Fatalf("node order: %s", got)
	}
	id, p := n.PutAll([]byte("PLDG FTW!!!!"))
	if strings.Join(p.Nodes, ",") != "disk,db" {
		t.Fatalf("placement: %v", p.Nodes)
	}

	n.RemoveNode("disk")
	if _, err := os.Stat(filepath.Join(base, "disk")); !os.IsNotExist(err) {
		t.Fatalf("removed localfs node should delete its directory, stat err=%v", err)
	}
	got, from, err := n.Locate(id)
	if err != nil || from != "db" || string(got) != "PLDG FTW!!!!" {
		t.Fatalf("Locate: %q from %q err=%v", got, from, err)
	}

	n.RemoveNode("db")
	if _, err := os.Stat(filepath.Join(base, "db.db")); !os.IsNotExist(err) {
		t.Fatalf("removed bolt node should delete its file, stat err=%v", err)
	}
	if _, err := n.Get(id); !storage.IsNotFound(err) {
		t.Fatalf("expected ErrNotFound after losing both holders, got %v", err)
	}
}

func TestValidate_RejectsPerNodeDefaults(t *testing.T) {
	for _, k := range []string{"dir", "path", "target"} {
		cfg := netconfig.Config{
			Defaults: map[string]string{k: "shared"},
			Nodes:    []netconfig.NodeConfig{{ID: "A"}},
		}
		if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), k) {
			t.Fatalf("defaults %q: expected error, got %v", k, err)
		}
	}
	ok := netconfig.Config{Defaults: map[string]string{"base-dir": "/tmp/z", "no-sync": "true"}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("base-dir defaults should be accepted: %v", err)
	}
}

func TestBuild_SharedDefaultDirRejected(t *testing.T) {
	dir := t.TempDir()
	cfg := netconfig.Config{
		Defaults: map[string]string{"dir": dir},
		Nodes: []netconfig.NodeConfig{
			{ID: "A", Backend: "localfs"},
			{ID: "B", Backend: "localfs"},
			{ID: "C", Backend: "localfs"},
			{ID: "D", Backend: "localfs"},
		},
	}
	if n, err := cfg.Build(); err == nil {
		n.Close()
		t.Fatalf("expected error for a dir shared through defaults")
	}
}

func TestBuild_DuplicateLocationRejected(t *testing.T) {
	base := t.TempDir()
	cases := map[string][]netconfig.NodeConfig{
		"localfs dir": {
			{ID: "A", Backend: "localfs", Config: map[string]string{"dir": filepath.Join(base, "same")}},
			{ID: "B", Backend: "localfs", Config: map[string]string{"dir": filepath.Join(base, "same") + "/"}},
		},
		"localfs dir vs base-dir": {
			{ID: "A", Backend: "localfs", Config: map[string]string{"base-dir": base}},
			{ID: "B", Backend: "localfs", Config: map[string]string{"dir": filepath.Join(base, "A")}},
		},
		"bolt path": {
			{ID: "A", Backend: "bolt", Config: map[string]string{"path": filepath.Join(base, "n.db")}},
			{ID: "B", Backend: "bolt", Config: map[string]string{"path": filepath.Join(base, "n.db")}},
		},
	}
	for name, nodes := range cases {
		cfg := netconfig.Config{Nodes: nodes}
		n, err := cfg.Build()
		if err == nil {
			n.Close()
			t.Fatalf("%s: expected shared storage error", name)
		}
		if !strings.Contains(err.Error(), "share storage") {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
	}
	if _, err := os.Stat(filepath.Join(base, "same")); !os.IsNotExist(err) {
		t.Fatalf("rejected config should not open any backend, stat err=%v", err)
	}
}

func TestBuild_DistinctDirsKeepNodesIsolated(t *testing.T) {
	base := t.TempDir()
	var nodes []netconfig.NodeConfig
	for _, id := range []string{"A", "B", "C", "D"} {
		nodes = append(nodes, netconfig.NodeConfig{
			ID:      id,
			Backend: "localfs",
			Config:  map[string]string{"dir": filepath.Join(base, "own-"+id)},
		})
	}
	n, err := netconfig.Config{Nodes: nodes}.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer n.Close()

	id, p := n.PutAll([]byte("PLDG FTW!!!!"))
	if got := strings.Join(p.Nodes, ","); got != "A,B" {
		t.Fatalf("placement: %s", got)
	}
	if got := strings.Join(n.Holders(id), ","); got != "A,B" {
		t.Fatalf("holders before removal: %s", got)
	}

	n.RemoveNode("A")
	if got := strings.Join(n.Holders(id), ","); got != "B" {
		t.Fatalf("holders after removing A: %s", got)
	}
	got, from, err := n.Locate(id)
	if err != nil || from != "B" || string(got) != "PLDG FTW!!!!" {
		t.Fatalf("Locate: %q from %q err=%v", got, from, err)
	}
}

func TestFactory_RejectsPerNodeKeys(t *testing.T) {
	n := network.New(network.WithFactory(netconfig.Factory("localfs", map[string]string{"dir": t.TempDir()})))
	if err := n.AddNode("A"); err == nil {
		t.Fatalf("expected factory to refuse a shared dir")
	}
	if n.NodeCount() != 0 {
		t.Fatalf("failed AddNode should not add a node")
	}
}

func TestBuild_UnknownBackend(t *testing.T) {
	cfg := netconfig.Config{Nodes: []netconfig.NodeConfig{{ID: "A", Backend: "tape"}}}
	if _, err := cfg.Build(); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestFactory_AddNodeReplacesOnDisk(t *testing.T) {
	base := t.TempDir()
	n := network.New(network.WithFactory(netconfig.Factory("localfs", map[string]string{"base-dir": base})))
	if err := n.AddNode("A"); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	id, _ := n.Put([]byte("first life"))
	if !n.Has(id) {
		t.Fatalf("expected payload on A")
	}

	if err := n.AddNode("A"); err != nil {
		t.Fatalf("re-AddNode: %v", err)
	}
	if n.Has(id) {
		t.Fatalf("re-added node should start empty")
	}
}
