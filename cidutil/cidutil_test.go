package cidutil

import (
	"strings"
	"testing"

	"github.com/ipfs/go-cid"

	"xdao.co/cidnet/storage"
)

func TestGenerate_KnownVectors(t *testing.T) {
	cases := []struct {
		in   string
		want storage.CID
	}{
		{"", "1220e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{"PLDG FTW!!!!", "12206a3fe0179137d28334a924e4fba55ad68e60eba507e733155ae3d001663f9adb"},
	}
	for _, tc := range cases {
		if got := Generate([]byte(tc.in)); got != tc.want {
			t.Fatalf("Generate(%q): got %s want %s", tc.in, got, tc.want)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	payloads := [][]byte{nil, []byte("a"), []byte("PLDG FTW!!!!"), make([]byte, 1<<16)}
	for _, p := range payloads {
		a, b := Generate(p), Generate(p)
		if a != b {
			t.Fatalf("Generate not deterministic: %s vs %s", a, b)
		}
		if len(a) != 68 {
			t.Fatalf("expected fixed-width 68 char CID, got %d", len(a))
		}
		if strings.ToLower(string(a)) != string(a) {
			t.Fatalf("expected lowercase hex, got %s", a)
		}
	}
	if Generate([]byte("a")) == Generate([]byte("b")) {
		t.Fatalf("distinct payloads produced the same CID")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(Generate([]byte("x"))); err != nil {
		t.Fatalf("Validate(valid): %v", err)
	}
	bad := []storage.CID{
		"",
		"not-hex",
		"1220abcd",
		storage.CID(strings.ToUpper(string(Generate([]byte("x"))))),
		// sha2-512 multihash code with a sha2-256 sized digest.
		"1320e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
	}
	for _, id := range bad {
		if err := Validate(id); err != storage.ErrInvalidCID {
			t.Fatalf("Validate(%q): got %v want ErrInvalidCID", id, err)
		}
	}
}

func TestV1RoundTrip(t *testing.T) {
	id := Generate(nil)
	v1, err := ToV1(id)
	if err != nil {
		t.Fatalf("ToV1: %v", err)
	}
	if v1.Prefix().Codec != cid.Raw || v1.Version() != 1 {
		t.Fatalf("expected CIDv1 raw, got %v", v1.Prefix())
	}
	if got := v1.String(); got != "bafkreihdwdcefgh4dqkjv67uzcmw7ojee6xedzdetojuzjevtenxquvyku" {
		t.Fatalf("unexpected CIDv1 text: %s", got)
	}

	back, err := ParseV1(v1.String())
	if err != nil {
		t.Fatalf("ParseV1: %v", err)
	}
	if back != id {
		t.Fatalf("round trip mismatch: got %s want %s", back, id)
	}
}

func TestParseV1_Rejects(t *testing.T) {
	if _, err := ParseV1("garbage"); err != storage.ErrInvalidCID {
		t.Fatalf("ParseV1(garbage): got %v want ErrInvalidCID", err)
	}
	if _, err := FromV1(cid.Undef); err != storage.ErrInvalidCID {
		t.Fatalf("FromV1(Undef): got %v want ErrInvalidCID", err)
	}
}
