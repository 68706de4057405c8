package hashing

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, content string) *os.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestBuiltinHashersAreDeterministic(t *testing.T) {
	for _, h := range []Hasher{Builtin32{}, Builtin64{}} {
		f1 := writeTemp(t, "the quick brown fox")
		f2 := writeTemp(t, "the quick brown fox")
		v1, err := h.Hash(f1)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f2.Seek(0, 0); err != nil {
			t.Fatal(err)
		}
		v2, err := h.Hash(f2)
		if err != nil {
			t.Fatal(err)
		}
		if v1 != v2 {
			t.Errorf("%s: same content hashed differently: %d != %d", h.ID(), v1, v2)
		}
	}
}

func TestBuiltinHashersDistinguishContent(t *testing.T) {
	h := Builtin32{}
	v1, err := h.Hash(writeTemp(t, "aaaa"))
	if err != nil {
		t.Fatal(err)
	}
	v2, err := h.Hash(writeTemp(t, "bbbb"))
	if err != nil {
		t.Fatal(err)
	}
	if v1 == v2 {
		t.Errorf("distinct content hashed to the same value")
	}
}

func TestBuiltin32Is32Bit(t *testing.T) {
	v, err := Builtin32{}.Hash(writeTemp(t, "some content"))
	if err != nil {
		t.Fatal(err)
	}
	if v > 0xffffffff {
		t.Errorf("Builtin32 hash exceeds 32 bits: %x", v)
	}
}

func TestByID(t *testing.T) {
	cases := []struct {
		id      string
		wantErr bool
	}{
		{"xxhash32", false},
		{"xxhash64", false},
		{"external:/usr/bin/sha1sum", false},
		{"bogus", true},
	}
	for _, c := range cases {
		h, err := ByID(c.id)
		if c.wantErr {
			if err == nil {
				t.Errorf("ByID(%q): expected error", c.id)
			}
			continue
		}
		if err != nil {
			t.Errorf("ByID(%q): %s", c.id, err)
			continue
		}
		if h.ID() != c.id {
			t.Errorf("ByID(%q).ID() = %q", c.id, h.ID())
		}
	}
}
