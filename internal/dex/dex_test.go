package dex

import (
	"encoding/binary"
	"testing"

	"github.com/google/go-cmp/cmp"

	"pkgscope/internal/fixtures"
)

func TestParse(t *testing.T) {
	descriptors := []string{
		"Lcom/example/Main;",
		"Lcom/example/util/Helper;",
		"LTop;",
	}
	data := fixtures.DexFile(t, descriptors...)

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if f.Version != "035" {
		t.Errorf("Version = %q, want %q", f.Version, "035")
	}
	if f.ClassCount != 3 {
		t.Errorf("ClassCount = %d, want 3", f.ClassCount)
	}
	if diff := cmp.Diff(descriptors, f.ClassDescriptors()); diff != "" {
		t.Errorf("ClassDescriptors() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmptyUnit(t *testing.T) {
	f, err := Parse(fixtures.DexFile(t))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if f.ClassCount != 0 || len(f.ClassDescriptors()) != 0 {
		t.Errorf("empty unit yielded %d classes", f.ClassCount)
	}
}

func TestParsePreservesMalformedDescriptors(t *testing.T) {
	// Descriptor shape is not this package's concern; stored strings
	// come back verbatim.
	data := fixtures.DexFile(t, "Lcom/x/Y;", "bad")

	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	want := []string{"Lcom/x/Y;", "bad"}
	if diff := cmp.Diff(want, f.ClassDescriptors()); diff != "" {
		t.Errorf("ClassDescriptors() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	valid := fixtures.DexFile(t, "Lcom/x/Y;")

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{
			name:   "Too short",
			mutate: func(d []byte) []byte { return d[:0x40] },
		},
		{
			name: "Bad magic",
			mutate: func(d []byte) []byte {
				d[0] = 'x'
				return d
			},
		},
		{
			name: "Bad endian tag",
			mutate: func(d []byte) []byte {
				binary.LittleEndian.PutUint32(d[offEndianTag:], 0xDEADBEEF)
				return d
			},
		},
		{
			name: "Reverse endian",
			mutate: func(d []byte) []byte {
				binary.LittleEndian.PutUint32(d[offEndianTag:], reverseEndianConstant)
				return d
			},
		},
		{
			name: "String table past end",
			mutate: func(d []byte) []byte {
				binary.LittleEndian.PutUint32(d[offStringIDsOff:], uint32(len(d)))
				return d
			},
		},
		{
			name: "Table overlapping header",
			mutate: func(d []byte) []byte {
				binary.LittleEndian.PutUint32(d[offClassDefsOff:], 0)
				return d
			},
		},
		{
			name: "Class index out of range",
			mutate: func(d []byte) []byte {
				classDefsOff := binary.LittleEndian.Uint32(d[offClassDefsOff:])
				binary.LittleEndian.PutUint32(d[classDefsOff:], 1000)
				return d
			},
		},
		{
			name:   "Truncated mid-table",
			mutate: func(d []byte) []byte { return d[:headerSize+2] },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.mutate(append([]byte(nil), valid...))
			if _, err := Parse(data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
