// Package fixtures builds tiny valid binary artifacts for tests:
// compiled class files, dex units, and the zip archives that carry
// them.
package fixtures

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"os"
	"sort"
	"testing"
)

// ClassFile returns the bytes of a minimal class file defining the
// class with the given internal (slash-separated) name.
func ClassFile(t testing.TB, internalName string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := func(v interface{}) {
		if err := binary.Write(&buf, binary.BigEndian, v); err != nil {
			t.Fatalf("failed to build class file: %v", err)
		}
	}

	w(uint32(0xCAFEBABE))
	w(uint16(0))  // minor version
	w(uint16(52)) // major version, Java 8

	// Constant pool: #1 utf8 name, #2 class(#1), #3 utf8 super, #4 class(#3).
	super := "java/lang/Object"
	w(uint16(5))
	w(uint8(1)) // CONSTANT_Utf8
	w(uint16(len(internalName)))
	buf.WriteString(internalName)
	w(uint8(7)) // CONSTANT_Class
	w(uint16(1))
	w(uint8(1))
	w(uint16(len(super)))
	buf.WriteString(super)
	w(uint8(7))
	w(uint16(3))

	w(uint16(0x0021)) // access_flags: ACC_PUBLIC | ACC_SUPER
	w(uint16(2))      // this_class
	w(uint16(4))      // super_class
	w(uint16(0))      // interfaces_count
	w(uint16(0))      // fields_count
	w(uint16(0))      // methods_count
	w(uint16(0))      // attributes_count

	return buf.Bytes()
}

// DexFile returns the bytes of a minimal dex unit defining one class
// per descriptor, e.g. "Lcom/example/Main;". Descriptors are stored
// verbatim, so malformed ones can be injected deliberately.
func DexFile(t testing.TB, descriptors ...string) []byte {
	t.Helper()

	const headerSize = 0x70
	n := len(descriptors)
	stringIDsOff := headerSize
	typeIDsOff := stringIDsOff + 4*n
	classDefsOff := typeIDsOff + 4*n
	dataOff := classDefsOff + 32*n

	// One string_data_item per descriptor: uleb128 length, bytes, NUL.
	var data []byte
	stringDataOffs := make([]int, n)
	for i, desc := range descriptors {
		if len(desc) > 127 {
			t.Fatalf("descriptor too long for a single-byte uleb128: %q", desc)
		}
		stringDataOffs[i] = dataOff + len(data)
		data = append(data, byte(len(desc)))
		data = append(data, desc...)
		data = append(data, 0)
	}

	out := make([]byte, dataOff+len(data))
	copy(out, "dex\n035\x00")
	put := func(off int, v uint32) { binary.LittleEndian.PutUint32(out[off:], v) }

	put(0x20, uint32(len(out))) // file_size
	put(0x24, headerSize)
	put(0x28, 0x12345678) // endian_tag
	put(0x38, uint32(n))  // string_ids_size
	put(0x3C, uint32(stringIDsOff))
	put(0x40, uint32(n)) // type_ids_size
	put(0x44, uint32(typeIDsOff))
	put(0x60, uint32(n)) // class_defs_size
	put(0x64, uint32(classDefsOff))
	put(0x68, uint32(len(data))) // data_size
	put(0x6C, uint32(dataOff))

	for i := 0; i < n; i++ {
		put(stringIDsOff+4*i, uint32(stringDataOffs[i]))
		put(typeIDsOff+4*i, uint32(i))    // descriptor_idx
		put(classDefsOff+32*i, uint32(i)) // class_idx
	}
	copy(out[dataOff:], data)
	return out
}

// ZipBytes returns a zip archive containing the given entries.
func ZipBytes(t testing.TB, entries map[string][]byte) []byte {
	t.Helper()

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		f, err := w.Create(name)
		if err != nil {
			t.Fatalf("failed to create zip entry %s: %v", name, err)
		}
		if _, err := f.Write(entries[name]); err != nil {
			t.Fatalf("failed to write zip entry %s: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// Archive writes a zip archive with the given entries to path.
func Archive(t testing.TB, path string, entries map[string][]byte) {
	t.Helper()
	if err := os.WriteFile(path, ZipBytes(t, entries), 0644); err != nil {
		t.Fatalf("failed to write archive %s: %v", path, err)
	}
}

// WriteFile writes raw bytes to path.
func WriteFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
