// Package dex reads the parts of the Android dex format needed to list
// the classes a unit defines: the header, the string_ids and type_ids
// tables, and the class_defs table.
package dex

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

const (
	headerSize = 0x70

	offEndianTag     = 0x28
	offStringIDsSize = 0x38
	offStringIDsOff  = 0x3C
	offTypeIDsSize   = 0x40
	offTypeIDsOff    = 0x44
	offClassDefsSize = 0x60
	offClassDefsOff  = 0x64

	endianConstant        = 0x12345678
	reverseEndianConstant = 0x78563412

	stringIDSize = 4
	typeIDSize   = 4
	classDefSize = 32
)

// File is a parsed dex unit.
type File struct {
	Version     string
	StringCount int
	TypeCount   int
	ClassCount  int

	descriptors []string
}

// ClassDescriptors returns the raw type descriptor of every class the
// unit defines, e.g. "Lcom/example/Main;", in class_defs order. The
// descriptors are returned as stored; shape validation is the caller's
// concern.
func (f *File) ClassDescriptors() []string {
	return f.descriptors
}

// Parse reads a dex unit. It verifies the magic, the endian tag, and
// the bounds of every table it touches.
func Parse(data []byte) (*File, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("dex unit too short: %d bytes", len(data))
	}
	if !bytes.HasPrefix(data, []byte("dex\n")) || data[7] != 0 {
		return nil, fmt.Errorf("bad dex magic %q", data[:8])
	}
	version := string(data[4:7])

	switch endian := binary.LittleEndian.Uint32(data[offEndianTag:]); endian {
	case endianConstant:
	case reverseEndianConstant:
		return nil, fmt.Errorf("big-endian dex units are not supported")
	default:
		return nil, fmt.Errorf("bad dex endian tag 0x%08X", endian)
	}

	stringIDs, err := table(data, offStringIDsSize, offStringIDsOff, stringIDSize, "string_ids")
	if err != nil {
		return nil, err
	}
	typeIDs, err := table(data, offTypeIDsSize, offTypeIDsOff, typeIDSize, "type_ids")
	if err != nil {
		return nil, err
	}
	classDefs, err := table(data, offClassDefsSize, offClassDefsOff, classDefSize, "class_defs")
	if err != nil {
		return nil, err
	}

	// string_id_item is a single u4 string_data_off; type_id_item a
	// single u4 descriptor_idx; the first u4 of class_def_item is the
	// class_idx.
	stringOffs := make([]uint32, len(stringIDs)/stringIDSize)
	for i := range stringOffs {
		stringOffs[i] = binary.LittleEndian.Uint32(stringIDs[i*stringIDSize:])
	}
	descIdx := make([]uint32, len(typeIDs)/typeIDSize)
	for i := range descIdx {
		descIdx[i] = binary.LittleEndian.Uint32(typeIDs[i*typeIDSize:])
	}

	classCount := len(classDefs) / classDefSize
	descriptors := make([]string, 0, classCount)
	for i := 0; i < classCount; i++ {
		classIdx := binary.LittleEndian.Uint32(classDefs[i*classDefSize:])
		if int(classIdx) >= len(descIdx) {
			return nil, fmt.Errorf("class_def %d: type index %d out of range", i, classIdx)
		}
		strIdx := descIdx[classIdx]
		if int(strIdx) >= len(stringOffs) {
			return nil, fmt.Errorf("class_def %d: string index %d out of range", i, strIdx)
		}
		desc, err := stringData(data, stringOffs[strIdx])
		if err != nil {
			return nil, fmt.Errorf("class_def %d: %w", i, err)
		}
		descriptors = append(descriptors, desc)
	}

	return &File{
		Version:     version,
		StringCount: len(stringOffs),
		TypeCount:   len(descIdx),
		ClassCount:  classCount,
		descriptors: descriptors,
	}, nil
}

// table returns the raw bytes of a header-addressed table after bounds
// checking. An empty table is valid regardless of its offset.
func table(data []byte, sizeOff, posOff, itemSize int, name string) ([]byte, error) {
	count := int(binary.LittleEndian.Uint32(data[sizeOff:]))
	start := int(binary.LittleEndian.Uint32(data[posOff:]))
	if count == 0 {
		return nil, nil
	}

	end := start + count*itemSize
	if start < headerSize || end < start || end > len(data) {
		return nil, fmt.Errorf("%s table out of bounds: %d items at 0x%X", name, count, start)
	}
	return data[start:end], nil
}

// stringData decodes the string_data_item at off: a uleb128 utf16
// length followed by MUTF-8 bytes terminated by NUL. Descriptors are
// ASCII, so the raw bytes are returned without surrogate decoding.
func stringData(data []byte, off uint32) (string, error) {
	pos := int(off)
	if pos >= len(data) {
		return "", fmt.Errorf("string data offset 0x%X out of range", off)
	}

	for {
		if pos >= len(data) {
			return "", fmt.Errorf("truncated string length at 0x%X", off)
		}
		b := data[pos]
		pos++
		if b&0x80 == 0 {
			break
		}
	}

	end := bytes.IndexByte(data[pos:], 0)
	if end < 0 {
		return "", fmt.Errorf("unterminated string at 0x%X", off)
	}
	return string(data[pos : pos+end]), nil
}
