// Package classfile reads just enough of the JVM class file format to
// recover the fully qualified name of the class a file defines: the
// magic number, the constant pool, and the this_class reference.
package classfile

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

const magic = 0xCAFEBABE

// Constant pool entry tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// ClassName reads a compiled class and returns its fully qualified
// dotted name, e.g. "com.example.Main". Class files in the default
// package yield the bare class name.
func ClassName(r io.Reader) (string, error) {
	d := &decoder{r: r}

	m, err := d.u32()
	if err != nil {
		return "", fmt.Errorf("failed to read class file header: %w", err)
	}
	if m != magic {
		return "", fmt.Errorf("not a class file: magic 0x%08X", m)
	}
	if err := d.skip(4); err != nil { // minor and major version
		return "", fmt.Errorf("failed to read class file version: %w", err)
	}

	cpCount, err := d.u16()
	if err != nil {
		return "", fmt.Errorf("failed to read constant pool count: %w", err)
	}

	// Entries are indexed from 1; Long and Double occupy two slots.
	utf8s := make(map[uint16]string)
	classes := make(map[uint16]uint16)

	for i := uint16(1); i < cpCount; i++ {
		tag, err := d.u8()
		if err != nil {
			return "", fmt.Errorf("failed to read constant pool entry %d: %w", i, err)
		}
		switch tag {
		case tagUtf8:
			length, err := d.u16()
			if err != nil {
				return "", fmt.Errorf("failed to read utf8 length at entry %d: %w", i, err)
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(d.r, data); err != nil {
				return "", fmt.Errorf("failed to read utf8 data at entry %d: %w", i, err)
			}
			utf8s[i] = string(data)
		case tagClass:
			nameIndex, err := d.u16()
			if err != nil {
				return "", fmt.Errorf("failed to read class reference at entry %d: %w", i, err)
			}
			classes[i] = nameIndex
		case tagString, tagMethodType, tagModule, tagPackage:
			err = d.skip(2)
		case tagMethodHandle:
			err = d.skip(3)
		case tagInteger, tagFloat, tagFieldref, tagMethodref,
			tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			err = d.skip(4)
		case tagLong, tagDouble:
			err = d.skip(8)
			i++
		default:
			return "", fmt.Errorf("unknown constant pool tag %d at entry %d", tag, i)
		}
		if err != nil {
			return "", fmt.Errorf("failed to read constant pool entry %d: %w", i, err)
		}
	}

	if err := d.skip(2); err != nil { // access_flags
		return "", fmt.Errorf("failed to read access flags: %w", err)
	}
	thisClass, err := d.u16()
	if err != nil {
		return "", fmt.Errorf("failed to read this_class: %w", err)
	}

	nameIndex, ok := classes[thisClass]
	if !ok {
		return "", fmt.Errorf("this_class %d is not a class constant", thisClass)
	}
	name, ok := utf8s[nameIndex]
	if !ok {
		return "", fmt.Errorf("class name index %d is not a utf8 constant", nameIndex)
	}
	return strings.ReplaceAll(name, "/", "."), nil
}

type decoder struct {
	r   io.Reader
	buf [4]byte
}

func (d *decoder) u8() (uint8, error) {
	if _, err := io.ReadFull(d.r, d.buf[:1]); err != nil {
		return 0, err
	}
	return d.buf[0], nil
}

func (d *decoder) u16() (uint16, error) {
	if _, err := io.ReadFull(d.r, d.buf[:2]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(d.buf[:2]), nil
}

func (d *decoder) u32() (uint32, error) {
	if _, err := io.ReadFull(d.r, d.buf[:4]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(d.buf[:4]), nil
}

func (d *decoder) skip(n int64) error {
	_, err := io.CopyN(io.Discard, d.r, n)
	return err
}
