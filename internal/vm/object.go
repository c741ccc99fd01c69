package vm

// object.go implements the binary object-file format: a two-byte, big-endian origin address
// followed by the program's words, also big-endian, with no footer or checksum.

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// ObjectCode holds a contiguous block of code or data and the address at which it is to be loaded.
type ObjectCode struct {
	Orig Word
	Code []Word
}

// Bytes encodes the object code in the machine's binary object-file format.
func (obj ObjectCode) Bytes() ([]byte, error) {
	buf := new(bytes.Buffer)

	if err := binary.Write(buf, binary.BigEndian, obj.Orig); err != nil {
		return nil, fmt.Errorf("object: encode: %w", err)
	}

	if err := binary.Write(buf, binary.BigEndian, obj.Code); err != nil {
		return nil, fmt.Errorf("object: encode: %w", err)
	}

	return buf.Bytes(), nil
}

// ReadObjectCode decodes a binary object file: a 2-byte origin followed by 2-byte words until EOF.
func ReadObjectCode(data []byte) (ObjectCode, error) {
	var obj ObjectCode

	r := bytes.NewReader(data)

	if err := binary.Read(r, binary.BigEndian, &obj.Orig); err != nil {
		return obj, fmt.Errorf("object: decode: origin: %w", err)
	}

	obj.Code = make([]Word, r.Len()/2)
	if err := binary.Read(r, binary.BigEndian, obj.Code); err != nil {
		return obj, fmt.Errorf("object: decode: code: %w", err)
	}

	return obj, nil
}

// Loader copies object code into a machine's memory.
type Loader struct {
	vm *LC3
}

// NewLoader creates a loader for the given machine.
func NewLoader(vm *LC3) *Loader {
	return &Loader{vm: vm}
}

// Load stores each word of obj into memory starting at obj.Orig and returns the count of words
// loaded.
func (l *Loader) Load(obj ObjectCode) (uint16, error) {
	addr := obj.Orig

	for _, word := range obj.Code {
		if err := l.vm.Mem.Write(addr, word); err != nil {
			return uint16(addr - obj.Orig), fmt.Errorf("load: %w", err)
		}

		addr++
	}

	return uint16(len(obj.Code)), nil
}

// LoadBytes decodes and loads a raw object file in one step, and additionally returns the origin
// address it was loaded at so a caller can set the program counter to it.
func (l *Loader) LoadBytes(data []byte) (Word, uint16, error) {
	obj, err := ReadObjectCode(data)
	if err != nil {
		return 0, 0, err
	}

	n, err := l.Load(obj)

	return obj.Orig, n, err
}
