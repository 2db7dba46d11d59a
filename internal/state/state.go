// Package state implements the save-state codec shared by every
// component, mirroring the teacher's types.State/types.Stater split: a
// component never knows how the bytes reach disk, it only knows how to
// serialize itself into a Chunk.
package state

import "encoding/binary"

// Stater is implemented by any component whose state can be snapshotted.
type Stater interface {
	Save(c *Chunk)
	Load(c *Chunk)
}

// Chunk is an append/consume byte cursor used to (de)serialize component
// state in a fixed order. Writers and readers on the two sides of a
// save/restore round trip must call the same sequence of methods.
type Chunk struct {
	buf []byte
	pos int
}

func NewWriter() *Chunk {
	return &Chunk{buf: make([]byte, 0, 256)}
}

func NewReader(b []byte) *Chunk {
	return &Chunk{buf: b}
}

func (c *Chunk) Bytes() []byte { return c.buf }

func (c *Chunk) Write8(v uint8) {
	c.buf = append(c.buf, v)
}

func (c *Chunk) Read8() uint8 {
	v := c.buf[c.pos]
	c.pos++
	return v
}

func (c *Chunk) Write16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	c.buf = append(c.buf, b[:]...)
}

func (c *Chunk) Read16() uint16 {
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v
}

func (c *Chunk) Write32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	c.buf = append(c.buf, b[:]...)
}

func (c *Chunk) Read32() uint32 {
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v
}

func (c *Chunk) Write64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	c.buf = append(c.buf, b[:]...)
}

func (c *Chunk) Read64() uint64 {
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v
}

func (c *Chunk) WriteBool(v bool) {
	if v {
		c.Write8(1)
	} else {
		c.Write8(0)
	}
}

func (c *Chunk) ReadBool() bool {
	return c.Read8() != 0
}

func (c *Chunk) WriteBytes(v []byte) {
	c.buf = append(c.buf, v...)
}

func (c *Chunk) ReadBytes(n int) []byte {
	v := c.buf[c.pos : c.pos+n]
	c.pos += n
	return v
}
