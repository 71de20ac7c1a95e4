// Package serialize implements the Archive abstraction (byte-order-aware
// primitive reads and writes over an in-memory buffer, with a sticky error
// flag) and the tagged-property serialization protocol layered on top of it:
// each property is written with a self-describing tag so a later read can
// tolerate properties added, removed, reordered, or widened since the data
// was written.
package serialize

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/lumina-rt/objectcore/pkg/rtti"
)

// ErrShortRead is returned (and recorded via SetError) when a read runs past
// the end of the archive's buffer.
var ErrShortRead = errors.New("serialize: short read")

// Archive is an in-memory, byte-order-aware (little-endian) primitive
// reader/writer with a sticky error flag: once HasError is true, every
// further read returns zero values rather than panicking, so a corrupt
// stream degrades to "the rest of this object is garbage" instead of a
// crash. It implements rtti.Archive, so any rtti.Property can serialize
// directly through it.
type Archive struct {
	buf     []byte
	pos     int64
	reading bool
	err     error
}

var _ rtti.Archive = (*Archive)(nil)

// NewWriter returns an empty Archive in writing mode.
func NewWriter() *Archive {
	return &Archive{}
}

// NewReader returns an Archive in reading mode over buf. buf is not copied;
// callers must not mutate it while the Archive is in use.
func NewReader(buf []byte) *Archive {
	return &Archive{buf: buf, reading: true}
}

// Bytes returns the archive's full backing buffer. For a writer, this is
// everything written so far.
func (a *Archive) Bytes() []byte { return a.buf }

// IsReading reports whether the archive was constructed with NewReader.
func (a *Archive) IsReading() bool { return a.reading }

// IsWriting reports whether the archive was constructed with NewWriter.
func (a *Archive) IsWriting() bool { return !a.reading }

// Tell returns the current read/write cursor position.
func (a *Archive) Tell() int64 { return a.pos }

// TotalSize returns the total number of bytes in the backing buffer.
func (a *Archive) TotalSize() int64 { return int64(len(a.buf)) }

// Seek repositions the cursor. Seeking past TotalSize is allowed for a
// writer (a subsequent write will zero-fill the gap); for a reader it will
// simply produce short reads.
func (a *Archive) Seek(pos int64) { a.pos = pos }

// SetError records err as the archive's sticky error, if one isn't already
// set. Once set, it is never cleared.
func (a *Archive) SetError(err error) {
	if a.err == nil {
		a.err = err
	}
}

// HasError reports whether the archive has recorded an error.
func (a *Archive) HasError() bool { return a.err != nil }

// Err returns the archive's recorded error, or nil.
func (a *Archive) Err() error { return a.err }

// readN returns the next n bytes at the cursor, advancing it. On a short
// read it records ErrShortRead and returns an all-zero slice of length n so
// callers never have to nil-check.
func (a *Archive) readN(n int) []byte {
	if a.err != nil {
		return make([]byte, n)
	}
	end := a.pos + int64(n)
	if end > int64(len(a.buf)) || a.pos < 0 {
		a.SetError(ErrShortRead)
		return make([]byte, n)
	}
	b := a.buf[a.pos:end]
	a.pos = end
	return b
}

// writeN appends b at the cursor, growing the buffer and zero-filling any
// gap if the cursor was seeked past the current end.
func (a *Archive) writeN(b []byte) {
	if a.err != nil {
		return
	}
	end := a.pos + int64(len(b))
	if end > int64(len(a.buf)) {
		grown := make([]byte, end)
		copy(grown, a.buf)
		a.buf = grown
	}
	copy(a.buf[a.pos:end], b)
	a.pos = end
}

func (a *Archive) ReadInt8() int8     { return int8(a.readN(1)[0]) }
func (a *Archive) ReadUint8() uint8   { return a.readN(1)[0] }
func (a *Archive) ReadBool() bool     { return a.readN(1)[0] != 0 }
func (a *Archive) ReadInt16() int16   { return int16(binary.LittleEndian.Uint16(a.readN(2))) }
func (a *Archive) ReadUint16() uint16 { return binary.LittleEndian.Uint16(a.readN(2)) }
func (a *Archive) ReadInt32() int32   { return int32(binary.LittleEndian.Uint32(a.readN(4))) }
func (a *Archive) ReadUint32() uint32 { return binary.LittleEndian.Uint32(a.readN(4)) }
func (a *Archive) ReadInt64() int64   { return int64(binary.LittleEndian.Uint64(a.readN(8))) }
func (a *Archive) ReadUint64() uint64 { return binary.LittleEndian.Uint64(a.readN(8)) }

func (a *Archive) ReadFloat32() float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(a.readN(4)))
}
func (a *Archive) ReadFloat64() float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(a.readN(8)))
}

// ReadString reads a uint32 byte-length prefix followed by the raw UTF-8
// bytes, with no trailing NUL (unlike the arena-backed name interner's
// internal C-string storage, which is a process-local detail this format
// never exposes on disk).
func (a *Archive) ReadString() string {
	n := int(a.ReadUint32())
	if n == 0 {
		return ""
	}
	if n < 0 || n > maxStringLen {
		a.SetError(errors.New("serialize: string length exceeds sanity limit"))
		return ""
	}
	return string(a.readN(n))
}

// ReadBytes reads n raw bytes with no length prefix.
func (a *Archive) ReadBytes(n int) []byte {
	b := a.readN(n)
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (a *Archive) WriteInt8(v int8)   { a.writeN([]byte{byte(v)}) }
func (a *Archive) WriteUint8(v uint8) { a.writeN([]byte{v}) }
func (a *Archive) WriteBool(v bool) {
	if v {
		a.writeN([]byte{1})
	} else {
		a.writeN([]byte{0})
	}
}

func (a *Archive) WriteInt16(v int16)   { a.WriteUint16(uint16(v)) }
func (a *Archive) WriteUint16(v uint16) { a.writeFixed(2, func(b []byte) { binary.LittleEndian.PutUint16(b, v) }) }
func (a *Archive) WriteInt32(v int32)   { a.WriteUint32(uint32(v)) }
func (a *Archive) WriteUint32(v uint32) { a.writeFixed(4, func(b []byte) { binary.LittleEndian.PutUint32(b, v) }) }
func (a *Archive) WriteInt64(v int64)   { a.WriteUint64(uint64(v)) }
func (a *Archive) WriteUint64(v uint64) { a.writeFixed(8, func(b []byte) { binary.LittleEndian.PutUint64(b, v) }) }

func (a *Archive) WriteFloat32(v float32) { a.WriteUint32(math.Float32bits(v)) }
func (a *Archive) WriteFloat64(v float64) { a.WriteUint64(math.Float64bits(v)) }

// WriteString writes a uint32 byte-length prefix followed by the raw UTF-8
// bytes.
func (a *Archive) WriteString(s string) {
	a.WriteUint32(uint32(len(s)))
	a.writeN([]byte(s))
}

// WriteBytes writes raw bytes with no length prefix.
func (a *Archive) WriteBytes(b []byte) { a.writeN(b) }

func (a *Archive) writeFixed(n int, fill func([]byte)) {
	b := make([]byte, n)
	fill(b)
	a.writeN(b)
}

// maxStringLen guards against a corrupt or adversarial length prefix
// allocating an unreasonable amount of memory before the short-read check
// even has a chance to fire.
const maxStringLen = 64 << 20
