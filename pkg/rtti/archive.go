package rtti

// Archive is the minimal read/write surface a Property needs to serialize
// its own value. The concrete byte-order-aware implementation lives in
// pkg/serialize; rtti only depends on this interface so the two packages
// don't import each other.
type Archive interface {
	IsReading() bool
	IsWriting() bool

	ReadInt8() int8
	ReadInt16() int16
	ReadInt32() int32
	ReadInt64() int64
	ReadUint8() uint8
	ReadUint16() uint16
	ReadUint32() uint32
	ReadUint64() uint64
	ReadFloat32() float32
	ReadFloat64() float64
	ReadBool() bool
	ReadString() string

	WriteInt8(int8)
	WriteInt16(int16)
	WriteInt32(int32)
	WriteInt64(int64)
	WriteUint8(uint8)
	WriteUint16(uint16)
	WriteUint32(uint32)
	WriteUint64(uint64)
	WriteFloat32(float32)
	WriteFloat64(float64)
	WriteBool(bool)
	WriteString(string)

	SetError(error)
	HasError() bool
}
