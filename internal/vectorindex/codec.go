package vectorindex

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
)

const (
	blobMagic   = "AXVI"
	blobVersion = 1

	// magic(4) version(2) reserved(2) dim(4) rows(4)
	blobHeaderSize = 16
	blobCRCSize    = 4
)

// MarshalBinary encodes the index as a little-endian blob:
// header, rows*dim float32 values, then a CRC32 of everything before it.
// An uninitialized index encodes with dim=0 and rows=0.
func (f *Flat) MarshalBinary() ([]byte, error) {
	out := make([]byte, blobHeaderSize, blobHeaderSize+4*len(f.data)+blobCRCSize)
	copy(out[0:4], blobMagic)
	binary.LittleEndian.PutUint16(out[4:6], blobVersion)
	binary.LittleEndian.PutUint32(out[8:12], uint32(f.dim))
	binary.LittleEndian.PutUint32(out[12:16], uint32(f.rows))

	for _, v := range f.data {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	out = binary.LittleEndian.AppendUint32(out, crc32.ChecksumIEEE(out))
	return out, nil
}

// UnmarshalBinary replaces the index contents with a blob written by MarshalBinary.
func (f *Flat) UnmarshalBinary(data []byte) error {
	if len(data) < blobHeaderSize+blobCRCSize {
		return fmt.Errorf("%w: %d bytes", ErrCorrupt, len(data))
	}
	if string(data[0:4]) != blobMagic {
		return fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != blobVersion {
		return fmt.Errorf("%w: unsupported blob version %d", ErrCorrupt, v)
	}

	body := data[:len(data)-blobCRCSize]
	want := binary.LittleEndian.Uint32(data[len(data)-blobCRCSize:])
	if got := crc32.ChecksumIEEE(body); got != want {
		return fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}

	dim := uint64(binary.LittleEndian.Uint32(data[8:12]))
	rows := uint64(binary.LittleEndian.Uint32(data[12:16]))
	if dim == 0 && rows != 0 {
		return fmt.Errorf("%w: %d rows without a dimension", ErrCorrupt, rows)
	}
	// dim*rows fits in uint64 since both come from uint32 fields.
	payload := body[blobHeaderSize:]
	if n := uint64(len(payload)); n%4 != 0 || n/4 != dim*rows {
		return fmt.Errorf("%w: header declares %d x %d values, payload has %d bytes", ErrCorrupt, rows, dim, len(payload))
	}

	vals := make([]float32, len(payload)/4)
	for i := range vals {
		vals[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
	}

	f.dim = int(dim)
	f.rows = int(rows)
	f.data = vals
	return nil
}
