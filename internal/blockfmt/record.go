// Package blockfmt implements the on-disk binary block format (C1):
// little-endian, packed, no padding adjacency records, the
// block_of.u8 vertex->block map, and the per-block begin-position
// index used to locate a vertex's record by byte offset.
package blockfmt

import (
	"encoding/binary"
	"io"
)

// Record is one vertex's adjacency record as laid out in a block file:
// {vertex_id: u32, out_degree: u32, neighbors: u32[out_degree]}.
type Record struct {
	VertexID  uint32
	Neighbors []uint32
}

// OutDegree is the record's out-degree, written as the on-disk header
// field.
func (r Record) OutDegree() uint32 { return uint32(len(r.Neighbors)) }

// ByteSize is the exact number of bytes this record occupies on disk:
// 8 + 4*out_degree, matching the C1 size-accounting invariant.
func (r Record) ByteSize() int { return 8 + 4*len(r.Neighbors) }

// EncodeRecord appends a record's wire encoding to dst and returns the
// extended slice.
func EncodeRecord(dst []byte, r Record) []byte {
	var hdr [8]byte
	binary.LittleEndian.PutUint32(hdr[0:4], r.VertexID)
	binary.LittleEndian.PutUint32(hdr[4:8], r.OutDegree())
	dst = append(dst, hdr[:]...)
	for _, n := range r.Neighbors {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], n)
		dst = append(dst, b[:]...)
	}
	return dst
}

// DecodeRecord reads one record from r. It returns io.EOF only when no
// bytes at all could be read (clean end of block).
func DecodeRecord(r io.Reader) (Record, error) {
	var hdr [8]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Record{}, err
	}
	vid := binary.LittleEndian.Uint32(hdr[0:4])
	deg := binary.LittleEndian.Uint32(hdr[4:8])
	var neighbors []uint32
	if deg > 0 {
		buf := make([]byte, 4*deg)
		if _, err := io.ReadFull(r, buf); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return Record{}, err
		}
		neighbors = make([]uint32, deg)
		for i := range neighbors {
			neighbors[i] = binary.LittleEndian.Uint32(buf[4*i : 4*i+4])
		}
	}
	return Record{VertexID: vid, Neighbors: neighbors}, nil
}

// DecodeRecordAt decodes a record directly from a byte slice starting
// at off, returning the record and the number of bytes consumed. Used
// by the scheduler to decode a vertex's record from a block's
// reassembled bytes without an io.Reader indirection.
func DecodeRecordAt(buf []byte, off int) (Record, int, bool) {
	if off+8 > len(buf) {
		return Record{}, 0, false
	}
	vid := binary.LittleEndian.Uint32(buf[off : off+4])
	deg := binary.LittleEndian.Uint32(buf[off+4 : off+8])
	end := off + 8 + 4*int(deg)
	if end > len(buf) {
		return Record{}, 0, false
	}
	var neighbors []uint32
	if deg > 0 {
		neighbors = make([]uint32, deg)
		for i := 0; i < int(deg); i++ {
			o := off + 8 + 4*i
			neighbors[i] = binary.LittleEndian.Uint32(buf[o : o+4])
		}
	}
	return Record{VertexID: vid, Neighbors: neighbors}, end - off, true
}
