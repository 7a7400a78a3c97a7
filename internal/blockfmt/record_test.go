package blockfmt

import (
	"bytes"
	"testing"
)

func TestEncodeDecodeRecordRoundTrip(t *testing.T) {
	r := Record{VertexID: 7, Neighbors: []uint32{1, 2, 3, 4}}
	buf := EncodeRecord(nil, r)
	if len(buf) != r.ByteSize() {
		t.Fatalf("encoded length = %d, want %d", len(buf), r.ByteSize())
	}

	got, err := DecodeRecord(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if got.VertexID != r.VertexID || got.OutDegree() != r.OutDegree() {
		t.Fatalf("decoded %+v, want %+v", got, r)
	}
	for i, n := range got.Neighbors {
		if n != r.Neighbors[i] {
			t.Errorf("neighbor[%d] = %d, want %d", i, n, r.Neighbors[i])
		}
	}
}

func TestDecodeRecordAtStraddlesMultipleRecords(t *testing.T) {
	r1 := Record{VertexID: 0, Neighbors: []uint32{10}}
	r2 := Record{VertexID: 1, Neighbors: []uint32{}}
	r3 := Record{VertexID: 2, Neighbors: []uint32{20, 21}}

	var buf []byte
	buf = EncodeRecord(buf, r1)
	off2 := len(buf)
	buf = EncodeRecord(buf, r2)
	off3 := len(buf)
	buf = EncodeRecord(buf, r3)

	got1, n1, ok := DecodeRecordAt(buf, 0)
	if !ok || got1.VertexID != 0 || n1 != r1.ByteSize() {
		t.Fatalf("DecodeRecordAt(0) = %+v, %d, %v", got1, n1, ok)
	}
	got2, n2, ok := DecodeRecordAt(buf, off2)
	if !ok || got2.VertexID != 1 || len(got2.Neighbors) != 0 || n2 != r2.ByteSize() {
		t.Fatalf("DecodeRecordAt(%d) = %+v, %d, %v", off2, got2, n2, ok)
	}
	got3, n3, ok := DecodeRecordAt(buf, off3)
	if !ok || got3.VertexID != 2 || n3 != r3.ByteSize() {
		t.Fatalf("DecodeRecordAt(%d) = %+v, %d, %v", off3, got3, n3, ok)
	}
}

func TestDecodeRecordAtRejectsTruncatedBuffer(t *testing.T) {
	r := Record{VertexID: 0, Neighbors: []uint32{1, 2, 3}}
	buf := EncodeRecord(nil, r)
	if _, _, ok := DecodeRecordAt(buf[:len(buf)-1], 0); ok {
		t.Error("DecodeRecordAt on a truncated buffer should report ok=false")
	}
}

func TestRecordByteSize(t *testing.T) {
	r := Record{VertexID: 0, Neighbors: make([]uint32, 5)}
	if got, want := r.ByteSize(), 8+4*5; got != want {
		t.Errorf("ByteSize() = %d, want %d", got, want)
	}
}
