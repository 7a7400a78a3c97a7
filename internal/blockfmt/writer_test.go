package blockfmt

import "testing"

func TestWriterBuildsBeginIndexMatchingOnDiskOffsets(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, 0, 100)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}

	records := []Record{
		{VertexID: 100, Neighbors: []uint32{101}},
		{VertexID: 101, Neighbors: []uint32{100, 102}},
		{VertexID: 102, Neighbors: nil},
	}
	for _, r := range records {
		if err := w.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err := loadBeginIndex(dir, 0, 100)
	if err != nil {
		t.Fatalf("loadBeginIndex: %v", err)
	}

	wantOff := uint64(0)
	for _, r := range records {
		off, ok := idx.OffsetOf(r.VertexID)
		if !ok || off != wantOff {
			t.Errorf("OffsetOf(%d) = %d, %v, want %d", r.VertexID, off, ok, wantOff)
		}
		length, ok := idx.RecordLen(r.VertexID)
		if !ok || length != uint64(r.ByteSize()) {
			t.Errorf("RecordLen(%d) = %d, %v, want %d", r.VertexID, length, ok, r.ByteSize())
		}
		wantOff += uint64(r.ByteSize())
	}
	if idx.Size() != wantOff {
		t.Errorf("Size() = %d, want %d", idx.Size(), wantOff)
	}
}
