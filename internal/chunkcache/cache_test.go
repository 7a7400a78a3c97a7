package chunkcache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/minio/gwalker/internal/blockfmt"
)

func writeTestBlock(t *testing.T, dir string, k int, vlo uint32, n int) []byte {
	t.Helper()
	w, err := blockfmt.NewWriter(dir, k, vlo)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	var want bytes.Buffer
	for i := 0; i < n; i++ {
		r := blockfmt.Record{VertexID: vlo + uint32(i), Neighbors: []uint32{vlo + uint32(i) + 1, vlo + uint32(i) + 2}}
		want.Write(blockfmt.EncodeRecord(nil, r))
		if err := w.Append(r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	return want.Bytes()
}

func TestCacheStreamsBlockInOrder(t *testing.T) {
	dir := t.TempDir()
	want := writeTestBlock(t, dir, 0, 0, 50)

	c, err := New(dir, 64, 3, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	if err := c.Open(ctx, 0, 0, uint64(len(want))); err != nil {
		t.Fatalf("Open: %v", err)
	}

	var got bytes.Buffer
	for {
		ch, err := c.PollReady(ctx)
		if err != nil {
			t.Fatalf("PollReady: %v", err)
		}
		if ch == nil {
			break
		}
		if ch.State() != StateReady {
			t.Errorf("chunk %d state = %v, want READY", ch.Index, ch.State())
		}
		got.Write(ch.Bytes())
		c.Release(ch)
	}

	if !bytes.Equal(got.Bytes(), want) {
		t.Errorf("reassembled block mismatch: got %d bytes, want %d bytes", got.Len(), len(want))
	}
}

func TestCacheRingReuseAcrossBlocks(t *testing.T) {
	dir := t.TempDir()
	block0 := writeTestBlock(t, dir, 0, 0, 20)
	block1 := writeTestBlock(t, dir, 1, 100, 20)

	c, err := New(dir, 32, 2, 2)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	for _, blk := range []struct {
		k    int
		vlo  uint32
		want []byte
	}{{0, 0, block0}, {1, 100, block1}} {
		if err := c.Open(ctx, blk.k, blk.vlo, uint64(len(blk.want))); err != nil {
			t.Fatalf("Open(%d): %v", blk.k, err)
		}
		var got bytes.Buffer
		for {
			ch, err := c.PollReady(ctx)
			if err != nil {
				t.Fatalf("PollReady: %v", err)
			}
			if ch == nil {
				break
			}
			got.Write(ch.Bytes())
			c.Release(ch)
		}
		if !bytes.Equal(got.Bytes(), blk.want) {
			t.Errorf("block %d mismatch: got %d bytes, want %d", blk.k, got.Len(), len(blk.want))
		}
		if err := c.Close(); err != nil {
			t.Fatalf("Close: %v", err)
		}
	}
}

func TestCacheCloseIsPromptAfterCancellation(t *testing.T) {
	dir := t.TempDir()
	want := writeTestBlock(t, dir, 0, 0, 5)

	c, err := New(dir, 16, 1, 1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := c.Open(ctx, 0, 0, uint64(len(want))); err != nil {
		t.Fatalf("Open: %v", err)
	}
	cancel()

	done := make(chan struct{})
	go func() {
		c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return after context cancellation")
	}
}
