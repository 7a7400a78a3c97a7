package chunkcache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/minio/gwalker/internal/asyncio"
	"github.com/minio/gwalker/internal/blockfmt"
	"github.com/minio/gwalker/internal/gwerr"
)

// Cache streams one open block's bytes through a fixed ring of
// page-aligned chunks: a single producer goroutine keeps the ring's
// free slots filled with the next sequential window of the block file,
// and compute threads drain completed chunks through PollReady/Release.
// A block is read strictly in vertex order, so one sequential stream
// through the ring is all that's needed per open block.
type Cache struct {
	eng engineParams
	dir string
	sub *asyncio.Submitter

	mu       sync.Mutex
	chunks   []*Chunk
	freeQ    *ring
	loadQ    *ring
	fd       int
	blockID  int
	blockSz  uint64
	vlo      uint32
	idx      blockfmt.BeginIndex
	idxCache *blockfmt.IndexCache

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	producerErr chan error
}

// engineParams is the narrow slice of engine.Config the cache actually
// needs, kept local to avoid an import cycle with internal/engine.
type engineParams struct {
	ChunkBytes int
	NumChunks  int
	IoDepth    int
}

// New builds a Cache with a ring of numChunks page-aligned buffers of
// chunkBytes each, an AIO submitter bounded to ioDepth outstanding
// reads, and a bounded begin-index cache for the block directory dir.
func New(dir string, chunkBytes, numChunks, ioDepth int) (*Cache, error) {
	if chunkBytes <= 0 || numChunks <= 0 || ioDepth <= 0 {
		return nil, gwerr.BadInput("chunkcache.New", fmt.Errorf("chunk_bytes, num_chunks and io_depth must be > 0"))
	}
	sub, err := asyncio.NewSubmitter(ioDepth)
	if err != nil {
		return nil, gwerr.IoError("chunkcache.New", "", err)
	}
	chunks := make([]*Chunk, numChunks)
	for i := range chunks {
		chunks[i] = &Chunk{Index: i, Buf: alignedBuffer(chunkBytes)}
	}
	return &Cache{
		eng:      engineParams{ChunkBytes: chunkBytes, NumChunks: numChunks, IoDepth: ioDepth},
		dir:      dir,
		sub:      sub,
		chunks:   chunks,
		idxCache: blockfmt.NewIndexCache(dir, 4),
		fd:       -1,
	}, nil
}

// Index returns block k's begin-position index, loading and caching it
// if necessary. Callers that need to locate a specific vertex's record
// within the bytes Open/PollReady produce (rather than only consuming
// them in order) use this instead of keeping a second IndexCache.
func (c *Cache) Index(k int, vlo uint32) (blockfmt.BeginIndex, error) {
	return c.idxCache.Get(k, vlo)
}

// Open activates block k, covering vertices starting at vlo and
// spanning blockSz bytes, and starts the producer loop. Any
// previously open block must be closed with Close first.
func (c *Cache) Open(ctx context.Context, k int, vlo uint32, blockSz uint64) error {
	idx, err := c.idxCache.Get(k, vlo)
	if err != nil {
		return err
	}

	fd, err := openBlockFile(blockfmt.BlockAdjPath(c.dir, k))
	if err != nil {
		return gwerr.IoError("chunkcache.Open", blockfmt.BlockAdjPath(c.dir, k), err)
	}

	c.mu.Lock()
	c.fd = fd
	c.blockID = k
	c.blockSz = blockSz
	c.vlo = vlo
	c.idx = idx
	c.freeQ = newRing(c.eng.NumChunks)
	c.loadQ = newRing(c.eng.NumChunks)
	for _, ch := range c.chunks {
		ch.setState(StateFree)
		c.freeQ.push(ch.Index)
	}
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.producerErr = make(chan error, 1)
	c.wg.Add(1)
	go c.produce(runCtx)
	return nil
}

// produce pops a free chunk, computes its byte window, submits an
// asynchronous read for it, marks it READY and publishes it to load_q,
// and finally publishes an end-of-block sentinel (-1) once the block
// is exhausted.
func (c *Cache) produce(ctx context.Context) {
	defer c.wg.Done()
	defer close(c.producerErr)

	var off uint64
	for off < c.blockSz {
		idx, ok := c.freeQ.pop()
		if !ok {
			return
		}
		ch := c.chunks[idx]
		ch.setState(StateLoading)

		want := uint64(c.eng.ChunkBytes)
		if remain := c.blockSz - off; remain < want {
			want = remain
		}

		if err := c.sub.ReadFull(ctx, asyncio.DefaultRetryPolicy(), c.fd, ch.Buf[:want], int64(off)); err != nil {
			select {
			case c.producerErr <- err:
			default:
			}
			return
		}

		ch.BlockID = c.blockID
		ch.BlkBegOff = off
		ch.LoadSz = int(want)
		ch.BegVert = c.idx.VertexAtOrBefore(off)
		ch.setState(StateReady)

		if !c.loadQ.tryPush(idx) {
			c.loadQ.push(idx)
		}
		off += want
	}
	// End-of-block sentinel: -1 carries no chunk, only "no more chunks
	// coming for this block activation".
	c.loadQ.push(-1)
}

// PollReady blocks until the next chunk is ready, returning nil, nil
// once the block's end-of-block sentinel is reached. Each returned
// chunk must eventually be passed to Release.
func (c *Cache) PollReady(ctx context.Context) (*Chunk, error) {
	select {
	case err := <-c.producerErr:
		if err != nil {
			return nil, err
		}
	default:
	}

	idx, ok := c.loadQ.pop()
	if !ok {
		return nil, nil
	}
	if idx < 0 {
		return nil, nil
	}
	return c.chunks[idx], nil
}

// Release returns a chunk to the free ring once its consumer is done
// reading it, completing the FREE -> LOADING -> READY -> EVICTED ->
// FREE cycle.
func (c *Cache) Release(ch *Chunk) {
	ch.setState(StateEvicted)
	ch.setState(StateFree)
	c.freeQ.push(ch.Index)
}

// Close stops the producer loop and closes the current block's file
// descriptor. The Cache (and its chunk ring) may be reused for a
// subsequent Open.
func (c *Cache) Close() error {
	if c.cancel != nil {
		c.cancel()
	}
	if c.freeQ != nil {
		c.freeQ.close()
		c.freeQ = nil
	}
	c.wg.Wait()

	c.mu.Lock()
	fd := c.fd
	c.fd = -1
	c.mu.Unlock()

	if fd >= 0 {
		if err := unix.Close(fd); err != nil {
			return gwerr.IoError("chunkcache.Close", "", err)
		}
	}
	return nil
}
