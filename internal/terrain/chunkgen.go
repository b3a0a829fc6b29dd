package terrain

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/emberwild/server/internal/core/event"
)

// ChunkResult is the dedicated event a generation worker reports through;
// the terrain system drains the bus each tick and installs or rejects the
// chunk.
type ChunkResult struct {
	Key       ChunkKey
	Chunk     *Chunk
	Err       error
	Requester uint64 // session id that asked, 0 for server-side loads
}

// GenPool runs chunk generation on background workers so a slow chunk
// never stalls the tick.
type GenPool struct {
	seed     int64
	requests chan genRequest
	results  *event.Bus[ChunkResult]
	cancel   context.CancelFunc
	log      *zap.Logger
}

type genRequest struct {
	key       ChunkKey
	requester uint64
}

func NewGenPool(seed int64, workers int, log *zap.Logger) *GenPool {
	ctx, cancel := context.WithCancel(context.Background())
	p := &GenPool{
		seed:     seed,
		requests: make(chan genRequest, 256),
		results:  event.NewBus[ChunkResult](),
		cancel:   cancel,
		log:      log,
	}
	for i := 0; i < workers; i++ {
		go p.worker(ctx)
	}
	return p
}

// Request enqueues a chunk for generation. Returns false when the queue
// is saturated; the client retries next tick.
func (p *GenPool) Request(key ChunkKey, requester uint64) bool {
	select {
	case p.requests <- genRequest{key: key, requester: requester}:
		return true
	default:
		return false
	}
}

// Results is the bus the terrain system drains each tick.
func (p *GenPool) Results() *event.Bus[ChunkResult] { return p.results }

func (p *GenPool) Stop() { p.cancel() }

func (p *GenPool) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-p.requests:
			c := Generate(p.seed, req.key)
			p.results.EmitNow(ChunkResult{Key: req.key, Chunk: c, Requester: req.requester})
		}
	}
}

// Generate builds the chunk column for a key, deterministic in the world
// seed. Heightfield terrain: stone below, dirt cap, grass surface, water
// filling low ground.
func Generate(seed int64, key ChunkKey) *Chunk {
	c := &Chunk{Key: key}
	const seaLevel = 12
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			wx := float64(int(key.X)*ChunkSize + x)
			wy := float64(int(key.Y)*ChunkSize + y)
			h := surfaceHeight(seed, wx, wy)
			for z := 0; z < ChunkHeight; z++ {
				switch {
				case z < h-3:
					c.Set(x, y, z, BlockStone)
				case z < h:
					c.Set(x, y, z, BlockDirt)
				case z == h:
					c.Set(x, y, z, BlockGrass)
				case z <= seaLevel:
					c.Set(x, y, z, BlockWater)
				}
			}
		}
	}
	return c
}

// surfaceHeight is a cheap layered-sine heightfield, enough to exercise
// collision and chunk streaming without a real worldgen stage.
func surfaceHeight(seed int64, x, y float64) int {
	s := float64(seed%1024) * 0.017
	h := 14.0 +
		6*math.Sin(x*0.031+s) +
		4*math.Cos(y*0.043+s*1.7) +
		2*math.Sin((x+y)*0.011-s)
	if h < 1 {
		h = 1
	}
	if h > ChunkHeight-2 {
		h = ChunkHeight - 2
	}
	return int(h)
}
