package handler

import (
	"encoding/json"
	"math"

	"go.uber.org/zap"

	"github.com/emberwild/server/internal/net"
	"github.com/emberwild/server/internal/protocol"
	"github.com/emberwild/server/internal/sim"
	"github.com/emberwild/server/internal/terrain"
)

// viewEpsilon widens the request check by one chunk so clients prefetching
// the ring just outside their subscription are not rejected.
const viewEpsilon = 1.0

// HandleChunkRequest serves a chunk within the requester's view distance:
// from the compressed cache when warm, from the loaded grid otherwise,
// and by queueing background generation when the chunk does not exist
// yet. Out-of-range requests get an error reply.
func HandleChunkRequest(s *net.Session, raw []byte, rs *sim.Resources) {
	var msg protocol.ChunkRequestMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	e, ok := boundEntity(s, rs)
	if !ok {
		return
	}
	key := terrain.ChunkKey{X: msg.Key[0], Y: msg.Key[1]}

	pos, hasPos := rs.Stores.Pos.Get(e)
	pres, hasPres := rs.Stores.Presence.Get(e)
	if !hasPos || !hasPres {
		return
	}
	center := terrain.KeyOf(pos.P)
	dx := float64(key.X - center.X)
	dy := float64(key.Y - center.Y)
	if math.Max(math.Abs(dx), math.Abs(dy)) > float64(pres.ViewDistance)+viewEpsilon {
		reply, _ := protocol.Encode(protocol.ChunkUpdateMsg{
			Type:  protocol.TypeChunkUpdate,
			Key:   msg.Key,
			Error: "out of view range",
		})
		s.Send(reply)
		return
	}

	if payload, ok := rs.ChunkCache[key]; ok {
		sendChunk(s, msg.Key, payload)
		return
	}
	if c, ok := rs.Terrain.Chunk(key); ok {
		payload := protocol.CompressChunk(c.Serialize())
		rs.ChunkCache[key] = payload
		sendChunk(s, msg.Key, payload)
		return
	}
	// Not generated yet; the terrain system delivers it when the worker
	// reports back. A saturated queue means the client retries.
	if !rs.GenPool.Request(key, s.ID) {
		rs.Log.Debug("chunk generation queue full",
			zap.Int32("x", key.X), zap.Int32("y", key.Y))
	}
}

func sendChunk(s *net.Session, key [2]int32, payload []byte) {
	reply, _ := protocol.Encode(protocol.ChunkUpdateMsg{
		Type:    protocol.TypeChunkUpdate,
		Key:     key,
		Payload: payload,
	})
	s.Send(reply)
}
