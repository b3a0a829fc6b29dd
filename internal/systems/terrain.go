package systems

import (
	"time"

	"go.uber.org/zap"

	"github.com/emberwild/server/internal/core/system"
	"github.com/emberwild/server/internal/protocol"
	"github.com/emberwild/server/internal/sim"
)

// TerrainIngest installs chunks finished by the generation workers and
// delivers them to the sessions that asked. Runs at the head of the
// input phase so handlers see the freshest grid.
type TerrainIngest struct {
	rs *sim.Resources
}

func NewTerrainIngest(rs *sim.Resources) *TerrainIngest { return &TerrainIngest{rs: rs} }

func (s *TerrainIngest) Name() string        { return "terrain_ingest" }
func (s *TerrainIngest) Phase() system.Phase { return system.PhaseInput }

func (s *TerrainIngest) Access() system.Access {
	return system.Access{
		Writes: []system.CompID{sim.ResTerrain},
	}
}

func (s *TerrainIngest) Update(dt time.Duration) {
	rs := s.rs
	for _, res := range rs.GenPool.Results().DrainAll() {
		if res.Err != nil {
			rs.Log.Warn("chunk generation failed",
				zap.Int32("x", res.Key.X), zap.Int32("y", res.Key.Y), zap.Error(res.Err))
			if sess := rs.Sessions.Get(res.Requester); sess != nil {
				reply, _ := protocol.Encode(protocol.ChunkUpdateMsg{
					Type:  protocol.TypeChunkUpdate,
					Key:   [2]int32{res.Key.X, res.Key.Y},
					Error: "generation failed",
				})
				sess.Send(reply)
			}
			continue
		}
		if _, exists := rs.Terrain.Chunk(res.Key); !exists {
			rs.Terrain.InsertChunk(res.Chunk)
		}
		payload := protocol.CompressChunk(res.Chunk.Serialize())
		rs.ChunkCache[res.Key] = payload
		if sess := rs.Sessions.Get(res.Requester); sess != nil {
			reply, _ := protocol.Encode(protocol.ChunkUpdateMsg{
				Type:    protocol.TypeChunkUpdate,
				Key:     [2]int32{res.Key.X, res.Key.Y},
				Payload: payload,
			})
			sess.Send(reply)
		}
	}
}
