package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// stateDigest hashes everything that determines future ticks. Two worlds
// with equal digests evolve identically.
func (w *World) stateDigest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, w.tick.Load())
	h.Write([]byte{byte(w.mission)})
	digestWriteU64(h, &tmp, w.lastSpawnTick)

	size := w.m.Size()
	tiles := make([]byte, 0, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			tiles = append(tiles, byte(w.m.Tile(x, y)))
		}
	}
	h.Write(tiles)

	st := w.station
	digestWriteI64(h, &tmp, int64(st.EnergyReserves))
	digestWriteI64(h, &tmp, int64(st.CollectedMinerals))
	digestWriteI64(h, &tmp, int64(st.CollectedScientificData))
	digestWriteU64(h, &tmp, st.ConflictCount)
	digestWriteU64(h, &tmp, st.NextRobotID)

	g := st.Global()
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := g.Cell(x, y)
			h.Write([]byte{boolByte(c.Explored)})
			digestWriteU64(h, &tmp, c.Timestamp)
			digestWriteU64(h, &tmp, c.ObserverID)
		}
	}

	for _, r := range w.robots {
		digestWriteU64(h, &tmp, r.ID)
		h.Write([]byte{byte(r.Type), byte(r.Mode), boolByte(r.Recalled())})
		digestWriteI64(h, &tmp, int64(r.Pos.X))
		digestWriteI64(h, &tmp, int64(r.Pos.Y))
		digestWriteU64(h, &tmp, math.Float64bits(r.Energy))
		digestWriteI64(h, &tmp, int64(r.Cargo.Minerals))
		digestWriteI64(h, &tmp, int64(r.Cargo.ScientificData))
		digestWriteI64(h, &tmp, int64(r.Cargo.EnergyCells))
		digestWriteI64(h, &tmp, int64(r.Knowledge.ExploredCount()))
	}

	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}
