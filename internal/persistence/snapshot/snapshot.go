package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"ereea.space/internal/observerproto"
	"ereea.space/internal/sim/tuning"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	Tick    uint64 `json:"tick"`
}

// SnapshotV1 is everything needed to rebuild a run up to Header.Tick and
// check that the rebuild matches.
type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed   int64         `json:"seed"`
	Tuning tuning.Tuning `json:"tuning"`

	Mission      string `json:"mission"`
	CompleteTick uint64 `json:"complete_tick,omitempty"`
	Digest       string `json:"digest"`

	Generation GenerationV1 `json:"generation"`

	// Global holds the station's knowledge cells in row-major order.
	Global []KnowledgeCellV1 `json:"global"`

	State observerproto.StateMsg `json:"state"`
}

type GenerationV1 struct {
	Carves      int `json:"carves"`
	CarvedSteps int `json:"carved_steps"`
	Cleared     int `json:"cleared"`
}

type KnowledgeCellV1 struct {
	Explored     bool   `json:"explored"`
	Timestamp    uint64 `json:"timestamp"`
	ObserverID   uint64 `json:"observer_id"`
	ObserverType string `json:"observer_type"`
}

// FileName is the canonical file name for a snapshot taken at tick.
func FileName(tick uint64) string {
	return fmt.Sprintf("%020d.snap.zst", tick)
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	defer enc.Close()

	bw := bufio.NewWriterSize(enc, 64*1024)
	defer bw.Flush()

	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	return nil
}

// ReadHeader decodes only the JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 64*1024)

	// The gob body repeats the header.
	_, _ = br.ReadBytes('\n')

	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	if snap.Header.Version != Version {
		return snap, fmt.Errorf("unsupported snapshot version %d", snap.Header.Version)
	}
	return snap, nil
}
