package observerproto_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"ereea.space/internal/observerproto"
	"ereea.space/internal/sim/tuning"
	"ereea.space/internal/sim/world"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// roundTrip turns a Go value into the generic form the validator expects.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemas_SubscribeSample(t *testing.T) {
	s := compile(t, "subscribe.schema.json")
	sub := observerproto.SubscribeMsg{Type: observerproto.TypeSubscribe, ProtocolVersion: observerproto.Version}
	if err := s.Validate(roundTrip(t, sub)); err != nil {
		t.Fatalf("validate: %v", err)
	}

	var bad any
	_ = json.Unmarshal([]byte(`{"type":"HELLO","protocol_version":"1.0"}`), &bad)
	if err := s.Validate(bad); err == nil {
		t.Fatalf("HELLO accepted as SUBSCRIBE")
	}
}

func TestSchemas_StateFromLiveWorld(t *testing.T) {
	s := compile(t, "state.schema.json")
	w, err := world.New(world.WorldConfig{RunID: "schema", Seed: 99, Tuning: tuning.Defaults()}, nil)
	if err != nil {
		t.Fatalf("world: %v", err)
	}
	for i := 0; i < 60; i++ {
		w.StepOnce()
	}
	st := w.Latest()
	if err := s.Validate(roundTrip(t, st)); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(st.Map.Tiles) != 20 || len(st.Exploration.ExploredTiles) != 20 {
		t.Fatalf("rows=%d/%d want=20", len(st.Map.Tiles), len(st.Exploration.ExploredTiles))
	}
}

func TestStateMsg_RobotLookup(t *testing.T) {
	st := observerproto.StateMsg{Robots: []observerproto.RobotData{{ID: 2}, {ID: 5, X: 3}}}
	r, ok := st.Robot(5)
	if !ok || r.X != 3 {
		t.Fatalf("robot=%+v ok=%v", r, ok)
	}
	if _, ok := st.Robot(9); ok {
		t.Fatalf("found missing robot")
	}
}
