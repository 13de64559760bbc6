package protocol

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/vovakirdan/skyfall/internal/core"
	"github.com/vovakirdan/skyfall/internal/dialogue"
	"github.com/vovakirdan/skyfall/internal/games/shooter"
	"github.com/vovakirdan/skyfall/internal/rules"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		want   string
		binary bool
	}{
		{"", "json", false},
		{"json", "json", false},
		{"msgpack", "msgpack", true},
	}

	for _, tc := range tests {
		c, err := Lookup(tc.name)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", tc.name, err)
		}
		if c.Name() != tc.want || c.Binary() != tc.binary {
			t.Errorf("Lookup(%q) = %s binary=%v", tc.name, c.Name(), c.Binary())
		}
	}

	if _, err := Lookup("protobuf"); !errors.Is(err, ErrUnknownCodec) {
		t.Errorf("Lookup(protobuf) error = %v, expected ErrUnknownCodec", err)
	}
	if got := Names(); !reflect.DeepEqual(got, []string{"json", "msgpack"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestDecodeClientJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want ClientMessage
	}{
		{
			name: "init",
			raw:  `{"type":"init","name":"Alekos","dimensions":{"width":800,"height":600}}`,
			want: Init("Alekos", 800, 600),
		},
		{
			name: "input",
			raw:  `{"type":"input","input":{"move":-1,"shoot":true}}`,
			want: Input(core.InputState{Move: core.DirLeft, Shoot: true}),
		},
		{
			name: "restart",
			raw:  `{"type":"restart"}`,
			want: Restart(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeClient(JSONCodec{}, []byte(tc.raw))
			if err != nil {
				t.Fatalf("DecodeClient: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("DecodeClient = %+v, expected %+v", got, tc.want)
			}
		})
	}
}

func TestDecodeClientErrors(t *testing.T) {
	if _, err := DecodeClient(JSONCodec{}, []byte(`{"type":"teleport"}`)); !errors.Is(err, ErrUnknownMessage) {
		t.Errorf("unknown type error = %v, expected ErrUnknownMessage", err)
	}
	if _, err := DecodeClient(JSONCodec{}, []byte(`{"type":`)); err == nil || !strings.Contains(err.Error(), "decode json") {
		t.Errorf("malformed frame error = %v", err)
	}
	if _, err := DecodeClient(MsgpackCodec{}, []byte{0xc1}); err == nil {
		t.Error("expected msgpack decode error")
	}
}

func TestClientMessageDefaults(t *testing.T) {
	m := ClientMessage{Type: TypeInit}
	if got := m.PlayerName("3"); got != "Player 3" {
		t.Errorf("PlayerName = %q, expected Player 3", got)
	}
	if w, h := m.FieldSize(); w != 0 || h != 0 {
		t.Errorf("FieldSize = %v x %v, expected zero", w, h)
	}
	if !m.InputState().Idle() {
		t.Error("missing input should be idle")
	}
}

func sampleSnapshot() shooter.Snapshot {
	return shooter.Snapshot{
		Tick: 42,
		Players: map[string]shooter.Player{
			"1": {Name: "a", X: 400, Y: 540, Cooldown: 3},
		},
		Bullets: []shooter.Bullet{{ID: 1, X: 400, Y: 300, OwnerID: "1"}},
		Enemies: []shooter.Enemy{{ID: 9, X: 100, Y: 50, Speed: 2.5, Pattern: shooter.PatternZigzag, Direction: core.DirLeft}},
		Level:   2,
		Score:   30,
		Rules:   rules.LevelRules{CanFire: true, Goal: rules.Goal{Type: rules.GoalScore, Value: 200}},
		Width:   800,
		Height:  600,
	}
}

func TestServerMessagesSurviveEachCodec(t *testing.T) {
	msgs := []ServerMessage{
		AssignID("7"),
		State(sampleSnapshot()),
		Dialogue(DialoguePayload{
			Level: 2,
			Outro: []dialogue.Line{{Speaker: "a", Text: "done"}},
			Intro: []dialogue.Line{{Speaker: "AI", Text: "go"}},
		}),
	}

	for _, name := range Names() {
		c, _ := Lookup(name)
		for _, m := range msgs {
			data, err := c.Marshal(m)
			if err != nil {
				t.Fatalf("%s: Marshal %s: %v", name, m.Type, err)
			}
			got, err := DecodeServer(c, data)
			if err != nil {
				t.Fatalf("%s: DecodeServer %s: %v", name, m.Type, err)
			}
			if !reflect.DeepEqual(got, m) {
				t.Errorf("%s: %s message changed on the wire:\n got %+v\nwant %+v", name, m.Type, got, m)
			}
		}
	}
}

func TestStateJSONShape(t *testing.T) {
	data, err := JSONCodec{}.Marshal(State(sampleSnapshot()))
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	for _, key := range []string{`"type":"state"`, `"players":{"1":`, `"playerId":"1"`, `"goalProgress":0`, `"canFire":true`, `"pattern":"zigzag"`} {
		if !strings.Contains(s, key) {
			t.Errorf("state JSON missing %s: %s", key, s)
		}
	}
}
