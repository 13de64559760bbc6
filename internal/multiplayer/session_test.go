package multiplayer

import "testing"

func TestChannelSessionKeepsNewestEvents(t *testing.T) {
	tests := []struct {
		name       string
		bufferSize int
		sent       int
		wantLevels []int
	}{
		{"under capacity", 4, 3, []int{1, 2, 3}},
		{"one over capacity", 2, 3, []int{2, 3}},
		{"far behind", 3, 10, []int{8, 9, 10}},
		{"zero size uses default", 0, defaultEventBuffer + 1, nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := NewChannelSession("1", tc.bufferSize)
			for i := 1; i <= tc.sent; i++ {
				s.Send(DialogueEvent{Level: i})
			}

			got := drain(s)
			if tc.wantLevels == nil {
				if len(got) != defaultEventBuffer {
					t.Fatalf("events = %d, expected %d", len(got), defaultEventBuffer)
				}
				if last := got[len(got)-1].(DialogueEvent); last.Level != tc.sent {
					t.Errorf("newest level = %d, expected %d", last.Level, tc.sent)
				}
				return
			}
			if len(got) != len(tc.wantLevels) {
				t.Fatalf("events = %d, expected %d", len(got), len(tc.wantLevels))
			}
			for i, evt := range got {
				if d := evt.(DialogueEvent); d.Level != tc.wantLevels[i] {
					t.Errorf("event %d level = %d, expected %d", i, d.Level, tc.wantLevels[i])
				}
			}
		})
	}
}

func TestChannelSessionClose(t *testing.T) {
	s := NewChannelSession("1", 4)
	s.Close()
	s.Close()

	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed")
	}

	s.Send(DialogueEvent{Level: 1})
	if n := len(drain(s)); n != 0 {
		t.Errorf("closed session received %d events", n)
	}
}

func TestSessionRegistryBroadcast(t *testing.T) {
	reg := NewSessionRegistry()
	a := NewChannelSession("a", 4)
	b := NewChannelSession("b", 4)
	reg.Register(a)
	reg.Register(b)

	reg.Broadcast(DialogueEvent{Level: 5})
	if len(drain(a)) != 1 || len(drain(b)) != 1 {
		t.Error("broadcast did not reach every session")
	}

	reg.Unregister("a")
	if reg.Count() != 1 {
		t.Errorf("Count = %d, expected 1", reg.Count())
	}
	if _, ok := reg.Get("b"); !ok {
		t.Error("b missing")
	}
}
