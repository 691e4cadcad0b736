package live

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catoptric/catoptric/client-go/internal/backend"
	"github.com/catoptric/catoptric/client-go/internal/geom"
	"github.com/catoptric/catoptric/client-go/internal/session"
)

type stubSampler struct {
	calls chan backend.Request
}

func newStubSampler() *stubSampler {
	return &stubSampler{calls: make(chan backend.Request, 16)}
}

func (s *stubSampler) SampleReflection(ctx context.Context, req backend.Request) (*backend.Dataset, error) {
	s.calls <- req
	return &backend.Dataset{
		Mirror:          []geom.Point{geom.Pt(0, 0), geom.Pt(1, 1)},
		ReflectionImage: []geom.Point{geom.Pt(2, 2)},
	}, nil
}

// receive pulls the next outbound message of the given type, skipping
// others, or fails the test after a timeout.
func receive(t *testing.T, client *Client, msgType string) *Message {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case data := <-client.send:
			var msg Message
			require.NoError(t, json.Unmarshal(data, &msg))
			if msg.Type == msgType {
				return &msg
			}
		case <-deadline:
			t.Fatalf("no %s message received", msgType)
			return nil
		}
	}
}

func startSession(t *testing.T) (*Session, *Client, *stubSampler) {
	t.Helper()
	client := NewClient(nil, nil, "user_1", "Tester", "", "client_1")
	sampler := newStubSampler()
	sess := NewSession(client, sampler, session.DefaultState())

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sess.Run(ctx)
	return sess, client, sampler
}

func TestSessionEmitsInitialFrame(t *testing.T) {
	_, client, _ := startSession(t)

	msg := receive(t, client, TypeFrame)
	var payload FramePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	require.NotEmpty(t, payload.Commands)
	assert.Equal(t, "clear", payload.Commands[0].Op)
}

func TestSessionDispatchEquationEdit(t *testing.T) {
	sess, client, sampler := startSession(t)
	receive(t, client, TypeFrame)
	<-sampler.calls // initial compute

	payload, _ := json.Marshal(EquationPayload{Slot: "mirror", Component: 1, Text: "a*t"})
	sess.Dispatch(&Message{Type: TypeEquationSet, Payload: payload})

	// The edit recomputes with the new equation resolved.
	req := <-sampler.calls
	assert.Contains(t, req.Mirror[1], "*(t-0)")

	// Introducing the variable grows the slider list.
	msg := receive(t, client, TypeSliders)
	var sliders SlidersPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &sliders))
	require.NotEmpty(t, sliders.Patches)

	receive(t, client, TypeFrame)
}

func TestSessionDispatchGesturesSkipEngine(t *testing.T) {
	sess, client, sampler := startSession(t)
	receive(t, client, TypeFrame)
	<-sampler.calls

	pointer, _ := json.Marshal(PointerPayload{X: 10, Y: 10})
	sess.Dispatch(&Message{Type: TypePointerDown, Payload: pointer})
	pointer, _ = json.Marshal(PointerPayload{X: 40, Y: 30})
	sess.Dispatch(&Message{Type: TypePointerMove, Payload: pointer})
	sess.Dispatch(&Message{Type: TypePointerUp, Payload: pointer})

	// The pan produces a fresh frame without another engine round trip.
	receive(t, client, TypeFrame)
	select {
	case <-sampler.calls:
		t.Fatal("gesture must not trigger a recompute")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSessionDispatchStateLoad(t *testing.T) {
	sess, client, sampler := startSession(t)
	receive(t, client, TypeFrame)
	<-sampler.calls

	st := session.DefaultState()
	st.Mirror = [2]string{"t", "t^3"}
	payload, err := session.Encode(st)
	require.NoError(t, err)

	sess.Dispatch(&Message{Type: TypeStateLoad, Payload: payload})

	req := <-sampler.calls
	assert.Equal(t, "(t-0)^3", req.Mirror[1])
}

func TestSessionDispatchInvalidPayloadIgnored(t *testing.T) {
	sess, client, sampler := startSession(t)
	receive(t, client, TypeFrame)
	<-sampler.calls

	sess.Dispatch(&Message{Type: TypeWheel, Payload: []byte(`"garbage"`)})
	sess.Dispatch(&Message{Type: TypeEquationSet, Payload: []byte(`{"slot":"nonsense"}`)})

	select {
	case <-sampler.calls:
		t.Fatal("invalid payloads must not reach the controller")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSlotFromString(t *testing.T) {
	for _, name := range []string{"mirror", "figure", "sigma_tau"} {
		_, ok := slotFromString(name)
		assert.True(t, ok, name)
	}
	_, ok := slotFromString("other")
	assert.False(t, ok)
}

func TestRoomKey(t *testing.T) {
	shared := NewClient(nil, nil, "u", "n", "shr_123", "c1")
	assert.Equal(t, "shr_123", roomKey(shared))

	scratch := NewClient(nil, nil, "u", "n", "", "c9")
	assert.Equal(t, "scratch:c9", roomKey(scratch))
}

func TestPresenceBoard(t *testing.T) {
	board := NewPresenceBoard()
	assert.True(t, board.Update("u1", &PresencePayload{DisplayName: "One"}))
	assert.True(t, board.Update("u2", &PresencePayload{
		DisplayName: "Two",
		Cursor:      &CursorPos{X: 1.5, Y: -2},
	}))
	board.Remove("u1")

	all := board.Snapshot()
	require.Len(t, all, 1)
	assert.Equal(t, "Two", all["u2"].DisplayName)

	msg := board.StateMessage()
	require.NotNil(t, msg)
	assert.Equal(t, TypePresenceState, msg.Type)
}

func TestPresenceBoardRejectsNonFiniteCursor(t *testing.T) {
	board := NewPresenceBoard()
	assert.False(t, board.Update("u1", &PresencePayload{
		Cursor: &CursorPos{X: math.NaN(), Y: 0},
	}))
	assert.False(t, board.Update("u1", &PresencePayload{
		Cursor: &CursorPos{X: 0, Y: math.Inf(1)},
	}))
	assert.Empty(t, board.Snapshot())
}

func TestSendAfterRemovalDoesNotPanic(t *testing.T) {
	hub := NewHub(newStubSampler(), nil)
	client := NewClient(hub, nil, "user_1", "Tester", "", "client_1")

	hub.addClient(client)
	hub.removeClient(client)

	assert.NotPanics(t, func() {
		client.Send(&Message{Type: TypeFrame})
	})
}
