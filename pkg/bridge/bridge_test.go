package bridge_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/require"

	"github.com/librescoot/console-link/pkg/bridge"
	"github.com/librescoot/console-link/pkg/command"
)

// fakeRedis is an in-memory stand-in for the narrow redisQueue surface
// pkg/bridge needs, so these tests never touch a real Redis server.
type fakeRedis struct {
	mu    sync.Mutex
	lists map[string][]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{lists: make(map[string][]string)}
}

func (f *fakeRedis) LPush(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists[key] = append([]string{value}, f.lists[key]...)
	return nil
}

func (f *fakeRedis) BRPop(timeout time.Duration, key string) ([]string, error) {
	f.mu.Lock()
	vals := f.lists[key]
	if len(vals) == 0 {
		f.mu.Unlock()
		time.Sleep(time.Millisecond) // avoid a hot spin in tests driving Drain
		return nil, nil
	}
	last := vals[len(vals)-1]
	f.lists[key] = vals[:len(vals)-1]
	f.mu.Unlock()
	return []string{key, last}, nil
}

func TestOnCommandPushesAuditEntry(t *testing.T) {
	rdb := newFakeRedis()
	b := bridge.New(rdb, func() int64 { return 1000 })

	b.OnCommand(0x10, []command.ArgValue{
		{Kind: command.ParamU16, I32: 7},
		{Kind: command.ParamByte, I32: 1},
	})

	entries := rdb.lists["console:audit"]
	require.Len(t, entries, 1)

	var got bridge.AuditEntry
	require.NoError(t, cbor.Unmarshal([]byte(entries[0]), &got))
	require.Equal(t, byte(0x10), got.CmdID)
	require.Equal(t, int64(1000), got.Timestamp)
	require.Equal(t, []int32{7, 1}, got.Args)
}

func TestOnCommandSkipsBufferPayloads(t *testing.T) {
	rdb := newFakeRedis()
	b := bridge.New(rdb, func() int64 { return 0 })

	b.OnCommand(0x20, []command.ArgValue{
		{Kind: command.ParamU32, I32: 3},
		{Kind: command.ParamBuffer, Bytes: []byte{1, 2, 3}},
	})

	var got bridge.AuditEntry
	if err := cbor.Unmarshal([]byte(rdb.lists["console:audit"][0]), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Args) != 1 || got.Args[0] != 3 {
		t.Fatalf("got Args=%v, want [3] (buffer payload excluded)", got.Args)
	}
}

func TestDrainDispatchesOutboundRequest(t *testing.T) {
	rdb := newFakeRedis()
	b := bridge.New(rdb, nil)

	req := bridge.OutboundRequest{EncoderID: 2, Args: []int32{99}}
	data, err := cbor.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := rdb.LPush("console:outbound", string(data)); err != nil {
		t.Fatalf("LPush: %v", err)
	}

	var (
		mu        sync.Mutex
		gotEnc    uint8
		gotArgs   []command.ArgValue
		callCount int
	)
	sendF := func(encoderID uint8, args ...command.ArgValue) error {
		mu.Lock()
		defer mu.Unlock()
		gotEnc = encoderID
		gotArgs = args
		callCount++
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		b.Drain(ctx, sendF)
		close(done)
	}()

	deadline := time.After(150 * time.Millisecond)
	for {
		mu.Lock()
		n := callCount
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Drain never called sendF")
		case <-time.After(time.Millisecond):
		}
	}

	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if gotEnc != 2 {
		t.Fatalf("gotEnc = %d, want 2", gotEnc)
	}
	if len(gotArgs) != 1 || gotArgs[0].I32 != 99 {
		t.Fatalf("gotArgs = %v, want [{I32:99}]", gotArgs)
	}
}

func TestOnCommandPushErrorIsNonFatal(t *testing.T) {
	// Regression guard: OnCommand must never panic even if Redis rejects
	// the push; it only logs.
	rdb := &erroringRedis{}
	b := bridge.New(rdb, func() int64 { return 0 })
	b.OnCommand(0x01, nil) // must not panic
}

type erroringRedis struct{}

func (erroringRedis) LPush(key, value string) error { return fmt.Errorf("boom") }
func (erroringRedis) BRPop(timeout time.Duration, key string) ([]string, error) {
	return nil, fmt.Errorf("boom")
}
