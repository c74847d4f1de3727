// Package bridge plays the role the teacher's redis_handlers.go,
// usock_handlers.go, and nrf_commands.go play together: turning decoded
// device messages into Redis writes, and draining a Redis-backed queue back
// out to the device. It is generalized from the teacher's one fixed BLE/CBOR
// message schema to this protocol's table-driven command/encoder model
// (SPEC_FULL §4.11).
package bridge

import (
	"context"
	"log"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/librescoot/console-link/pkg/command"
)

const (
	auditListKey    = "console:audit"
	outboundListKey = "console:outbound"
)

// AuditEntry is one decoded inbound command, CBOR-encoded onto the audit
// list. It carries no wire semantics of its own; it exists purely as a
// debugging/observability trail.
type AuditEntry struct {
	Timestamp int64   `cbor:"ts"`
	CmdID     byte    `cbor:"cmd"`
	Args      []int32 `cbor:"args"`
}

// OutboundRequest is popped off the outbound queue and turned into a SendF
// call.
type OutboundRequest struct {
	EncoderID uint8   `cbor:"enc"`
	Args      []int32 `cbor:"args"`
}

// redisQueue is the narrow subset of pkg/redis.Client the bridge needs,
// kept as an interface so tests can supply an in-memory fake instead of a
// real Redis connection.
type redisQueue interface {
	LPush(key, value string) error
	BRPop(timeout time.Duration, key string) ([]string, error)
}

// Bridge wires a command.Context's decoded commands to Redis and a Redis
// queue back to SendF calls.
type Bridge struct {
	redis redisQueue
	now   func() int64
}

// New builds a Bridge over the given Redis-like queue. now defaults to
// time.Now().Unix() when nil; tests can override it for determinism.
func New(redis redisQueue, now func() int64) *Bridge {
	if now == nil {
		now = func() int64 { return time.Now().Unix() }
	}
	return &Bridge{redis: redis, now: now}
}

// OnCommand is installed as a command.Context's command observer
// (command.WithCommandObserver). It never blocks and never returns an
// error: a failed audit write is logged and dropped, the same
// best-effort posture the protocol itself takes toward a full output
// buffer.
func (b *Bridge) OnCommand(cmdID byte, args []command.ArgValue) {
	entry := AuditEntry{Timestamp: b.now(), CmdID: cmdID, Args: make([]int32, 0, len(args))}
	for _, a := range args {
		if a.Kind == command.ParamBuffer || a.Kind == command.ParamProgmemBuffer {
			continue // buffer payloads aren't interesting in the audit trail
		}
		entry.Args = append(entry.Args, a.I32)
	}
	data, err := cbor.Marshal(entry)
	if err != nil {
		log.Printf("bridge: failed to marshal audit entry for cmd 0x%02x: %v", cmdID, err)
		return
	}
	if err := b.redis.LPush(auditListKey, string(data)); err != nil {
		log.Printf("bridge: failed to push audit entry for cmd 0x%02x: %v", cmdID, err)
	}
}

// Drain blocks popping the outbound queue and calling sendF for each
// request until ctx is canceled. It is meant to run on its own goroutine,
// the way the teacher runs WatchRedisCommands on its own goroutine,
// entirely outside the single-threaded dispatcher core.
func (b *Bridge) Drain(ctx context.Context, sendF func(encoderID uint8, args ...command.ArgValue) error) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result, err := b.redis.BRPop(time.Second, outboundListKey)
		if err != nil {
			log.Printf("bridge: BRPOP %s: %v", outboundListKey, err)
			continue
		}
		if len(result) != 2 {
			continue // timeout, nothing popped
		}

		var req OutboundRequest
		if err := cbor.Unmarshal([]byte(result[1]), &req); err != nil {
			log.Printf("bridge: failed to decode outbound request: %v", err)
			continue
		}

		args := make([]command.ArgValue, len(req.Args))
		for i, v := range req.Args {
			args[i] = command.ArgValue{Kind: command.ParamI32, I32: v}
		}
		if err := sendF(req.EncoderID, args...); err != nil {
			log.Printf("bridge: sendF for encoder %d failed: %v", req.EncoderID, err)
		}
	}
}
