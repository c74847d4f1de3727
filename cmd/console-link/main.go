// Command console-link is the host-side daemon: it owns the serial
// transport, the protocol dispatcher, and the Redis bridge, and wires them
// together the way the teacher's cmd/bluetooth-service/main.go wires its
// own service together.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/librescoot/console-link/internal/config"
	"github.com/librescoot/console-link/internal/demotable"
	"github.com/librescoot/console-link/pkg/bridge"
	"github.com/librescoot/console-link/pkg/command"
	"github.com/librescoot/console-link/pkg/console"
	"github.com/librescoot/console-link/pkg/redis"
	"github.com/librescoot/console-link/pkg/scheduler"
	"github.com/librescoot/console-link/pkg/transport"
)

func main() {
	var (
		device       = pflag.String("device", "/dev/ttyUSB0", "serial device to speak the command protocol over")
		baud         = pflag.Int("baud", 250000, "serial baud rate")
		redisAddr    = pflag.String("redis-addr", "127.0.0.1:6379", "redis server address")
		redisPass    = pflag.String("redis-password", "", "redis password")
		redisDB      = pflag.Int("redis-db", 0, "redis database index")
		tick         = pflag.Duration("tick", 5*time.Millisecond, "dispatcher tick interval")
		uptimeEvery  = pflag.Duration("uptime-interval", time.Second, "how often to push an unsolicited uptime message")
		accelCRC     = pflag.Bool("accelerated-crc", true, "use the table-driven CRC-16 implementation instead of the bit-at-a-time reference one")
		reasonLabels = pflag.String("reason-labels", "", "optional YAML file overriding the reason-string-to-wire-id table (see internal/config)")
	)
	pflag.Parse()

	reasonIDs := demotable.ReasonIDs()
	if *reasonLabels != "" {
		labels, err := config.LoadReasonLabels(*reasonLabels)
		if err != nil {
			log.Fatalf("console-link: %v", err)
		}
		reasonIDs = labels.Merge(reasonIDs)
	}

	buf := console.NewBuffer(console.DefaultInboundCapacity, console.DefaultOutboundCapacity)

	port, err := transport.Open(*device, *baud, buf)
	if err != nil {
		log.Fatalf("console-link: failed to open %s: %v", *device, err)
	}
	defer port.Close()

	rdb, err := redis.New(*redisAddr, *redisPass, *redisDB)
	if err != nil {
		log.Fatalf("console-link: failed to connect to redis at %s: %v", *redisAddr, err)
	}
	defer rdb.Close()

	table := demotable.New()
	br := bridge.New(rdb, nil)
	sched := scheduler.New()

	opts := []command.Option{
		command.WithIsShutdownNotification(int(demotable.EncIsShutdown), reasonIDs),
		command.WithCommandObserver(br.OnCommand),
	}
	if *accelCRC {
		opts = append(opts, command.WithCRCAccelerated())
	}
	ctx := command.NewContext(buf, buf, table.Index, table.Encoders, sched, opts...)
	table.SendF = ctx.SendF

	sched.RegisterTask("dispatch", ctx.RunTask)
	sched.RegisterTask("flush", func() {
		if err := port.Flush(); err != nil {
			log.Printf("console-link: flush error: %v", err)
		}
	})

	lastUptime := time.Time{}
	sched.RegisterTask("uptime", func() {
		if time.Since(lastUptime) < *uptimeEvery {
			return
		}
		lastUptime = time.Now()
		table.UptimeTicks++
		if err := ctx.SendF(demotable.EncUptime, command.ArgValue{Kind: command.ParamU32, I32: int32(table.UptimeTicks)}); err != nil {
			log.Printf("console-link: failed to send uptime: %v", err)
		}
	})

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("console-link: signal received, shutting down")
		cancel()
	}()

	go br.Drain(runCtx, ctx.SendF)

	sched.Run(runCtx, *tick)
	log.Printf("console-link: exiting (shutdown reason: %q)", sched.ShutdownReason())
}
