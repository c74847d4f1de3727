// Package transport drives raw bytes between a UART device and a
// console.Buffer, playing the role the teacher's pkg/usock plays for its
// own framed protocol: clear stale line attributes before a clean open,
// pump bytes in on a read goroutine, and write committed outbound bytes to
// the port each time Flush is called.
package transport

import (
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"github.com/librescoot/console-link/pkg/console"
	"go.bug.st/serial"
)

// Serial owns a UART's lifecycle and keeps a console.Buffer's rings in sync
// with it.
type Serial struct {
	port serial.Port
	buf  *console.Buffer

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// Open opens devicePath at baud and starts the read pump. The caller owns
// buf and reads/writes it through the console.Input/console.Output
// interfaces as usual; Serial only ever calls buf.Feed and buf.DrainOutbound.
func Open(devicePath string, baud int, buf *console.Buffer) (*Serial, error) {
	if err := clearLineAttributes(devicePath); err != nil {
		return nil, err
	}

	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(devicePath, mode)
	if err != nil {
		return nil, err
	}

	s := &Serial{
		port:   port,
		buf:    buf,
		stopCh: make(chan struct{}),
	}
	s.wg.Add(1)
	go s.readLoop()
	return s, nil
}

// clearLineAttributes opens and immediately closes devicePath at a baseline
// mode before the real open, so a stale configuration left over from a
// previous process (a wrong baud rate, raw vs. cooked mode) doesn't leak
// into this one's session.
func clearLineAttributes(devicePath string) error {
	port, err := serial.Open(devicePath, &serial.Mode{BaudRate: 9600})
	if err != nil {
		return fmt.Errorf("transport: clearing line attributes on %s: %w", devicePath, err)
	}
	if err := port.Close(); err != nil {
		return fmt.Errorf("transport: closing %s after clearing line attributes: %w", devicePath, err)
	}
	time.Sleep(100 * time.Millisecond)
	return nil
}

// Close stops the read pump and closes the port.
func (s *Serial) Close() error {
	close(s.stopCh)
	s.wg.Wait()
	return s.port.Close()
}

// Flush writes whatever the buffer's outbound ring has committed out to the
// wire. It should be called once per scheduler tick, after RunTask/SendF
// calls that may have committed a frame.
func (s *Serial) Flush() error {
	out := s.buf.DrainOutbound()
	if len(out) == 0 {
		return nil
	}
	_, err := s.port.Write(out)
	return err
}

func (s *Serial) readLoop() {
	defer s.wg.Done()
	chunk := make([]byte, 256)
	for {
		select {
		case <-s.stopCh:
			return
		default:
		}
		n, err := s.port.Read(chunk)
		if err != nil {
			if errors.Is(err, io.EOF) {
				continue
			}
			log.Printf("transport: read error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}
		if n == 0 {
			continue
		}
		s.buf.Feed(chunk[:n])
	}
}
