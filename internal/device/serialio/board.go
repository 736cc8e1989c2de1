// Package serialio drives a door I/O board over a UART link.
//
// The board speaks a line protocol, one message per line terminated by
// "\n" (a trailing "\r" is ignored).
//
// Board to host:
//
//	TAG <hex uid>     a tag was presented to the reader
//	PIR <0|1>         motion sensor level
//	LUX <0-4095>      light sensor level
//
// Host to board:
//
//	UNLOCK | LOCK
//	TONE <hz> <ms>
//	LED <0|1>
//	LCD <row> <text>
//	LCDCLR
package serialio

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

// tagQueueLen bounds the tags buffered between two polling cycles.
const tagQueueLen = 8

// maxLineLen is the longest board line handled. Longer lines are dropped
// up to the next newline.
const maxLineLen = 512

type Board struct {
	rw     io.ReadWriteCloser
	logger *slog.Logger

	tags   chan []byte
	light  atomic.Int32
	motion atomic.Bool

	writeMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// Open opens the serial port and starts reading from the board.
func Open(portName string, baud int, logger *slog.Logger) (*Board, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("serialio: open %s: %w", portName, err)
	}
	// USB CDC boards wait for DTR before talking.
	_ = port.SetDTR(true)

	return NewBoard(port, logger), nil
}

// NewBoard wraps an already open link. Open uses it with a serial port;
// tests use it with an in-process pipe.
func NewBoard(rw io.ReadWriteCloser, logger *slog.Logger) *Board {
	b := &Board{
		rw:     rw,
		logger: logger.With("component", "serialio"),
		tags:   make(chan []byte, tagQueueLen),
		done:   make(chan struct{}),
	}
	go b.readLoop()
	return b
}

func (b *Board) readLoop() {
	defer close(b.done)

	r := bufio.NewReaderSize(b.rw, maxLineLen)
	var line []byte
	oversized := false
	for {
		chunk, more, err := r.ReadLine()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				b.logger.Warn("serial read loop ended", "err", err)
			}
			return
		}
		if !oversized {
			line = append(line, chunk...)
			oversized = len(line) > maxLineLen
		}
		if more {
			continue
		}
		if oversized {
			b.logger.Warn("oversized board line dropped")
		} else {
			b.handleLine(strings.TrimRight(string(line), "\r"))
		}
		line = line[:0]
		oversized = false
	}
}

func (b *Board) handleLine(line string) {
	cmd, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToUpper(cmd) {
	case "":
		return
	case "TAG":
		uid := decodeUID(arg)
		if len(uid) == 0 {
			b.logger.Warn("garbled TAG line", "line", line)
		}
		b.enqueueTag(uid)
	case "PIR":
		b.motion.Store(arg == "1")
	case "LUX":
		n, err := strconv.Atoi(arg)
		if err != nil {
			b.logger.Debug("bad LUX line", "line", line)
			return
		}
		if n < 0 {
			n = 0
		}
		if n > types.MaxLightLevel {
			n = types.MaxLightLevel
		}
		b.light.Store(int32(n))
	default:
		b.logger.Debug("unknown board message", "line", line)
	}
}

// decodeUID decodes a hex UID, ignoring ":" and " " separators. Anything
// that is not clean hex yields an empty read, which the controller denies.
func decodeUID(s string) []byte {
	s = strings.NewReplacer(":", "", " ", "").Replace(s)
	uid, err := hex.DecodeString(s)
	if err != nil {
		return []byte{}
	}
	return uid
}

func (b *Board) enqueueTag(uid []byte) {
	select {
	case b.tags <- uid:
	default:
		b.logger.Warn("tag queue full, dropping read", "uid", strings.ToUpper(hex.EncodeToString(uid)))
	}
}

func (b *Board) TryReadCredential() ([]byte, bool) {
	select {
	case uid := <-b.tags:
		return uid, true
	default:
		return nil, false
	}
}

func (b *Board) ReadLightLevel() int   { return int(b.light.Load()) }
func (b *Board) ReadMotionLevel() bool { return b.motion.Load() }

func (b *Board) Unlock() error { return b.send("UNLOCK") }
func (b *Board) Lock() error   { return b.send("LOCK") }

func (b *Board) Tone(freqHz int, d time.Duration) error {
	return b.send(fmt.Sprintf("TONE %d %d", freqHz, d.Milliseconds()))
}

func (b *Board) Show(row int, text string) error {
	return b.send(fmt.Sprintf("LCD %d %s", row, sanitize(text)))
}

func (b *Board) Clear() error { return b.send("LCDCLR") }

func (b *Board) SetLED(on bool) error {
	if on {
		return b.send("LED 1")
	}
	return b.send("LED 0")
}

func (b *Board) send(line string) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if _, err := io.WriteString(b.rw, line+"\n"); err != nil {
		return fmt.Errorf("serialio: write %q: %w", line, err)
	}
	return nil
}

// Close closes the link and waits for the read loop to exit.
func (b *Board) Close() error {
	var err error
	b.closeOnce.Do(func() {
		err = b.rw.Close()
		<-b.done
	})
	return err
}

// sanitize keeps display text on one protocol line.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return ' '
		}
		return r
	}, s)
}
