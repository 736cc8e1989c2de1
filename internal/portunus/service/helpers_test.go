package service_test

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/BrandonDHaskell/Portunus/controller/internal/device/sim"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/service"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/types"
)

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	authorizedCard = types.Credential{0x01, 0xA3, 0xB2, 0xC4}
	strangerCard   = types.Credential{0xDE, 0xAD, 0xBE, 0xEF}
	nearMissCard   = types.Credential{0x01, 0xA3, 0xB2, 0xC5}
	t0             = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// recordingSink collects emitted events in order.
type recordingSink struct {
	events []service.Event
}

func (s *recordingSink) Emit(ev service.Event) { s.events = append(s.events, ev) }

func (s *recordingSink) ofType(typ string) []service.Event {
	var out []service.Event
	for _, ev := range s.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func (s *recordingSink) decisions() []types.AccessDecision {
	var out []types.AccessDecision
	for _, ev := range s.ofType(service.EventAccessDecision) {
		out = append(out, ev.Data.(types.AccessDecision))
	}
	return out
}

type harness struct {
	board  *sim.Board
	sink   *recordingSink
	status *service.StatusBoard
	ctrl   *service.AccessController
	over   *service.RemoteOverride
}

func newHarness(cfg service.ControllerConfig) *harness {
	logger := silentLogger()
	board := sim.New()
	sink := &recordingSink{}
	status := service.NewStatusBoard()
	over := service.NewRemoteOverride(board, logger)

	n := 0
	ctrl := service.NewAccessController(cfg, service.ControllerDependencies{
		Reader:   board,
		Sensors:  board,
		Store:    service.NewCredentialStore([]types.Credential{authorizedCard}),
		Actuator: service.NewActuator(board, 0, logger),
		Feedback: service.NewFeedbackDevice(board, board, logger),
		Motion:   service.NewMotionTracker(0),
		Override: over,
		Events:   sink,
		Status:   status,
		Logger:   logger,
		NewID: func() string {
			n++
			return fmt.Sprintf("decision-%d", n)
		},
	})
	return &harness{board: board, sink: sink, status: status, ctrl: ctrl, over: over}
}
