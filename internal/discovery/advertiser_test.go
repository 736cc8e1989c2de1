package discovery_test

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"slices"
	"testing"

	"github.com/BrandonDHaskell/Portunus/controller/internal/discovery"
)

type fakeServer struct{ shutdowns int }

func (f *fakeServer) Shutdown() { f.shutdowns++ }

type registration struct {
	instance, service, domain string
	port                      int
	txt                       []string
}

type fakeFactory struct {
	regs   []registration
	server *fakeServer
	err    error
}

func (f *fakeFactory) Register(instance, service, domain string, port int, txt []string, _ []net.Interface) (discovery.MDNSServer, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.regs = append(f.regs, registration{instance, service, domain, port, txt})
	f.server = &fakeServer{}
	return f.server, nil
}

func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdvertiser_RegistersService(t *testing.T) {
	f := &fakeFactory{}
	a, err := discovery.NewAdvertiser(discovery.Config{
		ModuleID:      "door-001",
		Version:       "1.2.3",
		Port:          8080,
		ServerFactory: f,
	}, silentLogger())
	if err != nil {
		t.Fatalf("NewAdvertiser: %v", err)
	}

	if err := a.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(f.regs) != 1 {
		t.Fatalf("expected 1 registration, got %d", len(f.regs))
	}
	r := f.regs[0]
	if r.instance != "portunus-door-001" || r.service != "_portunus._tcp" || r.domain != "local." || r.port != 8080 {
		t.Errorf("registration = %+v", r)
	}
	for _, want := range []string{"module=door-001", "path=/v1/status", "version=1.2.3"} {
		if !slices.Contains(r.txt, want) {
			t.Errorf("txt %v missing %q", r.txt, want)
		}
	}

	if err := a.Start(); !errors.Is(err, discovery.ErrAlreadyStarted) {
		t.Errorf("second Start err = %v", err)
	}

	a.Stop()
	a.Stop()
	if f.server.shutdowns != 1 {
		t.Errorf("shutdowns = %d, want 1", f.server.shutdowns)
	}
	if err := a.Start(); !errors.Is(err, discovery.ErrClosed) {
		t.Errorf("Start after Stop err = %v", err)
	}
}

func TestAdvertiser_RegistrationFailure(t *testing.T) {
	boom := errors.New("no multicast")
	a, err := discovery.NewAdvertiser(discovery.Config{ModuleID: "door-001", Port: 8080, ServerFactory: &fakeFactory{err: boom}}, silentLogger())
	if err != nil {
		t.Fatalf("NewAdvertiser: %v", err)
	}
	if err := a.Start(); !errors.Is(err, boom) {
		t.Errorf("Start err = %v, want wrapped %v", err, boom)
	}
}

func TestNewAdvertiser_RejectsBadPort(t *testing.T) {
	for _, port := range []int{0, -1, 70000} {
		if _, err := discovery.NewAdvertiser(discovery.Config{Port: port}, silentLogger()); err == nil {
			t.Errorf("port %d: expected error", port)
		}
	}
}

func TestPortFromListen(t *testing.T) {
	cases := map[string]int{
		":8080":          8080,
		"0.0.0.0:9000":   9000,
		"[::1]:443":      443,
		"localhost:8081": 8081,
	}
	for in, want := range cases {
		got, err := discovery.PortFromListen(in)
		if err != nil || got != want {
			t.Errorf("PortFromListen(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	if _, err := discovery.PortFromListen("8080"); err == nil {
		t.Error("expected error for an address without a colon")
	}
}
