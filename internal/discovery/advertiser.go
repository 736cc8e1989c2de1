// Package discovery announces the controller's HTTP API on the local
// network over mDNS/DNS-SD.
package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"
)

const (
	ServiceType   = "_portunus._tcp"
	DefaultDomain = "local."
	StatusPath    = "/v1/status"
)

var (
	ErrAlreadyStarted = errors.New("discovery: already advertising")
	ErrClosed         = errors.New("discovery: advertiser closed")
)

// MDNSServer is a running registration.
type MDNSServer interface {
	Shutdown()
}

// MDNSServerFactory creates MDNSServer instances. Tests swap it for a fake.
type MDNSServerFactory interface {
	Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error)
}

type zeroconfServerFactory struct{}

func (zeroconfServerFactory) Register(instance, service, domain string, port int, txt []string, ifaces []net.Interface) (MDNSServer, error) {
	return zeroconf.Register(instance, service, domain, port, txt, ifaces)
}

type Config struct {
	// Instance is the DNS-SD instance name. Defaults to "portunus-<module>".
	Instance string
	ModuleID string
	Version  string
	Port     int

	// Interfaces to advertise on; nil means all.
	Interfaces []net.Interface

	// ServerFactory defaults to grandcat/zeroconf.
	ServerFactory MDNSServerFactory
}

type Advertiser struct {
	cfg     Config
	factory MDNSServerFactory
	logger  *slog.Logger

	mu     sync.Mutex
	server MDNSServer
	closed bool
}

func NewAdvertiser(cfg Config, logger *slog.Logger) (*Advertiser, error) {
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("discovery: invalid port %d", cfg.Port)
	}
	if cfg.Instance == "" {
		cfg.Instance = "portunus-" + cfg.ModuleID
	}
	factory := cfg.ServerFactory
	if factory == nil {
		factory = zeroconfServerFactory{}
	}
	return &Advertiser{
		cfg:     cfg,
		factory: factory,
		logger:  logger.With("component", "discovery"),
	}, nil
}

// TXT returns the TXT records published with the service.
func (a *Advertiser) TXT() []string {
	txt := []string{
		"module=" + a.cfg.ModuleID,
		"path=" + StatusPath,
	}
	if a.cfg.Version != "" {
		txt = append(txt, "version="+a.cfg.Version)
	}
	return txt
}

func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	if a.server != nil {
		return ErrAlreadyStarted
	}

	server, err := a.factory.Register(a.cfg.Instance, ServiceType, DefaultDomain, a.cfg.Port, a.TXT(), a.cfg.Interfaces)
	if err != nil {
		return fmt.Errorf("discovery: mDNS registration failed: %w", err)
	}
	a.server = server
	a.logger.Info("mDNS advertising", "instance", a.cfg.Instance, "service", ServiceType, "port", a.cfg.Port)
	return nil
}

// Stop withdraws the registration. The advertiser cannot be restarted.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.closed = true
}

// PortFromListen extracts the port of a listen address such as ":8080" or
// "0.0.0.0:8080".
func PortFromListen(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("discovery: listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("discovery: listen port %q: %w", p, err)
	}
	return port, nil
}
