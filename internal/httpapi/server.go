package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/service"
)

type Dependencies struct {
	Logger *slog.Logger
	Addr   string
	Status *service.StatusBoard
	LED    service.LEDSetter

	// Retention adds telemetry pruning stats to GET /v1/status. Optional.
	Retention RetentionReporter

	// Events feeds GET /v1/events. Nil disables the endpoint.
	Events         *service.EventBus
	AllowedOrigins []string
	Version        string
}

type RetentionReporter interface {
	Stats() service.RetentionStats
}

type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	mux        *http.ServeMux
	status     *service.StatusBoard
	led        service.LEDSetter
	retention  RetentionReporter
	version    string

	hub            *wsHub
	unsubEvents    func()
	allowedOrigins []string
}

func NewServer(d Dependencies) *Server {
	mux := http.NewServeMux()
	logger := d.Logger.With("component", "http")

	s := &Server{
		logger:         logger,
		mux:            mux,
		status:         d.Status,
		led:            d.LED,
		retention:      d.Retention,
		version:        d.Version,
		allowedOrigins: d.AllowedOrigins,
	}

	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("POST /v1/led", s.handleLED)

	if d.Events != nil {
		s.hub = newWSHub(logger)
		go s.hub.run()
		s.unsubEvents = d.Events.OnAll(func(ev service.Event) { s.hub.broadcast(ev) })
		mux.HandleFunc("GET /v1/events", s.handleEvents)
	}

	handler := loggingMiddleware(logger, mux)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.Close()
	return s.httpServer.Shutdown(ctx)
}

// Close detaches the event feed and disconnects websocket clients. Safe to
// call more than once.
func (s *Server) Close() {
	if s.unsubEvents != nil {
		s.unsubEvents()
	}
	if s.hub != nil {
		s.hub.stop()
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusToResponse(s.status.Snapshot(), s.version)
	if s.retention != nil {
		resp.Retention = retentionToResponse(s.retention.Stats())
	}

	if wantsProtobuf(r) {
		msg, err := statusToProto(resp)
		if err != nil {
			s.logger.Error("status to proto", "err", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "unexpected server error")
			return
		}
		writeProto(w, http.StatusOK, msg)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLED(w http.ResponseWriter, r *http.Request) {
	var on bool

	if isProtobuf(r) {
		var msg structpb.Struct
		if err := readProto(r, &msg); err != nil {
			writeError(w, http.StatusBadRequest, "bad_proto", "invalid protobuf body")
			return
		}
		v, ok := ledFromProto(&msg)
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_led_value", "field on must be a bool")
			return
		}
		on = v
	} else {
		var req ledRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
		dec.DisallowUnknownFields()

		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_json", "invalid JSON body")
			return
		}
		if req.On == nil {
			writeError(w, http.StatusBadRequest, "invalid_led_value", "field on is required")
			return
		}
		on = *req.On
	}

	s.led.SetLed(on)
	s.logger.Info("led override requested", "on", on, "from", r.RemoteAddr)
	writeJSON(w, http.StatusOK, ledResponse{OK: true, On: on})
}
