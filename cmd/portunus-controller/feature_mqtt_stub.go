//go:build no_mqtt

package main

import (
	"context"
	"log/slog"

	"github.com/BrandonDHaskell/Portunus/controller/internal/config"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/service"
)

type mqttStopper struct{}

func (m *mqttStopper) Stop() {}

func initMQTT(_ context.Context, _ *service.EventBus, _ service.LEDSetter, _ config.Config, _ *slog.Logger) *mqttStopper {
	return &mqttStopper{}
}
