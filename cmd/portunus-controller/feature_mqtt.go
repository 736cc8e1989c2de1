//go:build !no_mqtt

package main

import (
	"context"
	"log/slog"

	"github.com/BrandonDHaskell/Portunus/controller/internal/config"
	"github.com/BrandonDHaskell/Portunus/controller/internal/portunus/service"
	mqttbridge "github.com/BrandonDHaskell/Portunus/controller/internal/remote/mqtt"
)

type mqttStopper struct {
	bridge *mqttbridge.Bridge
}

func (m *mqttStopper) Stop() {
	if m.bridge != nil {
		m.bridge.Stop()
	}
}

func initMQTT(ctx context.Context, bus *service.EventBus, led service.LEDSetter, cfg config.Config, logger *slog.Logger) *mqttStopper {
	if !cfg.MQTT.Enabled {
		return &mqttStopper{}
	}
	bridge, err := mqttbridge.NewBridge(bus, led, mqttbridge.Config{
		Broker:      cfg.MQTT.Broker,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		TopicPrefix: cfg.MQTT.TopicPrefix,
		ClientID:    cfg.MQTT.ClientID,
		ModuleID:    cfg.ModuleID,
	}, logger)
	if err != nil {
		// The door keeps working without the management plane.
		logger.Error("mqtt bridge", "err", err)
		return &mqttStopper{}
	}
	bridge.Start(ctx)
	return &mqttStopper{bridge: bridge}
}
