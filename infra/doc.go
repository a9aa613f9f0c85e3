// Package infra holds the adapters that connect the simulator to the outside
// world: the zerolog logger, Prometheus and InfluxDB sinks, the MQTT
// telemetry publisher and the Sentry monitor. Adapters implement interfaces
// declared under core and are selected from configuration.
package infra
