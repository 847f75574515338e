package config

import (
	"os"
	"strings"

	"opsboard/internal/models"
)

// Original ESP32 firmware UUIDs. Deployments with their own firmware
// override these via BLE_SERVICE_UUID / BLE_CHAR_UUID.
const (
	defaultBLEService = "4fafc201-1fb5-459e-8fcc-c5c9c331914b"
	defaultBLEChar    = "beb5483e-36e1-4688-b7f5-ea07361b26a8"
)

// Load returns the server configuration from environment variables
func Load() models.Config {
	return models.Config{
		Port:           getEnv("PORT", "9080"),
		DBPath:         getEnv("DB_PATH", "opsboard.db"),
		AdminUser:      getEnv("ADMIN_USER", "ADMIN"),
		AdminPass:      getEnv("ADMIN_PASS", ""),
		AuthEnabled:    getEnv("AUTH_ENABLED", "true") == "true",
		Transport:      getEnv("TRANSPORT", "mqtt"),
		MQTTURL:        getEnv("MQTT_URL", "mqtt://localhost:1883"),
		PostgresDSN:    getEnv("POSTGRES_DSN", ""),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		BLEServiceUUID: getEnv("BLE_SERVICE_UUID", defaultBLEService),
		BLECharUUID:    getEnv("BLE_CHAR_UUID", defaultBLEChar),
		ShoutrrrURLs:   splitList(getEnv("SHOUTRRR_URLS", "")),
		WSTicketSecret: getEnv("WS_TICKET_SECRET", ""),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
