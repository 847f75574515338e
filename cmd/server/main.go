package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"opsboard/internal/auth"
	"opsboard/internal/config"
	"opsboard/internal/db"
	"opsboard/internal/devices"
	"opsboard/internal/events"
	"opsboard/internal/middleware"
	"opsboard/internal/models"
	"opsboard/internal/notify"
	"opsboard/internal/report"
	"opsboard/internal/transport"
	"opsboard/internal/ws"
)

func main() {
	cfg := config.Load()

	if err := db.Init(cfg.DBPath); err != nil {
		log.Fatalf("❌ Database init failed: %v", err)
	}
	defer db.Close()
	db.CreateDefaultAdmin(cfg)

	bus := events.NewBus()

	tr, err := buildTransport(cfg)
	if err != nil {
		log.Fatalf("❌ Transport init failed: %v", err)
	}
	ctrl := devices.NewController(tr, bus)
	defer ctrl.Close()

	authn := auth.NewAuthenticator(bus)
	tickets := auth.NewTicketService(cfg.WSTicketSecret)
	hub := ws.NewHub(tickets, ctrl, bus)
	defer hub.CloseAll()

	dispatcher := notify.NewDispatcher(cfg.ShoutrrrURLs, bus, nil)
	dispatcher.Start()
	defer dispatcher.Stop()

	// Expire stale sessions once an hour.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			auth.CleanupExpiredSessions()
		}
	}()

	deviceAPI := devices.NewHandlers(ctrl)
	reportAPI := report.NewHandlers()
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.CORS)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/login", loginLimiter.Limit(auth.Login(cfg, authn)))
	r.Post("/api/logout", auth.Logout(authn))
	r.Get("/api/auth/status", auth.Status(cfg))
	r.Get("/ws", hub.HandleConnection)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession(cfg))

		r.Get("/api/me", auth.GetCurrentUser)
		r.Post("/api/ws-ticket", auth.WSTicket(cfg, tickets))

		r.Get("/api/devices", deviceAPI.ListDevices)
		r.Get("/api/sensors", deviceAPI.ListSensors)
		r.Post("/api/devices/{id}/toggle", deviceAPI.Toggle)
		r.Get("/api/connection", deviceAPI.ConnectionStatus)
		r.Post("/api/connection/connect", deviceAPI.Connect)
		r.Post("/api/connection/disconnect", deviceAPI.Disconnect)

		r.Post("/api/activities", reportAPI.CreateActivity)
		r.Get("/api/activities", reportAPI.ListActivities)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRoute("/hrd-pusat"))
			r.Get("/api/reports/hrd/print", reportAPI.PrintHRD)
		})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Printf("⚡ Server listening on port %s (transport: %s)", cfg.Port, cfg.Transport)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️ Shutdown error: %v", err)
	}
}

// buildTransport picks the device-control backend from configuration.
func buildTransport(cfg models.Config) (transport.Transport, error) {
	switch cfg.Transport {
	case "bluetooth":
		central, err := transport.NewBLECentral(cfg.BLEServiceUUID, cfg.BLECharUUID)
		if err != nil {
			return nil, err
		}
		return transport.NewBluetoothTransport(central), nil
	case "postgres":
		return transport.NewRelationalTransport(cfg.PostgresDSN, cfg.RedisAddr), nil
	default:
		return transport.NewMQTTTransport(cfg.MQTTURL), nil
	}
}
