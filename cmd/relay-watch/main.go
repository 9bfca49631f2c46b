// relay-watch joins a room on the relay and prints every event it receives.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/lucas-remigio/graocerto.pt/pkg/logger"
	"github.com/lucas-remigio/graocerto.pt/pkg/relayclient"
)

func main() {
	var (
		url      = pflag.String("url", "ws://localhost:8090/ws", "relay websocket url")
		room     = pflag.String("room", "", "room key to join (account email)")
		notify   = pflag.String("notify", "", "send one account_update with this action, then exit")
		delay    = pflag.Duration("reconnect-delay", relayclient.DefaultReconnectDelay, "wait before reconnecting")
		logLevel = pflag.String("log-level", "info", "debug|info|warn|error")
	)
	pflag.Parse()

	if *room == "" {
		fmt.Fprintln(os.Stderr, "--room is required")
		pflag.Usage()
		os.Exit(2)
	}

	log := logger.Init(logger.Config{
		Service: "relay-watch",
		Env:     logger.EnvDev,
		Backend: logger.BackendStd,
		Level:   logger.ParseLevel(*logLevel),
		Output:  os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := relayclient.New(relayclient.Options{
		URL:            *url,
		ReconnectDelay: *delay,
		Logger:         log,
	})
	defer func() { _ = m.Disconnect() }()

	// Join before Connect so the room is (re)joined on every connection.
	if err := m.Join(*room); err != nil && !errors.Is(err, relayclient.ErrNotConnected) {
		log.Error("join", "err", err)
		os.Exit(2)
	}
	if err := m.Connect(ctx); err != nil {
		log.Warn("relay unreachable, retrying", "url", *url, "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			log.Info("interrupted")
			return
		case msg := <-m.Messages():
			logMessage(log, *room, msg)
			if msg.Type == relayclient.TypeRoomJoined && *notify != "" {
				if err := m.NotifyUpdate(*notify); err != nil {
					log.Error("notify failed", "err", err)
					os.Exit(1)
				}
				log.Info("update sent", "room", *room, "action", *notify)
				return
			}
		}
	}
}

// logMessage prints one relay frame. Updates carry no room, so the watched room is logged.
func logMessage(log *slog.Logger, room string, msg relayclient.Message) {
	switch msg.Type {
	case relayclient.TypeConnectionEstablished:
		log.Info("connected", "client_id", msg.ClientID)
	case relayclient.TypeRoomJoined:
		log.Info("joined", "room", msg.Email)
	case relayclient.TypeAccountUpdate:
		log.Info("account update", "room", room, "action", msg.Action, "at", msg.Timestamp)
	case relayclient.TypeError:
		log.Warn("relay error", "message", msg.Message)
	default:
		log.Debug("unhandled message", "type", msg.Type)
	}
}
