// Package zeroconf advertises the daemon's HTTP API as an mDNS/DNS-SD
// service so clients can find boards on the LAN.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/grandcat/zeroconf"

	"github.com/thinkier/dfr-io-hat/internal/models"
)

const (
	serviceType = "_http._tcp"
	domain      = "local."
	model       = "dfr-io-hat"
)

// Service manages mDNS service registration.
type Service struct {
	name string // instance name, e.g. "iohat-pi4"
	port int
	txt  []string
}

// New creates a Service advertising the API on port with TXT records
// describing the board.
func New(name string, port int, info models.Info) *Service {
	return &Service{
		name: name,
		port: port,
		txt:  TXTRecords(info),
	}
}

// TXTRecords builds the DNS-SD TXT records for a board.
func TXTRecords(info models.Info) []string {
	return []string{
		"model=" + model,
		"version=" + info.Version,
		"path=/api",
		"bus=" + strconv.Itoa(info.Bus),
		"addr=" + info.Addr,
		"mock=" + strconv.FormatBool(info.Mock),
	}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at which
// point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	server, err := zeroconf.Register(
		s.name,      // instance name
		serviceType, // service type
		domain,      // domain
		s.port,      // port
		s.txt,       // TXT records
		nil,         // nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"port", s.port,
		"txt", s.txt,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
