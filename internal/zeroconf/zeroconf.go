// Package zeroconf advertises the codec control API as an mDNS/DNS-SD
// service so it can be found on the LAN.
package zeroconf

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grandcat/zeroconf"
)

// ServiceType is the DNS-SD service type of the control API.
const ServiceType = "_acodec._tcp"

// Service manages mDNS service registration.
type Service struct {
	name string
	port int
	txt  []string
}

// New creates a Service that will advertise name on the given port.
func New(name string, port int, version string) *Service {
	return &Service{
		name: name,
		port: port,
		txt:  []string{"version=" + version, "path=/api/codec"},
	}
}

// TXT returns the TXT records that Start will publish.
func (s *Service) TXT() []string { return append([]string(nil), s.txt...) }

// Start registers the mDNS service and blocks until ctx is cancelled, at which
// point it shuts down the server cleanly.
func (s *Service) Start(ctx context.Context) error {
	server, err := zeroconf.Register(s.name, ServiceType, "local.", s.port, s.txt, nil)
	if err != nil {
		return fmt.Errorf("zeroconf register: %w", err)
	}
	slog.Info("zeroconf: registered mDNS service",
		"name", s.name,
		"type", ServiceType,
		"port", s.port,
	)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("zeroconf: mDNS service unregistered")
	return nil
}
