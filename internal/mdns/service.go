// Package mdns advertises the PaperDeck server on the local network so
// clients can discover a self-hosted instance without configuration.
package mdns

import (
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/hashicorp/mdns"
)

const (
	// ServiceType is the mDNS service type PaperDeck clients browse for.
	ServiceType = "_paperdeck._tcp"

	// APIVersion is advertised in TXT records so clients can reject
	// servers they cannot talk to.
	APIVersion = "v1"
)

// Service manages mDNS advertisement for the server.
type Service struct {
	server *mdns.Server
	logger *slog.Logger
	mu     sync.Mutex
}

// NewService creates an mDNS service that is not yet advertising.
func NewService(logger *slog.Logger) *Service {
	return &Service{logger: logger}
}

// Start begins advertising on all interfaces. Call it after the HTTP
// server is listening. Failures are typically environmental (multicast
// unavailable in containers) and safe to treat as non-fatal.
func (s *Service) Start(serverName string, port int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
	}

	host, err := os.Hostname()
	if err != nil {
		host = "paperdeck-server"
	}

	txtRecords := []string{
		fmt.Sprintf("name=%s", serverName),
		fmt.Sprintf("api=%s", APIVersion),
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, txtRecords)
	if err != nil {
		return fmt.Errorf("create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("start mDNS server: %w", err)
	}
	s.server = server

	s.logger.Info("mDNS advertisement started",
		"service", ServiceType,
		"port", port,
		"name", serverName,
	)
	return nil
}

// Stop stops advertising. Safe to call repeatedly or before Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		_ = s.server.Shutdown()
		s.server = nil
		s.logger.Info("mDNS advertisement stopped")
	}
}
