package providers

import (
	"strconv"

	"github.com/samber/do/v2"

	"github.com/paperdeckapp/paperdeck-server/internal/config"
	"github.com/paperdeckapp/paperdeck-server/internal/logger"
	"github.com/paperdeckapp/paperdeck-server/internal/mdns"
)

// MDNSHandle wraps mdns.Service with Shutdownable.
type MDNSHandle struct {
	*mdns.Service
}

// Shutdown implements do.Shutdownable.
func (h *MDNSHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideMDNS starts local network advertisement once the HTTP server
// is up. Advertisement failure is logged but never blocks startup;
// multicast is commonly unavailable in containers.
func ProvideMDNS(i do.Injector) (*MDNSHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	do.MustInvoke[*HTTPServerHandle](i)

	service := mdns.NewService(log.Logger)

	port, err := strconv.Atoi(cfg.Server.Port)
	if err != nil {
		log.Warn("invalid server port for mDNS advertisement", "port", cfg.Server.Port)
		return &MDNSHandle{Service: service}, nil
	}

	if err := service.Start(cfg.Server.Name, port); err != nil {
		log.Warn("mDNS advertisement unavailable", "error", err)
	}

	return &MDNSHandle{Service: service}, nil
}
