// Package discovery advertises the server on the local network so editors
// on the same LAN can find a board server without configuration.
package discovery

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/hashicorp/mdns"
)

// ServiceType is the DNS-SD service type the server registers under.
const ServiceType = "_sketchboard._tcp"

var ErrInvalidPort = errors.New("invalid port")

// Advertiser owns a running mDNS responder.
type Advertiser struct {
	server *mdns.Server
}

// TXTRecords returns the TXT entries published with the service.
func TXTRecords(version string, port int) []string {
	return []string{
		"app=sketchboard",
		"version=" + version,
		"ws=/ws/board/{boardId}",
		fmt.Sprintf("port=%d", port),
	}
}

// Advertise starts answering mDNS queries for this host on port.
func Advertise(port int, version string) (*Advertiser, error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("advertise on %d: %w", port, ErrInvalidPort)
	}
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, TXTRecords(version, port))
	if err != nil {
		return nil, fmt.Errorf("create mdns service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("start mdns server: %w", err)
	}
	slog.Info("mdns advertising", "service", ServiceType, "instance", host, "port", port)
	return &Advertiser{server: server}, nil
}

// Shutdown stops the responder. It is safe on a nil Advertiser.
func (a *Advertiser) Shutdown() error {
	if a == nil || a.server == nil {
		return nil
	}
	return a.server.Shutdown()
}
