// ABOUTME: mDNS service discovery for noisemaker monitor endpoints
// ABOUTME: Handles both advertisement (noisemaker) and browsing (watch client)
package discovery

import (
	"context"
	"fmt"
	"log"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type of a noisemaker monitor
const ServiceType = "_noisemaker._tcp"

// Config holds discovery configuration
type Config struct {
	// ServiceName is the instance name advertised to browsers
	ServiceName string

	// Port is the monitor HTTP port
	Port int

	// Info is extra TXT metadata ("backend=oto", "format=44100Hz/1ch/16bit")
	Info []string

	// Timeout bounds each browse query (default: 3s)
	Timeout time.Duration
}

// Manager handles mDNS operations
type Manager struct {
	config   Config
	ctx      context.Context
	cancel   context.CancelFunc
	services chan *ServiceInfo
	server   *mdns.Server
}

// ServiceInfo describes a discovered noisemaker
type ServiceInfo struct {
	Name string
	Host string
	Port int
	Path string
	Info []string
}

// Addr returns host:port
func (s *ServiceInfo) Addr() string {
	return net.JoinHostPort(s.Host, fmt.Sprint(s.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	if config.Timeout == 0 {
		config.Timeout = 3 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		config:   config,
		ctx:      ctx,
		cancel:   cancel,
		services: make(chan *ServiceInfo, 10),
	}
}

// TXT returns the TXT records advertised for the service
func (m *Manager) TXT() []string {
	return append([]string{"path=/ws"}, m.config.Info...)
}

// Advertise advertises the monitor endpoint via mDNS
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.TXT(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}
	m.server = server

	log.Printf("Advertising mDNS service: %s on port %d (type: %s)", m.config.ServiceName, m.config.Port, ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Browse searches for noisemaker monitors until Stop
func (m *Manager) Browse() error {
	go m.browseLoop()
	return nil
}

// browseLoop continuously browses for services
func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for entry := range entries {
				if entry.AddrV4 == nil {
					continue
				}
				info := serviceFromEntry(entry)

				log.Printf("Discovered noisemaker: %s at %s", info.Name, info.Addr())

				select {
				case m.services <- info:
				case <-m.ctx.Done():
				}
			}
		}()

		params := &mdns.QueryParam{
			Service: ServiceType,
			Domain:  "local",
			Timeout: m.config.Timeout,
			Entries: entries,
		}

		if err := mdns.Query(params); err != nil {
			log.Printf("mDNS query failed: %v", err)
		}
		close(entries)
		<-done
	}
}

// Services returns the channel of discovered services
func (m *Manager) Services() <-chan *ServiceInfo {
	return m.services
}

// Stop stops the discovery manager
func (m *Manager) Stop() {
	m.cancel()
}

func serviceFromEntry(entry *mdns.ServiceEntry) *ServiceInfo {
	info := &ServiceInfo{
		Name: strings.TrimSuffix(entry.Name, "."+ServiceType+".local."),
		Port: entry.Port,
		Path: "/ws",
	}
	if entry.AddrV4 != nil {
		info.Host = entry.AddrV4.String()
	}

	for _, field := range entry.InfoFields {
		if path, ok := strings.CutPrefix(field, "path="); ok {
			info.Path = path
			continue
		}
		info.Info = append(info.Info, field)
	}
	return info
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
