// ABOUTME: Entry point for the noisemaker status watcher
// ABOUTME: Finds a running noisemaker via mDNS (or -addr) and prints its live status
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Resonate-Protocol/noisemaker-go/internal/discovery"
	"github.com/Resonate-Protocol/noisemaker-go/internal/monitor"
)

var (
	addr    = flag.String("addr", "", "Monitor address host:port (skip mDNS)")
	timeout = flag.Duration("timeout", 10*time.Second, "Discovery and connect timeout")
)

func main() {
	flag.Parse()

	log.SetFlags(log.Ltime | log.Lmicroseconds)

	target := *addr
	path := ""
	if target == "" {
		log.Printf("Browsing for %s services...", discovery.ServiceType)
		disc := discovery.NewManager(discovery.Config{})
		disc.Browse()

		select {
		case svc := <-disc.Services():
			target = svc.Addr()
			path = svc.Path
			log.Printf("Found %s at %s %v", svc.Name, target, svc.Info)
		case <-time.After(*timeout):
			log.Fatalf("No noisemaker found after %v", *timeout)
		}
		disc.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	client, err := monitor.Dial(ctx, target, path)
	cancel()
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer client.Close()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case st := <-client.Statuses:
			fmt.Println(formatStatus(st))
		case report := <-client.Errors:
			fmt.Printf("error at %.3fs: %s\n", report.Time, report.Message)
		case <-client.Done():
			log.Printf("Monitor closed the connection")
			return
		case <-sigChan:
			return
		}
	}
}

func formatStatus(st monitor.Status) string {
	e := st.Engine
	return fmt.Sprintf("%s [%s] %s/%s %s t=%.3fs blocks=%d/%d sent=%d played=%d failed=%d underruns=%d",
		st.Name, e.State, e.Backend, e.Device, e.Format, e.Time,
		e.BlockCount-e.Free, e.BlockCount, e.Submitted, e.Completed, e.Failed, e.Underruns)
}
