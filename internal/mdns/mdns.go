package mdns

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// Service is the DNS-SD service type of the results web server.
const Service = "_rcs._tcp"

const domain = "local."

// Host represents a discovered results server.
type Host struct {
	Instance  string // Advertised name: "rcs on lab-pc"
	Hostname  string // DNS hostname: "lab-pc.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// Advertise registers the results server on the local network. The
// returned function withdraws the announcement.
func Advertise(instance string, port int, txt []string) (func(), error) {
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("advertise: invalid port %d", port)
	}
	server, err := zeroconf.Register(instance, Service, domain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("advertise: %w", err)
	}
	return server.Shutdown, nil
}

// Discover performs a blocking mDNS browse for results servers until the
// timeout elapses or ctx is cancelled. Entries are deduplicated by host
// and port and sorted by instance name.
func Discover(ctx context.Context, timeout time.Duration) ([]Host, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	resultMap := make(map[string]Host)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				if e == nil {
					continue
				}
				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)

				key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
				resultMap[key] = Host{
					Instance:  cleanInstance(e.Instance),
					Hostname:  e.HostName,
					Addresses: addrs,
					Port:      e.Port,
					TXT:       append([]string{}, e.Text...),
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, Service, domain, entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}

	<-done

	out := make([]Host, 0, len(resultMap))
	for _, h := range resultMap {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out, nil
}

// PortFromAddr extracts the numeric port from a listen address such as
// ":8080" or "127.0.0.1:9000".
func PortFromAddr(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("port %q: %w", p, err)
	}
	if port <= 0 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range", port)
	}
	return port, nil
}

// cleanInstance removes Zeroconf escape sequences: "\ " => " "
func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
