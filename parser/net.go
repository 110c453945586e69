package parser

import (
	"fmt"
	"net"
	"regexp"
	"strconv"
)

// SocketAddress is an unresolved host and port pair.
type SocketAddress struct {
	Host string
	Port int
}

func (a SocketAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

var hostAndPort = regexp.MustCompile(`^(.*):(\d+)$`)

// ParseSocketAddress splits "host:port" on the last colon. The host is kept
// as written and is not resolved.
func ParseSocketAddress(raw string) (SocketAddress, error) {
	m := hostAndPort.FindStringSubmatch(raw)
	if m == nil {
		return SocketAddress{}, fmt.Errorf("cannot parse socket address from %s", raw)
	}
	port, err := strconv.Atoi(m[2])
	if err != nil || port > 65535 {
		return SocketAddress{}, fmt.Errorf("invalid port in %s", raw)
	}
	return SocketAddress{Host: m[1], Port: port}, nil
}

// lookupIP is swapped in tests.
var lookupIP = net.LookupIP

// ParseIP accepts an IP literal or a host name, which is resolved to its
// first address.
func ParseIP(raw string) (net.IP, error) {
	if ip := net.ParseIP(raw); ip != nil {
		return ip, nil
	}
	if raw == "" {
		return nil, fmt.Errorf("empty address")
	}
	ips, err := lookupIP(raw)
	if err != nil {
		return nil, err
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("no addresses for %s", raw)
	}
	return ips[0], nil
}

// ParseIPNet parses CIDR notation.
func ParseIPNet(raw string) (*net.IPNet, error) {
	_, n, err := net.ParseCIDR(raw)
	return n, err
}
