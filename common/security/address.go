package security

import (
	"fmt"
	"net"
	"strings"
)

// hostScreen rejects hostnames and resolved addresses that point back
// into the local machine or the surrounding network.
type hostScreen struct {
	blockedNames []string
	allowPrivate bool
}

func newHostScreen() *hostScreen {
	return &hostScreen{
		blockedNames: []string{
			"localhost",
			"127.0.0.1",
			"::1",
			"0.0.0.0",
			"::",
			"[::1]",
		},
	}
}

func (s *hostScreen) validate(hostname string) error {
	if hostname == "" {
		return fmt.Errorf("hostname is required")
	}
	if s.allowPrivate {
		return nil
	}

	normalized := strings.ToLower(strings.TrimSpace(hostname))
	for _, blocked := range s.blockedNames {
		if normalized == blocked {
			return fmt.Errorf("host %q is blocked (SSRF protection: local address)", hostname)
		}
	}

	// A literal IP is screened directly; a name is resolved and every
	// address it maps to must pass.
	if ip := net.ParseIP(normalized); ip != nil {
		return screenIP(ip)
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		// Unresolvable hosts pass the guard; the fetch itself will
		// surface the DNS failure.
		return nil
	}
	for _, ip := range ips {
		if err := screenIP(ip); err != nil {
			return err
		}
	}

	return nil
}

// screenIP rejects loopback, private, link-local, multicast and
// unspecified addresses. Link-local covers cloud metadata services
// (169.254.169.254).
func screenIP(ip net.IP) error {
	switch {
	case ip.IsLoopback():
		return fmt.Errorf("IP %s is blocked (SSRF protection: loopback address)", ip)
	case ip.IsPrivate():
		return fmt.Errorf("IP %s is blocked (SSRF protection: private network)", ip)
	case ip.IsLinkLocalUnicast():
		return fmt.Errorf("IP %s is blocked (SSRF protection: link-local address)", ip)
	case ip.IsMulticast():
		return fmt.Errorf("IP %s is blocked (SSRF protection: multicast address)", ip)
	case ip.IsUnspecified():
		return fmt.Errorf("IP %s is blocked (SSRF protection: unspecified address)", ip)
	}
	return nil
}
