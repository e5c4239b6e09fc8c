// Package ipchecker restricts routes to clients from a trusted subnet.
package ipchecker

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/patric-chuzhbe/tinyapp/internal/logger"
)

// IPChecker validates client addresses against an optional trusted subnet.
type IPChecker struct {
	trustedSubnet *net.IPNet
	trustedProxy  *net.IPNet
}

// New creates an IPChecker for the CIDR trustedSubnet (e.g. "192.168.1.0/24").
// An empty trustedSubnet disables the restriction. Forwarding headers are
// honoured only for requests coming from the CIDR trustedProxy; an empty
// trustedProxy means the peer address is always used.
func New(trustedSubnet, trustedProxy string) (*IPChecker, error) {
	checker := &IPChecker{}

	var err error
	checker.trustedSubnet, err = parseCIDR(trustedSubnet)
	if err != nil {
		return nil, err
	}
	checker.trustedProxy, err = parseCIDR(trustedProxy)
	if err != nil {
		return nil, err
	}

	return checker, nil
}

func parseCIDR(cidr string) (*net.IPNet, error) {
	if cidr == "" {
		return nil, nil
	}
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/parseCIDR(): error while `net.ParseCIDR()` calling: %w", err)
	}

	return network, nil
}

// Check reports whether clientIP belongs to the trusted subnet.
func (checker *IPChecker) Check(clientIP net.IP) bool {
	return checker.trustedSubnet != nil && checker.trustedSubnet.Contains(clientIP)
}

// GetClientIP returns the peer address of the request. When the peer is a
// trusted proxy, "X-Real-IP" and then the first "X-Forwarded-For" entry
// take precedence.
func (checker *IPChecker) GetClientIP(request *http.Request) (net.IP, error) {
	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): error while `net.SplitHostPort()` calling: %w", err)
	}
	peer := net.ParseIP(host)
	if peer == nil {
		return nil, fmt.Errorf("in internal/ipchecker/ipchecker.go/GetClientIP(): unparsable peer address %q", host)
	}

	if checker.trustedProxy == nil || !checker.trustedProxy.Contains(peer) {
		return peer, nil
	}

	if ip := net.ParseIP(request.Header.Get("X-Real-IP")); ip != nil {
		return ip, nil
	}
	if xff := request.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip, nil
		}
	}

	return peer, nil
}

func (checker *IPChecker) IsTrustedSubnetEmpty() bool {
	return checker.trustedSubnet == nil
}

// TrustedOnly answers 403 to clients outside the trusted subnet.
// Without a configured subnet every client is let through.
func (checker *IPChecker) TrustedOnly(h http.Handler) http.Handler {
	return http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		if checker.IsTrustedSubnetEmpty() {
			h.ServeHTTP(response, request)

			return
		}

		clientIP, err := checker.GetClientIP(request)
		if err != nil || !checker.Check(clientIP) {
			logger.Log.Debugw("Rejecting an untrusted client", "remoteAddr", request.RemoteAddr, "error", err)
			http.Error(response, http.StatusText(http.StatusForbidden), http.StatusForbidden)

			return
		}

		h.ServeHTTP(response, request)
	})
}
