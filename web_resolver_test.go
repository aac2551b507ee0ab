package dyndns_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/arvhar/dyndns"
)

func TestWebResolverLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "192.0.2.1")
	}))
	defer srv.Close()
	wr, err := dyndns.WebResolver(srv.URL)
	if err != nil {
		t.Fatalf("WebResolver failed: %s", err)
	}
	res, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Request failed: %s", err)
	}

	if expected, got := netip.MustParseAddr("192.0.2.1"), res; expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}
}

func TestWebResolverMismatch(t *testing.T) {
	ips := []string{"192.0.2.1", "10.0.0.10", "127.0.0.1"}
	var srvs []string
	for _, ip := range ips {
		ip := ip
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, ip)
		}))
		defer srv.Close()
		srvs = append(srvs, srv.URL)
	}
	wr, err := dyndns.WebResolver(srvs...)
	if err != nil {
		t.Fatalf("WebResolver failed: %s", err)
	}
	res, err := wr.Resolve(context.Background())
	if err == nil {
		t.Fatalf("Expected error response; got err == nil")
	}
	if res.IsValid() {
		t.Fatalf("Expected zero address; got %+v", res)
	}
}

func TestWebResolverOneFailure(t *testing.T) {
	ips := []string{"192.0.2.1", "invalid ip", "192.0.2.1"}
	var srvs []string
	for _, ip := range ips {
		ip := ip
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, ip)
		}))
		defer srv.Close()
		srvs = append(srvs, srv.URL)
	}
	wr, err := dyndns.WebResolver(srvs...)
	if err != nil {
		t.Fatalf("WebResolver failed: %s", err)
	}
	res, err := wr.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if expected, got := netip.MustParseAddr("192.0.2.1"), res; expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}
}

func TestWebResolverRejectsIPv6(t *testing.T) {
	ips := []string{"2001:db8::1", "2001:db8::1", "2001:db8::1"}
	var srvs []string
	for _, ip := range ips {
		ip := ip
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, ip)
		}))
		defer srv.Close()
		srvs = append(srvs, srv.URL)
	}
	wr, err := dyndns.WebResolver(srvs...)
	if err != nil {
		t.Fatalf("WebResolver failed: %s", err)
	}
	if _, err := wr.Resolve(context.Background()); err == nil {
		t.Fatalf("Expected error for IPv6-only services; got err == nil")
	}
}

func TestWebResolverConcurrency(t *testing.T) {
	ips := []string{"192.0.2.1", "192.0.2.1", "192.0.2.1"}
	var srvs []string
	for _, ip := range ips {
		ip := ip
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(50 * time.Millisecond)
			io.WriteString(w, ip)
		}))
		defer srv.Close()
		srvs = append(srvs, srv.URL)
	}
	wr, err := dyndns.WebResolver(srvs...)
	if err != nil {
		t.Fatalf("WebResolver failed: %s", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 75*time.Millisecond)
	defer cancel()
	res, err := wr.Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve failed: %s", err)
	}
	if expected, got := netip.MustParseAddr("192.0.2.1"), res; expected != got {
		t.Fatalf("Expected %q; got %q", expected, got)
	}
}
