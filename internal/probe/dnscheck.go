package probe

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

const (
	ClassResolves          = "RESOLVES"
	ClassNXDomain          = "NXDOMAIN"
	ClassNoARecord         = "NO_A_RECORD"
	ClassServfailOrTimeout = "SERVFAIL_or_TIMEOUT"
	ClassInvalidName       = "INVALID_NAME"
)

const defaultDNSServer = "8.8.8.8:53"

type DNSStatus struct {
	Domain        string
	Addrs         []string
	CNAME         string
	Nameservers   []string
	Class         string
	ResolverError string
}

// DNSDiagnoser classifies why a host could not be reached by asking a DNS
// server directly, bypassing any local cache.
type DNSDiagnoser struct {
	Server string // host:port
	client *dns.Client
}

// NewDNSDiagnoser uses the first nameserver of /etc/resolv.conf when server
// is empty.
func NewDNSDiagnoser(server string, timeout time.Duration) *DNSDiagnoser {
	if server == "" {
		server = systemResolver()
	}
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return &DNSDiagnoser{
		Server: server,
		client: &dns.Client{Timeout: timeout},
	}
}

func systemResolver() string {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(cfg.Servers) == 0 {
		return defaultDNSServer
	}
	return net.JoinHostPort(cfg.Servers[0], cfg.Port)
}

// Diagnose returns the DNS class of host. IP literals are not diagnosed.
func (d *DNSDiagnoser) Diagnose(ctx context.Context, host string) string {
	if net.ParseIP(host) != nil {
		return ""
	}
	return d.Check(ctx, host).Class
}

func (d *DNSDiagnoser) Check(ctx context.Context, domain string) DNSStatus {
	s := DNSStatus{Domain: strings.TrimSpace(domain)}
	if s.Domain == "" || strings.Contains(s.Domain, "://") {
		s.Class = ClassInvalidName
		return s
	}
	if _, ok := dns.IsDomainName(s.Domain); !ok {
		s.Class = ClassInvalidName
		return s
	}

	nxdomain := false
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		resp, err := d.query(ctx, s.Domain, qtype)
		if err != nil {
			s.ResolverError = err.Error()
			continue
		}
		switch resp.Rcode {
		case dns.RcodeSuccess:
			for _, rr := range resp.Answer {
				switch v := rr.(type) {
				case *dns.A:
					s.Addrs = append(s.Addrs, v.A.String())
				case *dns.AAAA:
					s.Addrs = append(s.Addrs, v.AAAA.String())
				case *dns.CNAME:
					s.CNAME = strings.TrimSuffix(v.Target, ".")
				}
			}
		case dns.RcodeNameError:
			nxdomain = true
		default:
			s.ResolverError = dns.RcodeToString[resp.Rcode]
		}
	}

	switch {
	case len(s.Addrs) > 0:
		s.Class = ClassResolves
		return s
	case nxdomain:
		s.Class = ClassNXDomain
		return s
	}

	if resp, err := d.query(ctx, s.Domain, dns.TypeNS); err == nil && resp.Rcode == dns.RcodeSuccess {
		for _, rr := range resp.Answer {
			if ns, ok := rr.(*dns.NS); ok {
				s.Nameservers = append(s.Nameservers, strings.TrimSuffix(ns.Ns, "."))
			}
		}
	}

	switch {
	case len(s.Nameservers) > 0:
		s.Class = ClassNoARecord
	case s.ResolverError != "":
		s.Class = ClassServfailOrTimeout
	default:
		// NOERROR without data: the name exists but has no addresses.
		s.Class = ClassNoARecord
	}
	return s
}

func (d *DNSDiagnoser) query(ctx context.Context, name string, qtype uint16) (*dns.Msg, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(name), qtype)
	m.RecursionDesired = true
	resp, _, err := d.client.ExchangeContext(ctx, m, d.Server)
	return resp, err
}
