package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
)

// startDNS runs an in-process resolver on loopback and returns its address.
func startDNS(t *testing.T, h dns.HandlerFunc) string {
	t.Helper()
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen udp: %v", err)
	}
	started := make(chan struct{})
	srv := &dns.Server{PacketConn: pc, Handler: h, NotifyStartedFunc: func() { close(started) }}
	go srv.ActivateAndServe()
	<-started
	t.Cleanup(func() { _ = srv.Shutdown() })
	return pc.LocalAddr().String()
}

func zone(w dns.ResponseWriter, r *dns.Msg) {
	m := new(dns.Msg)
	m.SetReply(r)
	q := r.Question[0]
	switch q.Name {
	case "ok.test.":
		if q.Qtype == dns.TypeA {
			rr, _ := dns.NewRR("ok.test. 60 IN A 192.0.2.10")
			m.Answer = append(m.Answer, rr)
		}
	case "v6only.test.":
		if q.Qtype == dns.TypeAAAA {
			rr, _ := dns.NewRR("v6only.test. 60 IN AAAA 2001:db8::1")
			m.Answer = append(m.Answer, rr)
		}
	case "delegated.test.":
		if q.Qtype == dns.TypeNS {
			rr, _ := dns.NewRR("delegated.test. 60 IN NS ns1.example.net.")
			m.Answer = append(m.Answer, rr)
		}
	case "broken.test.":
		m.Rcode = dns.RcodeServerFailure
	default:
		m.Rcode = dns.RcodeNameError
	}
	_ = w.WriteMsg(m)
}

func TestDNSDiagnoser_Classes(t *testing.T) {
	addr := startDNS(t, zone)
	d := NewDNSDiagnoser(addr, time.Second)

	cases := []struct {
		host string
		want string
	}{
		{"ok.test", ClassResolves},
		{"v6only.test", ClassResolves},
		{"missing.test", ClassNXDomain},
		{"delegated.test", ClassNoARecord},
		{"broken.test", ClassServfailOrTimeout},
		{"", ClassInvalidName},
		{"https://ok.test", ClassInvalidName},
	}
	for _, c := range cases {
		if got := d.Check(context.Background(), c.host).Class; got != c.want {
			t.Fatalf("Check(%q)=%s want %s", c.host, got, c.want)
		}
	}
}

func TestDNSDiagnoser_CollectsAddresses(t *testing.T) {
	addr := startDNS(t, zone)
	st := NewDNSDiagnoser(addr, time.Second).Check(context.Background(), "ok.test")
	if len(st.Addrs) != 1 || st.Addrs[0] != "192.0.2.10" {
		t.Fatalf("unexpected addrs: %v", st.Addrs)
	}
}

func TestDNSDiagnoser_SkipsIPLiterals(t *testing.T) {
	d := NewDNSDiagnoser("127.0.0.1:1", 50*time.Millisecond)
	if got := d.Diagnose(context.Background(), "127.0.0.1"); got != "" {
		t.Fatalf("want no diagnosis for IP literal, got %q", got)
	}
}

func TestNewDNSDiagnoser_AddsDefaultPort(t *testing.T) {
	d := NewDNSDiagnoser("192.0.2.53", time.Second)
	if d.Server != "192.0.2.53:53" {
		t.Fatalf("want port 53 appended, got %q", d.Server)
	}
}
