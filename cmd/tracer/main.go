// Command tracer is the route-tracing client: it injects trace
// datagrams with increasing TTL toward a destination, printing the
// on-path node that acknowledges each TTL value until that node is the
// probe's ultimate destination.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/abramwit/lsrouting/internal/wire"
)

const (
	readTimeout = 2 * time.Second
	maxTTL      = 32
)

func main() {
	var (
		tracerPort = flag.Int("p", 0, "UDP port the tracer listens on for acknowledgements")
		srcHost    = flag.String("sh", "", "hostname of the probe's source node")
		srcPort    = flag.Int("sp", 0, "port of the probe's source node")
		destHost   = flag.String("dh", "", "hostname of the probe's destination node")
		destPort   = flag.Int("dp", 0, "port of the probe's destination node")
		debug      = flag.Bool("d", false, "print per-hop debug information")
	)
	flag.Parse()

	if *tracerPort == 0 || *srcHost == "" || *destHost == "" {
		fmt.Fprintln(os.Stderr, "usage: tracer -p <port> -sh <src host> -sp <src port> -dh <dest host> -dp <dest port>")
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if err := run(log, *tracerPort, *srcHost, *srcPort, *destHost, *destPort, *debug); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, tracerPort int, srcHost string, srcPort int, destHost string, destPort int, debug bool) error {
	tracerAddr := &net.UDPAddr{IP: net.IPv4zero, Port: tracerPort}
	conn, err := net.ListenUDP("udp4", tracerAddr)
	if err != nil {
		return fmt.Errorf("tracer: listen on port %d: %w", tracerPort, err)
	}
	defer conn.Close()

	tracerIP, err := resolve(tracerAddr.IP.String())
	if err != nil {
		return err
	}
	self, err := wire.NewEndpoint(tracerIP, uint32(tracerPort))
	if err != nil {
		return err
	}

	srcIP, err := resolve(srcHost)
	if err != nil {
		return err
	}
	src, err := wire.NewEndpoint(srcIP, uint32(srcPort))
	if err != nil {
		return err
	}

	destIP, err := resolve(destHost)
	if err != nil {
		return err
	}
	dest, err := wire.NewEndpoint(destIP, uint32(destPort))
	if err != nil {
		return err
	}

	if debug {
		fmt.Println("hop endpoint")
	}

	hop := 1
	for ttl := uint32(0); ttl <= maxTTL; ttl++ {
		probe := wire.Header{Type: wire.TypeTrace, TTL: ttl, Src: self, Dest: dest}
		buf, err := wire.Encode(probe, nil)
		if err != nil {
			return err
		}
		if _, err := conn.WriteTo(buf, src.UDPAddr()); err != nil {
			return fmt.Errorf("tracer: send probe: %w", err)
		}

		if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return err
		}
		resp := make([]byte, 2048)
		n, _, err := conn.ReadFrom(resp)
		if err != nil {
			return fmt.Errorf("tracer: no acknowledgement for ttl %d: %w", ttl, err)
		}
		ack, _, err := wire.Decode(resp[:n])
		if err != nil {
			log.Debug("dropping undecodable acknowledgement", "error", err)
			continue
		}

		if debug {
			fmt.Printf("%d %s\n", hop, ack.Src.String())
		}
		hop++

		if ack.Src == dest {
			return nil
		}
	}
	return fmt.Errorf("tracer: no acknowledgement from destination after %d hops", maxTTL)
}

func resolve(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}
	ips, err := net.LookupHost(host)
	if err != nil || len(ips) == 0 {
		return nil, fmt.Errorf("tracer: cannot resolve host %q", host)
	}
	return net.ParseIP(ips[0]), nil
}
