// Package topo reads the topology file that seeds a node's initial
// neighbor set at startup. Each line lists one node's endpoint
// followed by its direct neighbors, all as "host,port" tokens
// separated by whitespace; this node identifies its own line by
// matching its bound listening endpoint against the line's first
// token.
package topo

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/abramwit/lsrouting/internal/wire"
)

// ErrFileNotFound is returned when the topology file cannot be opened.
var ErrFileNotFound = errors.New("topo: topology file not found")

// ErrSelfNotFound is returned when no line in the file identifies the
// node listening at self.
var ErrSelfNotFound = errors.New("topo: this node's endpoint is not listed in the topology file")

// ReadNeighbors parses the topology file at path and returns the
// direct-neighbor list for the node whose own listening endpoint is
// self. The host part of every token is resolved via net.LookupHost
// and its first address is used (a host that does not resolve is kept
// as written); a line is this node's when that address and port equal
// self's dotted IP and port. self itself is not resolved, so a node
// whose self is 0.0.0.0 matches only a line whose first token resolves
// to "0.0.0.0". Neighbor tokens whose first address is not IPv4 are
// skipped.
func ReadNeighbors(path string, self wire.Endpoint) ([]wire.Endpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("topo: open %s: %w", path, err)
	}
	defer f.Close()

	selfHost, selfPort := self.IP().String(), self.UDPAddr().Port

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		tokens := strings.Fields(line)
		ownHost, ownPort, err := parseHostPort(tokens[0])
		if err != nil {
			continue
		}
		if ownHost != selfHost || ownPort != selfPort {
			continue
		}

		neighbors := make([]wire.Endpoint, 0, len(tokens)-1)
		for _, tok := range tokens[1:] {
			host, port, err := parseHostPort(tok)
			if err != nil {
				continue
			}
			ep, err := wire.NewEndpoint(net.ParseIP(host), uint32(port))
			if err != nil {
				continue
			}
			neighbors = append(neighbors, ep)
		}
		return neighbors, nil
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("topo: read %s: %w", path, err)
	}
	return nil, ErrSelfNotFound
}

func parseHostPort(tok string) (host string, port int, err error) {
	idx := strings.LastIndex(tok, ",")
	if idx < 0 {
		return "", 0, fmt.Errorf("topo: malformed endpoint token %q", tok)
	}
	host = tok[:idx]
	port, err = strconv.Atoi(tok[idx+1:])
	if err != nil {
		return "", 0, fmt.Errorf("topo: malformed port in %q: %w", tok, err)
	}
	ips, err := net.LookupHost(host)
	if err != nil || len(ips) == 0 {
		return host, port, nil
	}
	return ips[0], port, nil
}
