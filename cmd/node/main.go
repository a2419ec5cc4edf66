// Command node runs one link-state routing daemon: it binds a UDP
// port, reads its initial neighbors from a topology file, and runs the
// routing loop until terminated.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/abramwit/lsrouting/internal/routing"
	"github.com/abramwit/lsrouting/internal/spf"
	"github.com/abramwit/lsrouting/internal/topo"
	"github.com/abramwit/lsrouting/internal/wire"
)

func main() {
	var (
		port      = flag.Int("p", 0, "UDP port this node listens on")
		topoPath  = flag.String("f", "", "path to the topology file")
		debugAddr = flag.String("debug-ws", "", "optional host:port to serve a read-only debug websocket on")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *port == 0 || *topoPath == "" {
		fmt.Fprintln(os.Stderr, "usage: node -p <port> -f <topology file>")
		os.Exit(1)
	}

	if err := run(log, *port, *topoPath, *debugAddr); err != nil {
		log.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger, port int, topoPath, debugAddr string) error {
	conn, err := routing.Listen(port)
	if err != nil {
		return err
	}

	self, err := wire.NewEndpoint(net.IPv4zero, uint32(port))
	if err != nil {
		return err
	}

	neighbors, err := topo.ReadNeighbors(topoPath, self)
	if err != nil {
		return err
	}

	hub := newDebugHub(log)

	loop := routing.New(routing.Config{
		Self:   self,
		Logger: log,
		OnRebuild: func(tbl *spf.Table) {
			printTable(self, tbl)
			hub.broadcast(tbl)
		},
	}, conn)
	for _, n := range neighbors {
		loop.SeedNeighbor(n)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return loop.Run()
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigCh:
			conn.Close()
		case <-ctx.Done():
		}
		return nil
	})

	if debugAddr != "" {
		g.Go(func() error {
			return hub.serve(ctx, debugAddr)
		})
	}

	return g.Wait()
}

// printTable implements the observable forwarding-table output: a
// header line followed by one "destHost,destPort nextHopHost,nextHopPort"
// line per non-self destination.
func printTable(self wire.Endpoint, tbl *spf.Table) {
	fmt.Println("dest next_hop")
	for _, e := range tbl.Entries() {
		if e.Dest == self {
			continue
		}
		fmt.Printf("%s %s\n", e.Dest.String(), e.NextHop.String())
	}
}

// debugHub streams the forwarding table as JSON to connected debug
// websocket clients on every rebuild. Entirely optional and additive:
// with no -debug-ws flag it is constructed but never serves a listener.
type debugHub struct {
	log      *slog.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func newDebugHub(log *slog.Logger) *debugHub {
	return &debugHub{
		log:     log.WithGroup("debugws"),
		clients: make(map[*websocket.Conn]struct{}),
	}
}

func (h *debugHub) serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/table", h.handleWS)
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	h.log.Info("debug websocket listening", "addr", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (h *debugHub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", "error", err)
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

type tableEntryJSON struct {
	Dest    string `json:"dest"`
	NextHop string `json:"next_hop"`
	Cost    int    `json:"cost"`
}

func (h *debugHub) broadcast(tbl *spf.Table) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}

	entries := tbl.Entries()
	out := make([]tableEntryJSON, len(entries))
	for i, e := range entries {
		out[i] = tableEntryJSON{Dest: e.Dest.String(), NextHop: e.NextHop.String(), Cost: e.Cost}
	}
	payload, err := json.Marshal(out)
	if err != nil {
		return
	}

	for c := range h.clients {
		if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
			c.Close()
			delete(h.clients, c)
		}
	}
}
