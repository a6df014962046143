// Package stream serves world states as newline-delimited JSON over plain
// TCP, for viewers that do not speak websocket.
package stream

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"ereea.space/internal/transport/hub"
)

const writeTimeout = 5 * time.Second

type Server struct {
	hub *hub.Hub
	log *log.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

func NewServer(h *hub.Hub, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{hub: h, log: logger, conns: map[net.Conn]struct{}{}}
}

// Serve accepts viewers on ln until ctx is done. Open connections are
// closed on return.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = ln.Close()
		s.closeAll()
	}()

	var wg sync.WaitGroup
	defer wg.Wait()
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.handle(ctx, conn)
		}()
	}
}

func (s *Server) track(c net.Conn, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.conns {
		_ = c.Close()
	}
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	s.track(conn, true)
	defer s.track(conn, false)
	defer conn.Close()

	o, err := s.hub.Join(ctx)
	if err != nil {
		return
	}
	defer s.hub.Leave(o.ID)
	s.log.Printf("viewer %s connected from %s", o.ID, conn.RemoteAddr())

	// Anything the viewer sends is ignored; EOF means it went away.
	gone := make(chan struct{})
	go func() {
		_, _ = io.Copy(io.Discard, conn)
		close(gone)
	}()

	for {
		select {
		case <-gone:
			s.log.Printf("viewer %s disconnected", o.ID)
			return
		case b, ok := <-o.Out():
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if _, err := conn.Write(append(b[:len(b):len(b)], '\n')); err != nil {
				s.log.Printf("viewer %s pruned: %v", o.ID, err)
				return
			}
		}
	}
}
