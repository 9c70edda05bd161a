/*
   trustcore - OpenPGP trust-infrastructure core
   Copyright (C) 2012-2025  Hockeypuck Contributors

   This program is free software: you can redistribute it and/or modify
   it under the terms of the GNU Affero General Public License as published by
   the Free Software Foundation, version 3.

   This program is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
   GNU Affero General Public License for more details.

   You should have received a copy of the GNU Affero General Public License
   along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package dirmngr

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"gopkg.in/tomb.v2"
)

// ErrStopping is returned by Wait after a clean Stop, letting the cmd
// bootstrap tell a deliberate shutdown apart from a crash.
var ErrStopping = errors.New("dirmngr-core: stopping")

// Server owns the listen socket and the tomb-gated accept loop that
// hands each connection to a Dispatcher, in the same lifecycle shape as
// the teacher's tomb-gated background senders: Start launches the
// goroutine, Stop requests it to unwind, Wait blocks for completion.
type Server struct {
	settings   *Settings
	dispatcher *Dispatcher
	listener   net.Listener
	metricsSrv *http.Server
	t          tomb.Tomb
}

// NewServer binds the listen socket configured in settings and wires a
// Dispatcher against collab. The socket is not accepted on until Start.
func NewServer(settings *Settings, collab Collaborators) (*Server, error) {
	_ = os.Remove(settings.ListenSocket)
	l, err := net.Listen("unix", settings.ListenSocket)
	if err != nil {
		return nil, err
	}
	return &Server{
		settings:   settings,
		dispatcher: NewDispatcher(settings, collab),
		listener:   l,
	}, nil
}

// Start launches the accept loop, and the metrics HTTP endpoint if
// enabled, as tomb-owned goroutines.
func (s *Server) Start() {
	s.t.Go(s.acceptLoop)
	if s.settings.Metrics != nil && s.settings.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		s.metricsSrv = &http.Server{Addr: s.settings.Metrics.Bind, Handler: mux}
		s.t.Go(func() error {
			if err := s.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})
	}
}

func (s *Server) acceptLoop() error {
	go func() {
		<-s.t.Dying()
		s.listener.Close()
		if s.metricsSrv != nil {
			s.metricsSrv.Shutdown(context.Background())
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.t.Dying():
				return nil
			default:
				return err
			}
		}
		s.t.Go(func() error {
			defer conn.Close()
			if err := s.dispatcher.HandleConn(context.Background(), conn); err != nil {
				log.WithError(err).Warn("dirmngr-core connection ended with error")
			}
			return nil
		})
	}
}

// Stop requests the accept loop and every in-flight connection handler
// to unwind.
func (s *Server) Stop() {
	s.t.Kill(ErrStopping)
}

// LogRotate is a no-op placeholder for SIGUSR1-driven log rotation; the
// logging sink is external to this core (spec §1).
func (s *Server) LogRotate() {}

// Wait blocks until every tomb-owned goroutine has returned, yielding
// ErrStopping after a deliberate Stop.
func (s *Server) Wait() error {
	err := s.t.Wait()
	if err != nil && errors.Is(err, ErrStopping) {
		return ErrStopping
	}
	return err
}
