// Copyright (C) 2019-2026 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/algorand/go-deadlock"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ErrMetricServiceAlreadyRunning Generated when we call Start and the metric service is already running
	ErrMetricServiceAlreadyRunning = errors.New("MetricService is already running")
	// ErrMetricServiceNotRunning is not currently running
	ErrMetricServiceNotRunning = errors.New("MetricService not running")
)

// MetricsPath is where the prometheus exposition is served
const MetricsPath = "/metrics"

// ServiceConfig configures a MetricService.
type ServiceConfig struct {
	// ListenAddress is the address the /metrics endpoint listens on
	ListenAddress string
	// Registry defaults to DefaultRegistry
	Registry *Registry
}

// MetricService serves a registry over HTTP.
type MetricService struct {
	config ServiceConfig

	runningMu deadlock.Mutex
	running   bool
	server    *http.Server
	listener  net.Listener
}

// MakeMetricService creates a new metrics server at the given endpoint.
func MakeMetricService(config *ServiceConfig) *MetricService {
	server := &MetricService{config: *config}
	if server.config.Registry == nil {
		server.config.Registry = DefaultRegistry()
	}
	return server
}

// MakeHandler returns a router serving reg under MetricsPath.
func MakeHandler(reg *Registry) http.Handler {
	router := mux.NewRouter()
	router.Handle(MetricsPath, promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{})).Methods("GET")
	return router
}

// Start binds the listen address and serves in the background until ctx is
// done or Shutdown is called.
func (server *MetricService) Start(ctx context.Context) error {
	server.runningMu.Lock()
	defer server.runningMu.Unlock()
	if server.running {
		return ErrMetricServiceAlreadyRunning
	}

	ln, err := net.Listen("tcp", server.config.ListenAddress)
	if err != nil {
		return err
	}
	server.listener = ln
	server.server = &http.Server{
		Handler:           MakeHandler(server.config.Registry),
		ReadHeaderTimeout: 10 * time.Second,
	}
	server.running = true

	srv := server.server
	go srv.Serve(ln)
	go func() {
		<-ctx.Done()
		server.Shutdown()
	}()
	return nil
}

// Addr returns the bound listen address, once started.
func (server *MetricService) Addr() net.Addr {
	server.runningMu.Lock()
	defer server.runningMu.Unlock()
	if server.listener == nil {
		return nil
	}
	return server.listener.Addr()
}

// Shutdown stops the metric server
func (server *MetricService) Shutdown() error {
	server.runningMu.Lock()
	defer server.runningMu.Unlock()
	if !server.running {
		return ErrMetricServiceNotRunning
	}
	server.running = false
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.server.Shutdown(ctx)
}
