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
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the collectors exported on one endpoint.
type Registry struct {
	reg *prometheus.Registry
}

var defaultRegistry = MakeRegistry()

// MakeRegistry creates a new, empty metrics registry.
func MakeRegistry() *Registry {
	return &Registry{reg: prometheus.NewRegistry()}
}

// DefaultRegistry returns the registry every Make* function registers with.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// register adds c, returning the collector already registered under the same
// name when there is one.
func (r *Registry) register(c prometheus.Collector) prometheus.Collector {
	err := r.reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector
	}
	panic(err)
}

// Deregister removes c from the registry.
func (r *Registry) Deregister(c prometheus.Collector) bool {
	return r.reg.Unregister(c)
}

// Gatherer exposes the registry to prometheus handlers.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}
