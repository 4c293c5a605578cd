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
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Gauge represent a single gauge variable.
type Gauge struct {
	g prometheus.Gauge
}

// MakeGauge creates a gauge with the provided name and description,
// registered with the default registry.
func MakeGauge(metric MetricName) *Gauge {
	return MakeGaugeIn(DefaultRegistry(), metric)
}

// MakeGaugeIn is MakeGauge for a specific registry.
func MakeGaugeIn(reg *Registry, metric MetricName) *Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: metric.Name,
		Help: metric.Description,
	})
	return &Gauge{g: reg.register(g).(prometheus.Gauge)}
}

// Set sets the gauge to x
func (gauge *Gauge) Set(x uint64) {
	gauge.g.Set(float64(x))
}

// GetUint64Value returns the current value of the gauge
func (gauge *Gauge) GetUint64Value() uint64 {
	return uint64(readValue(gauge.g))
}

func readValue(m prometheus.Metric) float64 {
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		return 0
	}
	switch {
	case out.Counter != nil:
		return out.Counter.GetValue()
	case out.Gauge != nil:
		return out.Gauge.GetValue()
	}
	return 0
}
