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
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/algorand/go-abciledger/test/partitiontest"
)

func TestMetricCounter(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	reg := MakeRegistry()
	counter := MakeCounterIn(reg, MetricName{Name: "metric_test_counter", Description: "counter test"}, "op")
	for i := 0; i < 20; i++ {
		counter.Inc(map[string]string{"op": fmt.Sprintf("op%d", i%4)})
	}
	require.Equal(t, uint64(5), counter.GetUint64ValueForLabels(map[string]string{"op": "op1"}))
	require.Equal(t, uint64(0), counter.GetUint64ValueForLabels(map[string]string{"no": "such"}))

	// registering the same name again reuses the collector
	again := MakeCounterIn(reg, MetricName{Name: "metric_test_counter", Description: "counter test"}, "op")
	again.AddUint64(3, map[string]string{"op": "op1"})
	require.Equal(t, uint64(8), counter.GetUint64ValueForLabels(map[string]string{"op": "op1"}))
}

func TestMetricGauge(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	reg := MakeRegistry()
	gauge := MakeGaugeIn(reg, MetricName{Name: "metric_test_gauge", Description: "gauge test"})
	gauge.Set(17)
	require.Equal(t, uint64(17), gauge.GetUint64Value())
	gauge.Set(3)
	require.Equal(t, uint64(3), gauge.GetUint64Value())
}

func TestHandlerExposesMetrics(t *testing.T) {
	partitiontest.PartitionTest(t)
	t.Parallel()

	reg := MakeRegistry()
	MakeCounterIn(reg, MetricName{Name: "metric_test_exposed", Description: "exposition test"}).Inc(nil)

	srv := httptest.NewServer(MakeHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + MetricsPath)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, strings.Contains(string(body), "metric_test_exposed 1"))

	resp2, err := http.Get(srv.URL + "/other")
	require.NoError(t, err)
	resp2.Body.Close()
	require.Equal(t, http.StatusNotFound, resp2.StatusCode)
}

func TestMetricServiceLifecycle(t *testing.T) {
	partitiontest.PartitionTest(t)

	reg := MakeRegistry()
	svc := MakeMetricService(&ServiceConfig{ListenAddress: "127.0.0.1:0", Registry: reg})
	require.ErrorIs(t, svc.Shutdown(), ErrMetricServiceNotRunning)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, svc.Start(ctx))
	require.ErrorIs(t, svc.Start(ctx), ErrMetricServiceAlreadyRunning)

	resp, err := http.Get("http://" + svc.Addr().String() + MetricsPath)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, svc.Shutdown())
}
