// Copyright 2026 The Parallelproof Authors
// This file is part of Parallelproof.
//
// Parallelproof is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Parallelproof is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Parallelproof. If not, see <http://www.gnu.org/licenses/>.

package metrics_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parallelproof/node/metrics"
)

func TestPrometheusSinkExposesCounters(t *testing.T) {
	sink := metrics.New()
	sink.SlotFinalized(3)
	sink.SlotFinalized(3)
	sink.DowntimeSlotsInterpolated(4)
	sink.SelectorCacheHit()
	sink.SelectorCacheMiss()
	sink.CheckpointTaken()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	sink.Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, "parallelproof_finalstate_slots_finalized_total 2"))
	require.True(t, strings.Contains(body, "parallelproof_finalstate_downtime_slots_interpolated_total 4"))
}

func TestNoopSinkDoesNotPanic(t *testing.T) {
	var sink metrics.Sink = metrics.Noop{}
	sink.SlotFinalized(1)
	sink.DowntimeSlotsInterpolated(1)
	sink.SelectorCacheHit()
	sink.SelectorCacheMiss()
	sink.CheckpointTaken()
}
