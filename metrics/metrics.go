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

// Package metrics exposes the node's finalize/downtime/selector counters as
// Prometheus metrics, following spec.md §2's metrics-sink component.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sink is the metrics-emitting side the core calls into. It is deliberately
// narrow: the core never depends on Prometheus types directly.
type Sink interface {
	SlotFinalized(periodsPerCycle uint64)
	DowntimeSlotsInterpolated(n int)
	SelectorCacheHit()
	SelectorCacheMiss()
	CheckpointTaken()
}

// Prometheus is the concrete Sink backed by client_golang.
type Prometheus struct {
	registry *prometheus.Registry

	slotsFinalized        prometheus.Counter
	downtimeInterpolated  prometheus.Counter
	selectorCacheHits     prometheus.Counter
	selectorCacheMisses   prometheus.Counter
	checkpointsTaken      prometheus.Counter
}

var _ Sink = (*Prometheus)(nil)

// New builds a Prometheus sink registered on a fresh registry.
func New() *Prometheus {
	reg := prometheus.NewRegistry()
	p := &Prometheus{
		registry: reg,
		slotsFinalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parallelproof",
			Subsystem: "finalstate",
			Name:      "slots_finalized_total",
			Help:      "Number of slots successfully finalized.",
		}),
		downtimeInterpolated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parallelproof",
			Subsystem: "finalstate",
			Name:      "downtime_slots_interpolated_total",
			Help:      "Number of slots reconstructed by downtime interpolation.",
		}),
		selectorCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parallelproof",
			Subsystem: "selector",
			Name:      "draw_cache_hits_total",
			Help:      "Number of draw-cache hits in the selector.",
		}),
		selectorCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parallelproof",
			Subsystem: "selector",
			Name:      "draw_cache_misses_total",
			Help:      "Number of draw-cache misses in the selector.",
		}),
		checkpointsTaken: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "parallelproof",
			Subsystem: "finalstate",
			Name:      "checkpoints_taken_total",
			Help:      "Number of on-disk checkpoints taken.",
		}),
	}
	reg.MustRegister(
		p.slotsFinalized,
		p.downtimeInterpolated,
		p.selectorCacheHits,
		p.selectorCacheMisses,
		p.checkpointsTaken,
	)
	return p
}

func (p *Prometheus) SlotFinalized(uint64)             { p.slotsFinalized.Inc() }
func (p *Prometheus) DowntimeSlotsInterpolated(n int)   { p.downtimeInterpolated.Add(float64(n)) }
func (p *Prometheus) SelectorCacheHit()                 { p.selectorCacheHits.Inc() }
func (p *Prometheus) SelectorCacheMiss()                { p.selectorCacheMisses.Inc() }
func (p *Prometheus) CheckpointTaken()                  { p.checkpointsTaken.Inc() }

// Handler returns the HTTP handler that serves this sink's registry in the
// Prometheus exposition format, mounted by the driver at the configured
// metrics_listen_addr.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Noop is a Sink that discards everything, used by tests and by any
// component exercising the core without a metrics server attached.
type Noop struct{}

var _ Sink = Noop{}

func (Noop) SlotFinalized(uint64)           {}
func (Noop) DowntimeSlotsInterpolated(int)  {}
func (Noop) SelectorCacheHit()              {}
func (Noop) SelectorCacheMiss()             {}
func (Noop) CheckpointTaken()               {}
