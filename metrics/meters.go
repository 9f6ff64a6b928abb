// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package metrics is the meter facade used by the staking engine. Meters are
// no-ops until InitializePrometheusMetrics is called, so packages declare
// them as lazy package variables and resolve them on first use.
package metrics

import (
	"net/http"
	"sync"
)

var backend Metrics = noop{}

// Metrics creates meters by name and exposes them over HTTP.
type Metrics interface {
	GetOrCreateCountMeter(name string) CountMeter
	GetOrCreateCountVecMeter(name string, labels []string) CountVecMeter
	GetOrCreateGaugeMeter(name string) GaugeMeter
	GetOrCreateHistogramMeter(name string, buckets []int64) HistogramMeter
	GetOrCreateHandler() http.Handler
}

type (
	// CountMeter only goes up.
	CountMeter interface{ Add(int64) }
	// CountVecMeter is a counter partitioned by labels.
	CountVecMeter interface {
		AddWithLabel(int64, map[string]string)
	}
	GaugeMeter interface {
		Add(int64)
		Set(int64)
	}
	HistogramMeter interface{ Observe(int64) }
)

var (
	// BucketHTTPReqs buckets api request durations in milliseconds.
	BucketHTTPReqs = []int64{0, 1, 2, 5, 10, 20, 50, 100, 250, 500, 1000}
	// BucketStepGas buckets the gas reserved by one execution step.
	BucketStepGas = []int64{0, 25_000, 50_000, 100_000, 250_000, 500_000, 1_000_000, 2_500_000, 5_000_000}
)

// HTTPHandler serves the current meters, nil while metrics are disabled.
func HTTPHandler() http.Handler { return backend.GetOrCreateHandler() }

func Counter(name string) CountMeter { return backend.GetOrCreateCountMeter(name) }

func CounterVec(name string, labels []string) CountVecMeter {
	return backend.GetOrCreateCountVecMeter(name, labels)
}

func Gauge(name string) GaugeMeter { return backend.GetOrCreateGaugeMeter(name) }

func Histogram(name string, buckets []int64) HistogramMeter {
	return backend.GetOrCreateHistogramMeter(name, buckets)
}

// LazyLoad defers f to the first call, after the backend has been chosen.
func LazyLoad[T any](f func() T) func() T {
	var (
		once   sync.Once
		result T
	)
	return func() T {
		once.Do(func() { result = f() })
		return result
	}
}

func LazyLoadCounter(name string) func() CountMeter {
	return LazyLoad(func() CountMeter { return Counter(name) })
}

func LazyLoadCounterVec(name string, labels []string) func() CountVecMeter {
	return LazyLoad(func() CountVecMeter { return CounterVec(name, labels) })
}

func LazyLoadGauge(name string) func() GaugeMeter {
	return LazyLoad(func() GaugeMeter { return Gauge(name) })
}

func LazyLoadHistogram(name string, buckets []int64) func() HistogramMeter {
	return LazyLoad(func() HistogramMeter { return Histogram(name, buckets) })
}

// noop discards every measurement.
type noop struct{}

func (noop) GetOrCreateCountMeter(string) CountMeter                 { return noop{} }
func (noop) GetOrCreateCountVecMeter(string, []string) CountVecMeter { return noop{} }
func (noop) GetOrCreateGaugeMeter(string) GaugeMeter                 { return noop{} }
func (noop) GetOrCreateHistogramMeter(string, []int64) HistogramMeter {
	return noop{}
}
func (noop) GetOrCreateHandler() http.Handler { return nil }

func (noop) Add(int64)                             {}
func (noop) AddWithLabel(int64, map[string]string) {}
func (noop) Set(int64)                             {}
func (noop) Observe(int64)                         {}
