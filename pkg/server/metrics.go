// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/walteh/clusterrc/pkg/status"
)

// Metrics holds the Prometheus metrics for served mode.
type Metrics struct {
	UploadsTotal   *prometheus.CounterVec // clusterrc_uploads_total{result}
	UploadDuration prometheus.Histogram   // clusterrc_upload_duration_seconds
	UploadBytes    prometheus.Counter     // clusterrc_upload_bytes_total
	FilesTotal     *prometheus.CounterVec // clusterrc_files_total{status}
	InFlight       prometheus.Gauge       // clusterrc_uploads_in_flight
}

// NewMetrics registers the served mode metrics with registry.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Metrics{
		UploadsTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "clusterrc_uploads_total",
			Help: "Total uploads by result",
		}, []string{"result"}),

		UploadDuration: promauto.With(registry).NewHistogram(prometheus.HistogramOpts{
			Name:    "clusterrc_upload_duration_seconds",
			Help:    "Time spent processing an upload",
			Buckets: prometheus.DefBuckets,
		}),

		UploadBytes: promauto.With(registry).NewCounter(prometheus.CounterOpts{
			Name: "clusterrc_upload_bytes_total",
			Help: "Total bytes of uploaded archives",
		}),

		FilesTotal: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "clusterrc_files_total",
			Help: "Files seen in uploaded archives by status",
		}, []string{"status"}),

		InFlight: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
			Name: "clusterrc_uploads_in_flight",
			Help: "Uploads currently being processed",
		}),
	}
}

// RecordUpload records the outcome of one upload.
func (m *Metrics) RecordUpload(result string, seconds float64, report *status.Report) {
	m.UploadsTotal.WithLabelValues(result).Inc()
	m.UploadDuration.Observe(seconds)
	if report == nil {
		return
	}
	for _, f := range report.Files {
		m.FilesTotal.WithLabelValues(f.Status.String()).Inc()
	}
}
