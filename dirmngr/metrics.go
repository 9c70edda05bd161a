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
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsSettings controls whether the /metrics endpoint is exposed.
type MetricsSettings struct {
	Enabled bool   `toml:"enabled"`
	Bind    string `toml:"bind"`
}

// DefaultMetricsSettings matches the teacher's metrics sub-config default:
// disabled unless a bind address is configured.
func DefaultMetricsSettings() *MetricsSettings {
	return &MetricsSettings{Enabled: false, Bind: ":9120"}
}

// buckets extends the default histogram bucket set with tail buckets
// suited to slow keyserver fetches and CRL reloads, matching the teacher's
// server/metrics.go choice.
var buckets = append(prometheus.DefBuckets, 30, 60, 300, 600, 1800, 3600)

var coreMetrics = struct {
	commandsProcessed *prometheus.CounterVec
	commandDuration   *prometheus.HistogramVec
	inquiriesIssued   *prometheus.CounterVec
	crlDecisions      *prometheus.CounterVec
	ocspDecisions     *prometheus.CounterVec
	keyserverActions  *prometheus.CounterVec
}{
	commandsProcessed: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dirmngr_core",
			Name:      "commands_processed_total",
			Help:      "Commands processed since startup, by name and outcome",
		},
		[]string{"command", "outcome"},
	),
	commandDuration: prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dirmngr_core",
			Name:      "command_duration_seconds",
			Help:      "Time spent processing a command, including any inquiry round trips",
			Buckets:   buckets,
		},
		[]string{"command"},
	),
	inquiriesIssued: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dirmngr_core",
			Name:      "inquiries_issued_total",
			Help:      "Inquiries issued to the peer, by keyword",
		},
		[]string{"keyword"},
	),
	crlDecisions: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dirmngr_core",
			Name:      "crl_decisions_total",
			Help:      "CRL cache verdicts, by verdict",
		},
		[]string{"verdict"},
	),
	ocspDecisions: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dirmngr_core",
			Name:      "ocsp_decisions_total",
			Help:      "OCSP validator verdicts, by verdict",
		},
		[]string{"verdict"},
	),
	keyserverActions: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dirmngr_core",
			Name:      "keyserver_actions_total",
			Help:      "Keyserver actions, by action and outcome",
		},
		[]string{"action", "outcome"},
	),
}

var metricsRegister sync.Once

// registerMetrics registers the package's collectors with the default
// prometheus registry. It is idempotent and safe to call from multiple
// dispatcher instances in the same process.
func registerMetrics() {
	metricsRegister.Do(func() {
		prometheus.MustRegister(coreMetrics.commandsProcessed)
		prometheus.MustRegister(coreMetrics.commandDuration)
		prometheus.MustRegister(coreMetrics.inquiriesIssued)
		prometheus.MustRegister(coreMetrics.crlDecisions)
		prometheus.MustRegister(coreMetrics.ocspDecisions)
		prometheus.MustRegister(coreMetrics.keyserverActions)
	})
}

func recordCommand(command, outcome string, duration time.Duration) {
	coreMetrics.commandsProcessed.WithLabelValues(command, outcome).Inc()
	coreMetrics.commandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

func recordInquiry(keyword string) {
	coreMetrics.inquiriesIssued.WithLabelValues(keyword).Inc()
}

func recordCRLDecision(verdict string) {
	coreMetrics.crlDecisions.WithLabelValues(verdict).Inc()
}

func recordOCSPDecision(verdict string) {
	coreMetrics.ocspDecisions.WithLabelValues(verdict).Inc()
}

func recordKeyserverAction(action, outcome string) {
	coreMetrics.keyserverActions.WithLabelValues(action, outcome).Inc()
}
