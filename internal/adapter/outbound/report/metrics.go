package report

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/certward/certward/internal/domain/cert"
)

// writeMetrics renders the run's aggregates in the Prometheus text exposition
// format, suitable for a node_exporter textfile collector. A batch job has no
// endpoint to scrape, so the registry is built, gathered, and encoded once.
func writeMetrics(path string, result cert.BatchResult) error {
	reg := prometheus.NewRegistry()

	records := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "certward",
		Name:      "records_total",
		Help:      "Number of entitlement records processed in the last run",
	})
	decisions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "certward",
		Name:      "decisions_total",
		Help:      "Decisions per outcome in the last run",
	}, []string{"outcome"})
	automation := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "certward",
		Name:      "automation_ratio",
		Help:      "Share of records auto-decided (approve or revoke) in the last run",
	})
	duration := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "certward",
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the last evaluation run",
	})
	reg.MustRegister(records, decisions, automation, duration)

	records.Set(float64(result.Total))
	decisions.WithLabelValues("approve").Set(float64(result.Counts.Approve))
	decisions.WithLabelValues("revoke").Set(float64(result.Counts.Revoke))
	decisions.WithLabelValues("flag").Set(float64(result.Counts.Flag))
	automation.Set(result.AutomationRate)
	duration.Set(result.Duration.Seconds())

	var families []*dto.MetricFamily
	families, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
