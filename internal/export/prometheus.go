package export

import (
	"io"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/verte-zerg/keyload/internal/layout"
	"github.com/verte-zerg/keyload/internal/model"
)

// WritePrometheus renders snap in the Prometheus text exposition format.
func WritePrometheus(w io.Writer, snap model.Snapshot) error {
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	load := family("keyload_finger_load", "Accumulated movement load per finger.")
	presses := family("keyload_finger_presses", "Key presses per finger.")
	total := family("keyload_total_load", "Accumulated movement load per layout.")
	hands := family("keyload_hand_changes", "Consecutive keys served by different hands.")

	for _, name := range names {
		t := snap[name]
		for i, f := range layout.Fingers() {
			var l, p int
			if f.Hand() == layout.LeftHand {
				l, p = t.Left[i%5], t.LeftPress[i%5]
			} else {
				l, p = t.Right[i%5], t.RightPress[i%5]
			}
			load.Metric = append(load.Metric, gauge(float64(l), "layout", name, "finger", f.String()))
			presses.Metric = append(presses.Metric, gauge(float64(p), "layout", name, "finger", f.String()))
		}
		total.Metric = append(total.Metric, gauge(float64(t.Load()), "layout", name))
		hands.Metric = append(hands.Metric, gauge(float64(t.TwoHanded), "layout", name))
	}

	for _, mf := range []*dto.MetricFamily{load, presses, total, hands} {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

func family(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: strPtr(name),
		Help: strPtr(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

func gauge(v float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: floatPtr(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{Name: strPtr(labels[i]), Value: strPtr(labels[i+1])})
	}
	return m
}

func strPtr(s string) *string { return &s }

func floatPtr(v float64) *float64 { return &v }
