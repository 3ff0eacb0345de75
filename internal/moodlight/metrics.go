package moodlight

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/saaga0h/jeeves-moodlight/internal/mood"
)

// Metrics holds the agent's prometheus collectors
type Metrics struct {
	observations *prometheus.CounterVec
	noFace       prometheus.Counter
	commands     *prometheus.CounterVec
	ticks        prometheus.Counter
	publishes    *prometheus.CounterVec
	output       *prometheus.GaugeVec
	brightness   prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		observations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodlight_observations_total",
				Help: "Classifier results fed to the engine, by dominant emotion",
			},
			[]string{"emotion"},
		),
		noFace: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moodlight_no_face_total",
			Help: "Classifier results without a detected face",
		}),
		commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodlight_commands_total",
				Help: "Control commands received, by command",
			},
			[]string{"command"},
		),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "moodlight_ticks_total",
			Help: "Transition ticks performed",
		}),
		publishes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "moodlight_publishes_total",
				Help: "MQTT messages published, by kind",
			},
			[]string{"kind"},
		),
		output: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "moodlight_output_channel",
				Help: "Current output color channel value (0-255)",
			},
			[]string{"channel"},
		),
		brightness: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "moodlight_brightness",
			Help: "Effective brightness (0-1)",
		}),
	}

	if reg != nil {
		reg.MustRegister(m.observations, m.noFace, m.commands, m.ticks, m.publishes, m.output, m.brightness)
	}

	return m
}

func (m *Metrics) observeOutput(c mood.Color, brightness float64) {
	m.output.WithLabelValues("r").Set(float64(c.R))
	m.output.WithLabelValues("g").Set(float64(c.G))
	m.output.WithLabelValues("b").Set(float64(c.B))
	m.brightness.Set(brightness)
}
