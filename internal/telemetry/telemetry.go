// Package telemetry publishes drivetrain state as Prometheus gauges on a
// private registry.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/san-kum/motionctl/internal/dynamo"
)

const namespace = "motionctl"

// Exporter is a dynamo.Observer. Every tick overwrites the gauges, so a
// scrape or textfile shows the latest sample.
type Exporter struct {
	reg *prometheus.Registry

	Distance      prometheus.Gauge
	Velocity      prometheus.Gauge
	Heading       prometheus.Gauge
	Height        prometheus.Gauge
	Output        *prometheus.GaugeVec
	TrackingError prometheus.Gauge
	PIDTerm       *prometheus.GaugeVec
	State         *prometheus.GaugeVec
	Ticks         prometheus.Counter
	Saturated     prometheus.Counter
	Transitions   prometheus.Counter
	LoopDuration  prometheus.Histogram
	RunMetric     *prometheus.GaugeVec
	Completed     prometheus.Gauge

	lastState string
}

func gauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
}

func New() *Exporter {
	e := &Exporter{
		reg:           prometheus.NewRegistry(),
		Distance:      gauge("distance_meters", "Odometry distance reading"),
		Velocity:      gauge("velocity_meters_per_second", "Odometry velocity reading"),
		Heading:       gauge("heading_radians", "Gyro heading, counter-clockwise positive"),
		Height:        gauge("elevator_height", "Elevator height in winch units"),
		TrackingError: gauge("tracking_error", "Setpoint minus measurement of the active task"),
		Completed:     gauge("routine_completed", "1 once the routine reached DONE"),
		Output: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "output",
			Help:      "Commanded actuator output in [-1, 1]",
		}, []string{"actuator"}),
		PIDTerm: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pidf_term",
			Help:      "Contribution of each PIDF term to the active task output",
		}, []string{"term"}),
		State: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routine_state",
			Help:      "1 for the active routine state",
		}, []string{"state"}),
		RunMetric: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_metric",
			Help:      "Summary metrics of the finished run",
		}, []string{"metric"}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Control ticks observed",
		}),
		Saturated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "saturated_ticks_total",
			Help:      "Ticks on which the active controller output was clamped",
		}),
		Transitions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "state_transitions_total",
			Help:      "Routine state transitions",
		}),
		LoopDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "loop_duration_seconds",
			Help:      "Wall time spent in one control tick",
			Buckets:   []float64{0.0005, 0.001, 0.002, 0.005, 0.01, 0.02, 0.05},
		}),
	}

	e.reg.MustRegister(
		e.Distance, e.Velocity, e.Heading, e.Height,
		e.Output, e.TrackingError, e.PIDTerm, e.State,
		e.Ticks, e.Saturated, e.Transitions, e.LoopDuration,
		e.RunMetric, e.Completed,
	)
	return e
}

func (e *Exporter) Registry() *prometheus.Registry { return e.reg }

func (e *Exporter) OnTick(s dynamo.Sample) {
	e.Ticks.Inc()
	e.Distance.Set(s.Distance)
	e.Velocity.Set(s.Velocity)
	e.Heading.Set(s.Heading)
	e.Height.Set(s.Height)
	e.TrackingError.Set(s.TrackingError())

	e.Output.WithLabelValues("forward").Set(s.Forward)
	e.Output.WithLabelValues("rotation").Set(s.Rotation)
	e.Output.WithLabelValues("winch").Set(s.Winch)
	e.Output.WithLabelValues("roller").Set(s.Roller)

	e.PIDTerm.WithLabelValues("p").Set(s.Proportional)
	e.PIDTerm.WithLabelValues("i").Set(s.Integral)
	e.PIDTerm.WithLabelValues("d").Set(s.Derivative)
	e.PIDTerm.WithLabelValues("ff").Set(s.Feedforward)
	if s.Saturated {
		e.Saturated.Inc()
	}

	if s.State != e.lastState {
		if e.lastState != "" {
			e.State.WithLabelValues(e.lastState).Set(0)
			e.Transitions.Inc()
		}
		e.State.WithLabelValues(s.State).Set(1)
		e.lastState = s.State
	}
}

// ObserveLoop records the wall time of one tick of a real-time loop.
func (e *Exporter) ObserveLoop(d time.Duration) {
	e.LoopDuration.Observe(d.Seconds())
}

// ObserveResult publishes the summary of a finished run.
func (e *Exporter) ObserveResult(r *dynamo.Result) {
	for name, v := range r.Metrics {
		e.RunMetric.WithLabelValues(name).Set(v)
	}
	if r.Completed {
		e.Completed.Set(1)
	} else {
		e.Completed.Set(0)
	}
}

// WriteTextfile writes the registry for the node exporter textfile collector.
func (e *Exporter) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, e.reg)
}

func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.reg, promhttp.HandlerOpts{})
}
