package neat

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsReporter exports generation progress as Prometheus metrics.
type MetricsReporter struct {
	generation  prometheus.Gauge
	population  prometheus.Gauge
	species     prometheus.Gauge
	fitness     *prometheus.GaugeVec
	generations prometheus.Counter
	extinctions prometheus.Counter
}

// NewMetricsReporter creates the collectors and registers them with reg.
func NewMetricsReporter(reg prometheus.Registerer) (*MetricsReporter, error) {
	m := &MetricsReporter{
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neat_generation", Help: "Index of the last evaluated generation.",
		}),
		population: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neat_population_size", Help: "Realised population size of the next generation.",
		}),
		species: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "neat_species", Help: "Number of species after speciation.",
		}),
		fitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "neat_fitness", Help: "Raw fitness statistics of the last evaluated generation.",
		}, []string{"stat"}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neat_generations_total", Help: "Completed generations.",
		}),
		extinctions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "neat_extinctions_total", Help: "Generations whose reproduction produced no genomes.",
		}),
	}
	for _, c := range []prometheus.Collector{m.generation, m.population, m.species, m.fitness, m.generations, m.extinctions} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

func (m *MetricsReporter) StartGeneration(int) {}

func (m *MetricsReporter) PostEvaluate(s GenerationSummary) {
	m.generation.Set(float64(s.Generation))
	m.species.Set(float64(s.Species))
	m.fitness.WithLabelValues("best").Set(s.BestFitness)
	m.fitness.WithLabelValues("worst").Set(s.WorstFitness)
	m.fitness.WithLabelValues("mean").Set(s.MeanFitness)
}

func (m *MetricsReporter) EndGeneration(_ context.Context, s GenerationSummary) error {
	m.population.Set(float64(s.NextPopulation))
	m.generations.Inc()
	return nil
}

func (m *MetricsReporter) Extinction(int) {
	m.extinctions.Inc()
}
