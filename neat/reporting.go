package neat

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// GenerationSummary describes one completed generation. Fitness statistics
// are over raw (unshared) fitness.
type GenerationSummary struct {
	RunID          string
	Generation     int
	Population     int
	Species        int
	SpeciesSizes   []int
	BestFitness    float64
	WorstFitness   float64
	MeanFitness    float64
	StdevFitness   float64
	SharedTotal    float64 // sum of species shared fitness
	Elites         int
	NextPopulation int // realised size of the following generation; 0 until reproduction
	Duration       time.Duration
}

// Reporter observes the generation lifecycle.
type Reporter interface {
	StartGeneration(generation int)
	// PostEvaluate is called after ranking, before reproduction.
	PostEvaluate(summary GenerationSummary)
	EndGeneration(ctx context.Context, summary GenerationSummary) error
	Extinction(generation int)
}

// ReporterSet fans events out to its reporters in registration order.
type ReporterSet struct {
	reporters []Reporter
}

// Add registers a reporter.
func (rs *ReporterSet) Add(r Reporter) {
	rs.reporters = append(rs.reporters, r)
}

func (rs *ReporterSet) StartGeneration(generation int) {
	for _, r := range rs.reporters {
		r.StartGeneration(generation)
	}
}

func (rs *ReporterSet) PostEvaluate(summary GenerationSummary) {
	for _, r := range rs.reporters {
		r.PostEvaluate(summary)
	}
}

// EndGeneration notifies every reporter and joins their errors.
func (rs *ReporterSet) EndGeneration(ctx context.Context, summary GenerationSummary) error {
	var errs []error
	for _, r := range rs.reporters {
		if err := r.EndGeneration(ctx, summary); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (rs *ReporterSet) Extinction(generation int) {
	for _, r := range rs.reporters {
		r.Extinction(generation)
	}
}

// LogReporter writes generation progress to a logrus logger.
type LogReporter struct {
	Logger *logrus.Logger
}

// NewLogReporter returns a LogReporter, creating a logger when nil.
func NewLogReporter(logger *logrus.Logger) *LogReporter {
	if logger == nil {
		logger = logrus.New()
	}
	return &LogReporter{Logger: logger}
}

func (l *LogReporter) StartGeneration(generation int) {
	l.Logger.WithField("generation", generation).Debug("Starting generation")
}

func (l *LogReporter) PostEvaluate(s GenerationSummary) {
	l.Logger.WithFields(logrus.Fields{
		"generation": s.Generation,
		"population": s.Population,
		"species":    s.Species,
		"best":       s.BestFitness,
		"worst":      s.WorstFitness,
		"mean":       s.MeanFitness,
		"stdev":      s.StdevFitness,
	}).Info("Generation evaluated")
}

func (l *LogReporter) EndGeneration(_ context.Context, s GenerationSummary) error {
	l.Logger.WithFields(logrus.Fields{
		"generation":      s.Generation,
		"elites":          s.Elites,
		"next_population": s.NextPopulation,
		"duration":        s.Duration,
	}).Info("Generation finished")
	return nil
}

func (l *LogReporter) Extinction(generation int) {
	l.Logger.WithField("generation", generation).Warn("Population extinct")
}
