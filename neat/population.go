package neat

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Population is the controller that owns the generation lifecycle:
// Idle -> Speciating -> Evaluating -> Ranking -> Reproducing -> Idle.
// It is driven by a single goroutine; only the evaluator runs concurrently.
type Population struct {
	Config      *Config
	State       *GenerationState
	History     *InnovationHistory
	RunID       string
	BestGenome  *Genome // Copy of the best genome by raw fitness found so far
	BestFitness float64

	evaluator Evaluator
	builder   Builder
	reporters ReporterSet
	extra     []Reporter
	logger    *logrus.Logger
	phase     Phase
	seed      int64
}

// Option configures a Population.
type Option func(*Population)

// WithBuilder sets how networks are constructed from genomes. Defaults to DefaultBuilder.
func WithBuilder(b Builder) Option {
	return func(p *Population) { p.builder = b }
}

// WithLogger sets the logger used for progress and warnings.
func WithLogger(l *logrus.Logger) Option {
	return func(p *Population) { p.logger = l }
}

// WithReporter registers an additional reporter.
func WithReporter(r Reporter) Option {
	return func(p *Population) { p.extra = append(p.extra, r) }
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) Option {
	return func(p *Population) { p.RunID = id }
}

// NewPopulation validates the config and creates generation 1.
func NewPopulation(config *Config, evaluator Evaluator, opts ...Option) (*Population, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if evaluator == nil {
		return nil, errors.New("evaluator is required")
	}

	p := &Population{
		Config:      config,
		RunID:       uuid.NewString(),
		BestFitness: math.Inf(-1),
		evaluator:   evaluator,
		builder:     DefaultBuilder,
		logger:      logrus.New(),
		seed:        config.Neat.Seed,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.seed == 0 {
		p.seed = time.Now().UnixNano()
	}
	p.reporters.Add(NewLogReporter(p.logger))
	for _, r := range p.extra {
		p.reporters.Add(r)
	}

	if config.Reproduction.EliteSelection == EliteLiteral {
		p.logger.Warn("elite_selection=literal carries the lowest ranked networks into the next generation")
	}

	p.History = NewInnovationHistory(config.Genome.NumInputs, config.Genome.NumOutputs)
	p.State = NewGenerationState(&config.Genome, p.History, config.Neat.PopSize, p.rand(PhaseIdle))
	return p, nil
}

// Phase returns the current lifecycle phase. After a failed generation it
// stays on the phase that failed.
func (p *Population) Phase() Phase {
	return p.phase
}

// Solved reports whether the best raw fitness seen has reached
// fitness_threshold. It is always false with no_fitness_termination set.
func (p *Population) Solved() bool {
	return !p.Config.Neat.NoFitnessTermination && p.BestGenome != nil &&
		p.BestFitness >= p.Config.Neat.FitnessThreshold
}

// Run executes up to n generations, stopping at the first error or as soon
// as the population is Solved.
func (p *Population) Run(ctx context.Context, n int) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.RunGeneration(ctx); err != nil {
			return err
		}
		if p.Solved() {
			p.logger.WithFields(logrus.Fields{
				"generation": p.State.Generation - 1,
				"fitness":    p.BestFitness,
			}).Info("Fitness threshold reached")
			return nil
		}
	}
	return nil
}

// RunGeneration executes one generation. Steps are never retried: any error
// leaves the population out of the idle phase and later calls return ErrPhase.
func (p *Population) RunGeneration(ctx context.Context) error {
	if p.phase != PhaseIdle {
		return fmt.Errorf("%w: phase %s", ErrPhase, p.phase)
	}
	st := p.State
	gen := st.Generation
	start := time.Now()
	p.reporters.StartGeneration(gen)

	p.phase = PhaseSpeciating
	Speciate(st, p.Config, p.rand(PhaseSpeciating))
	p.logger.WithFields(logrus.Fields{
		"generation": gen,
		"population": st.PopSize,
		"species":    len(st.Species),
	}).Debug("Speciated")

	p.phase = PhaseEvaluating
	raw, err := p.evaluate(ctx)
	if err != nil {
		return fmt.Errorf("evaluation failed in generation %d: %w", gen, err)
	}

	p.phase = PhaseRanking
	p.trackBest(raw)
	if err := Rank(st); err != nil {
		return fmt.Errorf("ranking failed in generation %d: %w", gen, err)
	}
	summary := p.summarize(gen, raw)
	p.evaluator.Cleanup(ctx)
	p.reporters.PostEvaluate(summary)

	p.phase = PhaseReproducing
	result, err := Reproduce(st, p.Config, p.rand(PhaseReproducing))
	if err != nil {
		return fmt.Errorf("reproduction failed in generation %d: %w", gen, err)
	}
	if result.UniformFallback {
		p.logger.WithField("generation", gen).Warn("Total shared fitness is not positive, offspring split evenly across species")
	}

	if len(st.Genomes) == 0 {
		p.reporters.Extinction(gen)
		if !p.Config.Neat.ResetOnExtinction {
			return fmt.Errorf("%w in generation %d", ErrExtinct, gen)
		}
		p.logger.WithField("generation", gen).Warn("Resetting population due to extinction")
		st.seed(&p.Config.Genome, p.History, p.Config.Neat.PopSize, p.rand(PhaseIdle))
	}

	summary.Elites = result.Elites
	summary.NextPopulation = st.PopSize
	summary.Duration = time.Since(start)
	if err := p.reporters.EndGeneration(ctx, summary); err != nil {
		return fmt.Errorf("reporting failed in generation %d: %w", gen, err)
	}

	p.phase = PhaseIdle
	return nil
}

// evaluate builds one network per genome, hands each to the evaluator and
// waits for all of them. It returns the raw fitness per GenomeID.
func (p *Population) evaluate(ctx context.Context) ([]float64, error) {
	st := p.State
	st.Networks = make(map[GenomeID]Network, len(st.Genomes))
	for i, g := range st.Genomes {
		id := GenomeID(i)
		net, err := p.builder.Build(id, g)
		if err != nil {
			return nil, fmt.Errorf("failed to build network for genome %d: %w", id, err)
		}
		st.Networks[id] = net
	}

	completions := make([]Completion, 0, len(st.Genomes))
	for i, g := range st.Genomes {
		completions = append(completions, p.evaluator.Begin(ctx, st.Networks[GenomeID(i)], g))
	}
	if err := Join(ctx, completions); err != nil {
		// Release the agents of the aborted cohort; ctx is most likely done.
		p.evaluator.Cleanup(context.WithoutCancel(ctx))
		return nil, err
	}

	raw := make([]float64, len(st.Genomes))
	for i := range raw {
		raw[i] = st.Networks[GenomeID(i)].Fitness()
	}
	return raw, nil
}

func (p *Population) trackBest(raw []float64) {
	for i, f := range raw {
		if f > p.BestFitness {
			p.BestFitness = f
			p.BestGenome = p.State.Genomes[i].Copy()
			p.logger.WithFields(logrus.Fields{
				"generation": p.State.Generation,
				"fitness":    f,
			}).Debug("New best genome found")
		}
	}
}

func (p *Population) summarize(gen int, raw []float64) GenerationSummary {
	st := p.State
	s := GenerationSummary{
		RunID:        p.RunID,
		Generation:   gen,
		Population:   st.PopSize,
		Species:      len(st.Species),
		SpeciesSizes: make([]int, len(st.Species)),
		BestFitness:  MaxFloat(raw),
		WorstFitness: MinFloat(raw),
		MeanFitness:  Mean(raw),
		StdevFitness: Stdev(raw),
	}
	for i, sp := range st.Species {
		s.SpeciesSizes[i] = sp.MemberCount()
		s.SharedTotal += sp.TotalFitness()
	}
	return s
}

// rand returns the random stream for one phase of the current generation.
// Each phase draws from its own stream so that changing how many numbers one
// phase consumes does not shift the others.
func (p *Population) rand(phase Phase) *rand.Rand {
	gen := 0
	if p.State != nil {
		gen = p.State.Generation
	}
	return rand.New(rand.NewSource(p.seed + int64(gen)*1_000_003 + int64(phase)*7_919))
}
