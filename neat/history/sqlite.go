// Package history persists per-generation summaries so runs can be compared
// after the fact.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/baldhumanity/neat-trainer/neat"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder stores GenerationSummary rows in a SQLite database. It
// implements neat.Reporter, recording on EndGeneration.
type SQLiteRecorder struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteRecorder(path string) *SQLiteRecorder {
	return &SQLiteRecorder{path: path}
}

func (r *SQLiteRecorder) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.path == "" {
		return errors.New("sqlite path is required")
	}
	if r.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", r.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	r.db = db
	return nil
}

// Record inserts one summary. Recording the same run and generation twice
// overwrites the earlier row. NaN fitness statistics are stored as NULL.
func (r *SQLiteRecorder) Record(ctx context.Context, s neat.GenerationSummary) error {
	db, err := r.getDB()
	if err != nil {
		return err
	}

	sizes, err := json.Marshal(s.SpeciesSizes)
	if err != nil {
		return fmt.Errorf("encode species sizes: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (
			run_id, generation, population, species, species_sizes,
			best_fitness, worst_fitness, mean_fitness, stdev_fitness,
			shared_total, elites, next_population, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			population = excluded.population,
			species = excluded.species,
			species_sizes = excluded.species_sizes,
			best_fitness = excluded.best_fitness,
			worst_fitness = excluded.worst_fitness,
			mean_fitness = excluded.mean_fitness,
			stdev_fitness = excluded.stdev_fitness,
			shared_total = excluded.shared_total,
			elites = excluded.elites,
			next_population = excluded.next_population,
			duration_ns = excluded.duration_ns
	`, s.RunID, s.Generation, s.Population, s.Species, string(sizes),
		nullFloat(s.BestFitness), nullFloat(s.WorstFitness), nullFloat(s.MeanFitness), nullFloat(s.StdevFitness),
		nullFloat(s.SharedTotal), s.Elites, s.NextPopulation, s.Duration.Nanoseconds())
	if err != nil {
		return fmt.Errorf("record generation %d: %w", s.Generation, err)
	}
	return nil
}

// List returns the summaries of a run ordered by generation.
func (r *SQLiteRecorder) List(ctx context.Context, runID string) ([]neat.GenerationSummary, error) {
	db, err := r.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, population, species, species_sizes,
			best_fitness, worst_fitness, mean_fitness, stdev_fitness,
			shared_total, elites, next_population, duration_ns
		FROM generations
		WHERE run_id = ?
		ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []neat.GenerationSummary
	for rows.Next() {
		s := neat.GenerationSummary{RunID: runID}
		var sizes string
		var durationNS int64
		var best, worst, mean, stdev, shared sql.NullFloat64
		if err := rows.Scan(&s.Generation, &s.Population, &s.Species, &sizes,
			&best, &worst, &mean, &stdev,
			&shared, &s.Elites, &s.NextPopulation, &durationNS); err != nil {
			return nil, err
		}
		s.BestFitness = floatOrNaN(best)
		s.WorstFitness = floatOrNaN(worst)
		s.MeanFitness = floatOrNaN(mean)
		s.StdevFitness = floatOrNaN(stdev)
		s.SharedTotal = floatOrNaN(shared)
		if err := json.Unmarshal([]byte(sizes), &s.SpeciesSizes); err != nil {
			return nil, fmt.Errorf("decode species sizes for generation %d: %w", s.Generation, err)
		}
		s.Duration = time.Duration(durationNS)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *SQLiteRecorder) StartGeneration(int) {}

func (r *SQLiteRecorder) PostEvaluate(neat.GenerationSummary) {}

func (r *SQLiteRecorder) EndGeneration(ctx context.Context, s neat.GenerationSummary) error {
	return r.Record(ctx, s)
}

func (r *SQLiteRecorder) Extinction(int) {}

func (r *SQLiteRecorder) getDB() (*sql.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.db == nil {
		return nil, errors.New("recorder is not initialized")
	}
	return r.db, nil
}

// nullFloat maps NaN to NULL, which is how SQLite stores it anyway.
func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: !math.IsNaN(f)}
}

func floatOrNaN(f sql.NullFloat64) float64 {
	if !f.Valid {
		return math.NaN()
	}
	return f.Float64
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generations (
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			population INTEGER NOT NULL,
			species INTEGER NOT NULL,
			species_sizes TEXT NOT NULL,
			best_fitness REAL,
			worst_fitness REAL,
			mean_fitness REAL,
			stdev_fitness REAL,
			shared_total REAL,
			elites INTEGER NOT NULL,
			next_population INTEGER NOT NULL,
			duration_ns INTEGER NOT NULL,
			PRIMARY KEY (run_id, generation)
		);
	`)
	return err
}
