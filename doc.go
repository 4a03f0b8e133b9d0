// Package neattrainer is a population-based NEAT (NeuroEvolution of Augmenting
// Topologies) trainer.
//
// The neat package holds the evolutionary loop: speciation by compatibility
// distance, explicit fitness sharing, proportional offspring allocation,
// crossover and mutation. Fitness evaluation is delegated to an Evaluator,
// which may run agents concurrently; the trainer waits for every agent to
// finish before ranking.
//
// Basic usage:
//
//	config, err := neat.LoadConfig("path/to/config.ini")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	eval := neat.FuncEvaluator{Fn: func(ctx context.Context, net neat.Network, g *neat.Genome) float64 {
//		return score(g)
//	}}
//	pop, err := neat.NewPopulation(config, eval)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//
//	if err := pop.Run(context.Background(), 100); err != nil {
//		log.Fatalf("Error running generations: %v", err)
//	}
//
// Subpackages: neat/nn turns genomes into runnable feed-forward networks and
// neat/history records generation summaries in SQLite.
package neattrainer
