package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/matchday/internal/adapters/mq/queue"
	"github.com/okian/matchday/internal/adapters/mq/worker"
	"github.com/okian/matchday/internal/adapters/repository"
	"github.com/okian/matchday/internal/domain/formation"
	"github.com/okian/matchday/internal/domain/model"
	"github.com/okian/matchday/internal/domain/simulation"
	"github.com/okian/matchday/pkg/logger"
)

const (
	homeID = "home"
	awayID = "away"

	enqueueRetry = time.Millisecond
)

type batchOptions struct {
	matches         int
	workers         int
	queueSize       int
	overall         int
	opponentOverall int
	mode            string
	seed            int64
	json            bool
}

type summary struct {
	Matches      int           `json:"matches"`
	Failed       int           `json:"failed"`
	Wins         int           `json:"wins"`
	Draws        int           `json:"draws"`
	Losses       int           `json:"losses"`
	GoalsFor     int           `json:"goals_for"`
	GoalsAgainst int           `json:"goals_against"`
	MeanGoalDiff float64       `json:"mean_goal_diff"`
	HomeSkill    int           `json:"home_skill"`
	Elapsed      time.Duration `json:"elapsed_ns"`
}

// aggregator folds worker results into a summary. It is a worker.Sink.
type aggregator struct {
	mu  sync.Mutex
	sum summary
}

func (a *aggregator) add(_ context.Context, r worker.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sum.Matches++
	if r.Err != nil || r.Outcome == nil {
		a.sum.Failed++
		return
	}
	o := r.Outcome
	a.sum.GoalsFor += o.Side1Goals
	a.sum.GoalsAgainst += o.Side2Goals
	switch {
	case o.Side1Goals > o.Side2Goals:
		a.sum.Wins++
	case o.Side1Goals < o.Side2Goals:
		a.sum.Losses++
	default:
		a.sum.Draws++
	}
}

func (a *aggregator) result() summary {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := a.sum
	if played := s.Matches - s.Failed; played > 0 {
		s.MeanGoalDiff = float64(s.GoalsFor-s.GoalsAgainst) / float64(played)
	}
	return s
}

func newBatchCmd() *cobra.Command {
	var o batchOptions
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Simulate many matches through the worker pool and summarize them",
		Example: "  matchsim batch --matches 1000 --overall 80 --opponent-overall 70\n" +
			"  matchsim batch --mode friendly --json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			if !f.Changed("workers") {
				o.workers = cfg.WorkerCount
			}
			if !f.Changed("queue-size") {
				o.queueSize = cfg.JobQueueSize
			}
			if !f.Changed("seed") {
				o.seed = cfg.RNGSeed
			}
			sum, err := runBatch(cmd.Context(), o, logger.Get())
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), sum, o.json)
		},
	}
	f := cmd.Flags()
	f.IntVarP(&o.matches, "matches", "n", 1000, "number of matches to simulate")
	f.IntVarP(&o.workers, "workers", "w", 0, "worker goroutines (default from config)")
	f.IntVar(&o.queueSize, "queue-size", 0, "job queue capacity (default from config)")
	f.IntVar(&o.overall, "overall", 80, "overall rating of every home starter")
	f.IntVar(&o.opponentOverall, "opponent-overall", 70, "bot strength, or the away starters' rating")
	f.StringVarP(&o.mode, "mode", "m", string(model.ModeBot), "bot, friendly or ranked")
	f.Int64Var(&o.seed, "seed", 0, "RNG seed, 0 for random")
	f.BoolVar(&o.json, "json", false, "print the summary as JSON")
	return cmd
}

// runBatch plays o.matches jobs through a worker pool on an in-memory store.
func runBatch(ctx context.Context, o batchOptions, log logger.Logger) (summary, error) {
	if o.matches < 1 {
		return summary{}, errors.New("matches must be positive")
	}
	mode, err := model.ParseMode(o.mode)
	if err != nil {
		return summary{}, err
	}

	store := repository.NewMemoryStore(repository.WithLogger(log))
	defer func() { _ = store.Close() }()

	if err := seedManager(ctx, store, homeID, o.overall); err != nil {
		return summary{}, err
	}
	opponentID := ""
	if mode != model.ModeBot {
		if err := seedManager(ctx, store, awayID, o.opponentOverall); err != nil {
			return summary{}, err
		}
		opponentID = awayID
	}

	bot := float64(o.opponentOverall)
	genOpts := []simulation.Option{simulation.WithLogger(log), simulation.WithBotStrength(bot, bot)}
	if o.seed != 0 {
		genOpts = append(genOpts, simulation.WithSeed(uint64(o.seed)))
	}
	gen := simulation.New(store, genOpts...)

	q := queue.NewInMemoryQueue(queue.WithCapacity(o.queueSize))
	agg := &aggregator{}
	pool := worker.NewPool(o.workers, q, gen, agg.add, worker.WithLogger(log))

	start := time.Now()
	pool.Start(ctx)
	for i := 0; i < o.matches; i++ {
		if err := enqueue(ctx, q, queue.Job{RequesterID: homeID, OpponentID: opponentID, Mode: mode}); err != nil {
			_ = pool.Shutdown(context.WithoutCancel(ctx))
			return summary{}, err
		}
	}
	if err := pool.Drain(ctx); err != nil {
		return summary{}, err
	}

	sum := agg.result()
	sum.Elapsed = time.Since(start)
	if sum.HomeSkill, err = store.ManagerSkill(ctx, homeID); err != nil {
		return summary{}, err
	}
	return sum, nil
}

// enqueue retries while the queue is full.
func enqueue(ctx context.Context, q queue.Queue, j queue.Job) error {
	for {
		_, err := q.Enqueue(ctx, j)
		if !errors.Is(err, queue.ErrFull) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(enqueueRetry):
		}
	}
}

func seedManager(ctx context.Context, store repository.Store, id string, overall int) error {
	if err := store.UpsertClub(ctx, model.Club{OwnerID: id, Name: "FC " + id, Code: id, Formation: formation.Default}); err != nil {
		return err
	}
	slots := formation.Slots(formation.Default)
	starters := make([]model.RosterEntry, 0, len(slots))
	for i, sl := range slots {
		starters = append(starters, model.RosterEntry{
			Name:          fmt.Sprintf("%s %d", id, i+1),
			PositionShort: sl.Position,
			Overall:       overall,
		})
	}
	n, err := store.SetLineup(ctx, id, starters)
	if err != nil {
		return err
	}
	if n != len(starters) {
		return fmt.Errorf("overall %d rejected for %s", overall, id)
	}
	return nil
}

func printSummary(w io.Writer, s summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	_, err := fmt.Fprintf(w,
		"matches=%d failed=%d W/D/L=%d/%d/%d goals=%d:%d mean_diff=%+.3f home_skill=%d took=%s\n",
		s.Matches, s.Failed, s.Wins, s.Draws, s.Losses,
		s.GoalsFor, s.GoalsAgainst, s.MeanGoalDiff, s.HomeSkill, s.Elapsed.Round(time.Millisecond),
	)
	return err
}
