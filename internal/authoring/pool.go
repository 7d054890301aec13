package authoring

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nibzard/roadmap-go/internal/agents"
	"github.com/nibzard/roadmap-go/internal/prompts"
	"github.com/nibzard/roadmap-go/internal/templates"
)

// BatchResult is the outcome of one checklist generation in a batch.
type BatchResult struct {
	TaskID   string
	Path     string
	Err      error
	Duration time.Duration
}

// BatchOptions controls checklist fan-out.
type BatchOptions struct {
	// Workers bounds concurrent agent runs. Zero or negative means one
	// worker per CPU.
	Workers int

	// Interval is the minimum spacing between agent starts across all
	// workers. Zero disables pacing.
	Interval time.Duration

	// FailFast cancels remaining work after the first failure.
	FailFast bool
}

// GenerateAll produces checklists for every task, writing each to its
// file under workDir. Results cover every task that started, sorted by
// task id; the returned error joins the per-task failures. Tasks
// cancelled before starting get no result.
func (c *Checklister) GenerateAll(ctx context.Context, tasks []prompts.Task, workDir string, opts BatchOptions) ([]BatchResult, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var limiter *rate.Limiter
	if opts.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.Interval), 1)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []BatchResult
		errs    []error
	)
	sem := make(chan struct{}, workers)

	for _, task := range tasks {
		task := task
		wg.Add(1)
		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return
				}
			}
			// The semaphore can win the select against a finished
			// cancellation, so re-check before spending an agent run.
			select {
			case <-ctx.Done():
				return
			default:
			}

			start := time.Now()
			path, err := c.generateOne(ctx, task, workDir)
			result := BatchResult{TaskID: task.ID, Path: path, Err: err, Duration: time.Since(start)}

			mu.Lock()
			defer mu.Unlock()
			results = append(results, result)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", task.ID, err))
				if opts.FailFast {
					cancel()
				}
			}
		}()
	}

	wg.Wait()

	sort.Slice(results, func(i, j int) bool {
		return templates.CompareIDs(results[i].TaskID, results[j].TaskID)
	})
	return results, errors.Join(errs...)
}

// generateOne runs one checklist generation and writes the file. The
// shared log writer is wrapped per task so interleaved output stays
// attributable.
func (c *Checklister) generateOne(ctx context.Context, task prompts.Task, workDir string) (string, error) {
	worker := c
	if c.Log != nil {
		worker = &Checklister{
			Agent:    c.Agent,
			Renderer: c.Renderer,
			Log:      agents.NewTaskLogWriter(task.ID, c.Log),
			Now:      c.Now,
		}
	}

	cl, err := worker.Generate(ctx, task)
	if err != nil {
		return "", err
	}
	path := Path(workDir, task.ID)
	if err := Write(path, Markdown(task, cl)); err != nil {
		return "", err
	}
	return path, nil
}
