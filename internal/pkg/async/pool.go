package async

import (
	"context"
	"sync"
)

// Task is one named unit of a fan-out batch. Execute receives the
// batch context so a cancelled batch stops its queries instead of
// running them to completion.
type Task struct {
	Name    string
	Execute func(ctx context.Context) (interface{}, error)
}

// Result pairs a task's name with its outcome.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool fans a batch of tasks out over a fixed number of workers and
// gathers the results by name. A Pool is single use: build one per
// batch.
type Pool struct {
	workers int
	tasks   chan Task
	results chan Result
}

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		tasks:   make(chan Task),
		results: make(chan Result),
	}
}

func (p *Pool) worker(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			data, err := task.Execute(ctx)
			select {
			case p.results <- Result{Name: task.Name, Data: data, Err: err}:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// Execute runs every task and returns the results keyed by task name.
// When ctx is cancelled before the batch finishes, the map holds only
// the results gathered so far; callers must treat missing keys as an
// aborted batch.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go p.worker(ctx, &wg)
	}

	go func() {
		defer close(p.tasks)
		for _, task := range tasks {
			select {
			case p.tasks <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make(map[string]Result, len(tasks))
	for range tasks {
		select {
		case result := <-p.results:
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}

	wg.Wait()
	close(p.results)
	return results
}
