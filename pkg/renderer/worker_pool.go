package renderer

import (
	"context"
	"runtime"
	"sync"
)

// Task is one unit of parallel work: a row of pixels or a (light, object) photon batch.
// Run returns how many items it completed (pixels, photons).
type Task struct {
	ID  int // For progress and error reporting
	Run func(ctx context.Context) (int, error)
}

// TaskResult contains the result from running a task
type TaskResult struct {
	TaskID int
	Count  int
	Error  error
}

// WorkerPool runs tasks on a fixed set of goroutines. A pool serves one render
// phase: Stop waits for every submitted task, which makes it the phase barrier.
type WorkerPool struct {
	taskQueue   chan Task
	resultQueue chan TaskResult
	workers     []*Worker
	numWorkers  int
	wg          sync.WaitGroup
	ctx         context.Context
}

// Worker handles individual tasks
type Worker struct {
	ID          int
	taskQueue   chan Task
	resultQueue chan TaskResult
	ctx         context.Context
}

// NewWorkerPool creates a worker pool with room for maxTasks queued tasks and results
func NewWorkerPool(ctx context.Context, numWorkers, maxTasks int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan Task, maxTasks),       // Buffer for all tasks of the phase
		resultQueue: make(chan TaskResult, maxTasks), // Buffer for all results
		numWorkers:  numWorkers,
		ctx:         ctx,
	}

	for i := 0; i < numWorkers; i++ {
		wp.workers = append(wp.workers, &Worker{
			ID:          i,
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
			ctx:         ctx,
		})
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.wg.Add(1)
		go worker.run(&wp.wg)
	}
}

// Stop closes the task queue and waits for every worker to finish
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	wp.wg.Wait()        // Wait for workers to finish
	close(wp.resultQueue)
}

// SubmitTask submits a task to the worker pool
func (wp *WorkerPool) SubmitTask(task Task) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed task result
func (wp *WorkerPool) GetResult() (TaskResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop. Once the context is cancelled remaining tasks are
// drained without running.
func (w *Worker) run(wg *sync.WaitGroup) {
	defer wg.Done()

	for task := range w.taskQueue {
		if err := w.ctx.Err(); err != nil {
			w.resultQueue <- TaskResult{TaskID: task.ID, Error: err}
			continue
		}

		count, err := task.Run(w.ctx)
		w.resultQueue <- TaskResult{
			TaskID: task.ID,
			Count:  count,
			Error:  err,
		}
	}
}

// runTasks runs tasks on a fresh pool, calling onResult from this goroutine for
// each result in completion order. It returns after every task has finished;
// the first task error is returned.
func runTasks(ctx context.Context, workers int, tasks []Task, onResult func(TaskResult)) error {
	pool := NewWorkerPool(ctx, workers, len(tasks))
	pool.Start()

	for _, task := range tasks {
		pool.SubmitTask(task)
	}

	var firstErr error
	for range tasks {
		result, ok := pool.GetResult()
		if !ok {
			break
		}
		if result.Error != nil && firstErr == nil {
			firstErr = result.Error
		}
		if onResult != nil {
			onResult(result)
		}
	}

	pool.Stop()
	return firstErr
}
