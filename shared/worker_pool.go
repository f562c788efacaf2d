package shared

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// TaskResult carries the outcome of one worker task. A failed task records
// its error without affecting sibling tasks.
type TaskResult[R any] struct {
	Value R
	Err   error
}

// RunKeyed runs fn over the items concurrently with at most width workers and
// collects a mapping from item key to result. Items failing the optional
// condition predicate are skipped entirely and do not appear in the result
// map. A task error is captured in its TaskResult; it never aborts the batch.
func RunKeyed[K comparable, V, R any](
	width int,
	items map[K]V,
	condition func(key K, item V) bool,
	fn func(key K, item V) (R, error),
) map[K]TaskResult[R] {
	if width <= 0 {
		width = 1
	}

	type keyedResult struct {
		key    K
		result TaskResult[R]
	}

	semaphore := make(chan struct{}, width)
	resultChannel := make(chan keyedResult, len(items))

	var waitGroup sync.WaitGroup
	scheduled := 0

	for key, item := range items {
		if condition != nil && !condition(key, item) {
			logrus.WithFields(logrus.Fields{
				"component": "WorkerPool",
				"key":       key,
			}).Debug("Skipping item failing worker condition")
			continue
		}

		scheduled++
		waitGroup.Add(1)
		go func(key K, item V) {
			defer waitGroup.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			value, err := fn(key, item)
			resultChannel <- keyedResult{key: key, result: TaskResult[R]{Value: value, Err: err}}
		}(key, item)
	}

	waitGroup.Wait()
	close(resultChannel)

	results := make(map[K]TaskResult[R], scheduled)
	for entry := range resultChannel {
		results[entry.key] = entry.result
	}

	return results
}
