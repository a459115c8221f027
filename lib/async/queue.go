package async

import "sync"

// taskQueue is a FIFO of pending tasks guarded by a single mutex. Workers sleep
// on cond until a task arrives or stop is requested.
type taskQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   []func()
	stopped bool
}

func newTaskQueue() *taskQueue {
	q := new(taskQueue)
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push appends task and wakes one sleeping worker. It reports false without
// enqueuing once stop has been requested.
func (q *taskQueue) push(task func()) (int, bool) {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return len(q.tasks), false
	}
	q.tasks = append(q.tasks, task)
	depth := len(q.tasks)
	q.mu.Unlock()
	q.cond.Signal()
	return depth, true
}

// pop blocks until a task is available and removes it from the head. It
// reports false only when stop was requested and the queue is drained.
func (q *taskQueue) pop() (func(), int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.tasks) == 0 && !q.stopped {
		q.cond.Wait()
	}
	if len(q.tasks) == 0 {
		return nil, 0, false
	}
	task := q.tasks[0]
	q.tasks[0] = nil
	q.tasks = q.tasks[1:]
	if len(q.tasks) == 0 {
		q.tasks = nil
	}
	return task, len(q.tasks), true
}

// stop refuses further pushes and wakes every worker. It reports whether this
// call performed the transition.
func (q *taskQueue) stop() bool {
	q.mu.Lock()
	if q.stopped {
		q.mu.Unlock()
		return false
	}
	q.stopped = true
	q.mu.Unlock()
	q.cond.Broadcast()
	return true
}

func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

func (q *taskQueue) isStopped() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stopped
}
