// Copyright 2025 CacheFS Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package workerpool

import (
	"context"
	"fmt"
	"sync"
)

// Per-worker queue depth. Priority work is expected to be rare and short;
// normal (speculative) work may back up further before Schedule blocks.
const (
	priorityQueueFactor = 200
	normalQueueFactor   = 5000
)

// staticWorkerPool runs a fixed number of workers over two queues. Workers
// always drain the priority queue before picking up normal work.
type staticWorkerPool struct {
	priorityWorker uint32
	normalWorker   uint32

	priorityCh chan Task
	normalCh   chan Task

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStaticWorkerPool creates a pool with the given worker counts. At least
// one worker is required.
func NewStaticWorkerPool(priorityWorker, normalWorker uint32) (*staticWorkerPool, error) {
	if priorityWorker+normalWorker == 0 {
		return nil, fmt.Errorf("worker pool requires at least one worker")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &staticWorkerPool{
		priorityWorker: priorityWorker,
		normalWorker:   normalWorker,
		priorityCh:     make(chan Task, int(priorityWorker)*priorityQueueFactor),
		normalCh:       make(chan Task, int(normalWorker)*normalQueueFactor),
		ctx:            ctx,
		cancel:         cancel,
	}, nil
}

func (p *staticWorkerPool) Start() {
	for i := uint32(0); i < p.priorityWorker; i++ {
		p.wg.Add(1)
		go p.worker(true)
	}
	for i := uint32(0); i < p.normalWorker; i++ {
		p.wg.Add(1)
		go p.worker(false)
	}
}

func (p *staticWorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *staticWorkerPool) Schedule(urgent bool, task Task) {
	if urgent {
		select {
		case p.priorityCh <- task:
		case <-p.ctx.Done():
		}
		return
	}
	select {
	case p.normalCh <- task:
	case <-p.ctx.Done():
	}
}

// worker runs until the pool stops. Priority-only workers never touch the
// normal queue, keeping urgent latency bounded under speculative backlog.
func (p *staticWorkerPool) worker(priorityOnly bool) {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.priorityCh:
			task.Execute()
			continue
		default:
		}

		if priorityOnly {
			select {
			case task := <-p.priorityCh:
				task.Execute()
			case <-p.ctx.Done():
				return
			}
			continue
		}

		select {
		case task := <-p.priorityCh:
			task.Execute()
		case task := <-p.normalCh:
			task.Execute()
		case <-p.ctx.Done():
			return
		}
	}
}
