/*
 * Copyright 2018 The OpenWallet Authors
 * This file is part of the OpenWallet library.
 *
 * The OpenWallet library is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Lesser General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * The OpenWallet library is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Lesser General Public License for more details.
 */

package stress

import (
	"fmt"
	"time"

	"github.com/blocktree/exception-adapter/exception"
	"github.com/pkg/errors"
)

const (
	DefaultThreads    = 50
	DefaultIterations = 10
)

//Runner 多线程压力测试，每个线程独立执行相同的场景
type Runner struct {
	Threads     int // workers per iteration
	Iterations  int
	Concurrency int // max workers running at once, 0 means all
	Scenario    *Scenario

	tags   []*exception.Tag
	bySym  map[string]*exception.Tag
	tokens chan struct{} //工作令牌
}

// Result is what one worker logged in one iteration.
type Result struct {
	Iteration int
	Worker    int
	Log       []string
	Leaked    int    // frames still linked when the worker finished
	Panic     string // set if the worker died of a non-exception panic
}

// NewRunner declares one tag per scenario symbol, shared by every worker.
func NewRunner(sc *Scenario, threads, iterations, concurrency int) (*Runner, error) {
	if sc == nil {
		sc = DefaultScenario()
	}
	if err := sc.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid scenario")
	}
	if threads <= 0 || iterations <= 0 || concurrency < 0 {
		return nil, errors.Errorf("invalid runner size: threads=%d iterations=%d concurrency=%d",
			threads, iterations, concurrency)
	}

	exception.Init()

	r := &Runner{
		Threads:     threads,
		Iterations:  iterations,
		Concurrency: concurrency,
		Scenario:    sc,
		bySym:       make(map[string]*exception.Tag, len(sc.Tags)),
	}
	for _, sym := range sc.Tags {
		tag := exception.Declare(sym + "Exception")
		r.tags = append(r.tags, tag)
		r.bySym[sym] = tag
	}
	if concurrency > 0 {
		r.tokens = make(chan struct{}, concurrency)
	}
	return r, nil
}

// Tag returns the tag declared for a scenario symbol.
func (r *Runner) Tag(sym string) *exception.Tag {
	return r.bySym[sym]
}

// Run executes every iteration and verifies each worker's log.
func (r *Runner) Run() *Report {
	report := newReport(r)
	log := exception.Logger()
	log.Info("stress run %s: %d threads x %d iterations, %d steps",
		report.RunID, r.Threads, r.Iterations, len(r.Scenario.Steps))

	start := time.Now()
	for it := 0; it < r.Iterations; it++ {
		report.Results = append(report.Results, r.runIteration(it)...)
	}
	report.Elapsed = time.Since(start)
	report.Err = report.verify(r.Scenario.Expected())

	if report.Err != nil {
		log.Error("stress run %s failed: %v", report.RunID, report.Err)
	} else {
		log.Info("stress run %s passed in %v", report.RunID, report.Elapsed)
	}
	return report
}

// runIteration starts every worker and collects their results.
func (r *Runner) runIteration(iteration int) []Result {
	var (
		producer   = make(chan Result)
		start      = make(chan struct{})
		shouldDone = r.Threads
		results    = make([]Result, 0, r.Threads)
	)

	//生产线程
	go func() {
		for id := 0; id < r.Threads; id++ {
			if r.tokens != nil {
				r.tokens <- struct{}{}
			}
			go func(worker int) {
				if r.tokens == nil {
					<-start
				}
				producer <- r.work(iteration, worker)
				if r.tokens != nil {
					<-r.tokens
				}
			}(id)
		}
		close(start)
	}()

	//消费
	for done := 0; done < shouldDone; done++ {
		results = append(results, <-producer)
	}
	return results
}

// work runs the whole scenario on the calling goroutine.
func (r *Runner) work(iteration, worker int) (res Result) {
	res = Result{Iteration: iteration, Worker: worker}
	defer func() {
		if p := recover(); p != nil {
			res.Panic = fmt.Sprint(p)
		}
		res.Leaked = exception.Depth()
	}()

	for _, step := range r.Scenario.Steps {
		r.runStep(step, &res.Log)
	}
	return res
}

// runStep runs one step inside a guard that records what escapes it.
func (r *Runner) runStep(step Step, log *[]string) {
	guard := exception.Block{
		Try: func() {
			r.block(step, log).Do()
		},
	}
	for i, tag := range r.tags {
		sym := r.Scenario.Tags[i]
		guard.Catches = append(guard.Catches, exception.Clause{
			Tag:    tag,
			Handle: func(*exception.Frame) { *log = append(*log, propagatedEntry(sym)) },
		})
	}
	guard.Do()
}

func (r *Runner) block(step Step, log *[]string) *exception.Block {
	b := exception.Try(func() {
		for _, sym := range step.Throws {
			exception.Throwf(r.bySym[sym], "%s begin", sym)
		}
	})
	for _, sym := range step.Catches {
		sym := sym
		b.Catch(r.bySym[sym], func(*exception.Frame) {
			*log = append(*log, catchEntry(sym))
		})
	}
	if step.Finally {
		b.Final(func() { *log = append(*log, finallyEntry) })
	}
	return b
}
