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
	"io/ioutil"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

//Step 一个 try 块：依次抛出 Throws，按顺序捕获 Catches
type Step struct {
	Throws  []string
	Catches []string
	Finally bool
}

// Scenario is the sequence of try-blocks every worker runs.
type Scenario struct {
	Tags  []string
	Steps []Step
}

// DefaultScenario is the classic per-thread sequence: catch A, catch B, then
// throw A, B, C and D in one block where only A is ever delivered.
func DefaultScenario() *Scenario {
	return &Scenario{
		Tags: []string{"A", "B", "C", "D"},
		Steps: []Step{
			{Throws: []string{"A"}, Catches: []string{"A"}},
			{Throws: []string{"B"}, Catches: []string{"B"}},
			{Throws: []string{"A", "B", "C", "D"}, Catches: []string{"A", "B", "C", "D"}},
		},
	}
}

// LoadScenario reads a JSON scenario file.
func LoadScenario(fileName string) (*Scenario, error) {
	data, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrapf(err, "read scenario %s", fileName)
	}
	return ParseScenario(data)
}

// ParseScenario decodes
//
//	{"tags":["A","B"],"steps":[{"throws":["A"],"catches":["A","B"],"finally":true}]}
//
// "tags" may be omitted; it then defaults to every symbol used, in order of
// first appearance.
func ParseScenario(data []byte) (*Scenario, error) {
	if !gjson.Valid(string(data)) {
		return nil, errors.New("scenario is not valid JSON")
	}
	root := gjson.ParseBytes(data)

	steps := root.Get("steps")
	if !steps.IsArray() {
		return nil, errors.New("scenario has no steps array")
	}

	sc := &Scenario{}
	for _, tag := range root.Get("tags").Array() {
		sc.Tags = append(sc.Tags, tag.String())
	}
	for i, s := range steps.Array() {
		if !s.IsObject() {
			return nil, errors.Errorf("step %d is not an object", i)
		}
		sc.Steps = append(sc.Steps, Step{
			Throws:  stringArray(s.Get("throws")),
			Catches: stringArray(s.Get("catches")),
			Finally: s.Get("finally").Bool(),
		})
	}

	if len(sc.Tags) == 0 {
		sc.Tags = sc.symbols()
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Validate checks that every symbol a step uses is a declared tag.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return errors.New("scenario has no steps")
	}
	known := make(map[string]bool, len(sc.Tags))
	for _, t := range sc.Tags {
		if t == "" {
			return errors.New("scenario declares an empty tag")
		}
		if known[t] {
			return errors.Errorf("tag %s declared twice", t)
		}
		known[t] = true
	}
	for i, step := range sc.Steps {
		for _, sym := range append(append([]string{}, step.Throws...), step.Catches...) {
			if !known[sym] {
				return errors.Errorf("step %d uses undeclared tag %s", i, sym)
			}
		}
	}
	return nil
}

// Expected returns the log a worker writes for one step: the local catch of
// the first throw, then finally, then the outer guard's record if the
// exception escaped the step.
func (step Step) Expected() []string {
	var log []string
	if len(step.Throws) == 0 {
		if step.Finally {
			log = append(log, finallyEntry)
		}
		return log
	}

	first := step.Throws[0]
	caught := false
	for _, c := range step.Catches {
		if c == first {
			caught = true
			break
		}
	}
	if caught {
		log = append(log, catchEntry(first))
	}
	if step.Finally {
		log = append(log, finallyEntry)
	}
	if !caught {
		log = append(log, propagatedEntry(first))
	}
	return log
}

// Expected returns the whole log of one worker.
func (sc *Scenario) Expected() []string {
	var log []string
	for _, step := range sc.Steps {
		log = append(log, step.Expected()...)
	}
	return log
}

func (sc *Scenario) symbols() []string {
	var (
		out  []string
		seen = map[string]bool{}
	)
	for _, step := range sc.Steps {
		for _, sym := range append(append([]string{}, step.Throws...), step.Catches...) {
			if !seen[sym] {
				seen[sym] = true
				out = append(out, sym)
			}
		}
	}
	return out
}

func stringArray(r gjson.Result) []string {
	var out []string
	for _, v := range r.Array() {
		out = append(out, v.String())
	}
	return out
}

const finallyEntry = "finally"

func catchEntry(sym string) string { return "catch " + sym }

func propagatedEntry(sym string) string { return "propagated " + sym }
