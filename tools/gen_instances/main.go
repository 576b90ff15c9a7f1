// Package main provides instance generation for scheduler benchmarks.
// Generates deterministic test instances with configurable parameters.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/elektrokombinacija/repairsched/internal/instance"
)

// InstanceParams defines parameters for instance generation.
type InstanceParams struct {
	Seed        int64
	ItemCount   int
	LaneCount   int
	MaxDuration int
	// DepDensity is the probability that an item requires a given
	// earlier item.
	DepDensity float64
	// SwitchRatio is the fraction of items that carry alternative
	// lane durations.
	SwitchRatio float64
	// MultiLaneRatio is the fraction of items occupying two lanes.
	MultiLaneRatio float64
	// FixedRatio is the fraction of items pinned to a fixed start.
	FixedRatio float64
}

func main() {
	params := InstanceParams{}
	flag.Int64Var(&params.Seed, "seed", 42, "random seed")
	flag.IntVar(&params.ItemCount, "items", 50, "number of items")
	flag.IntVar(&params.LaneCount, "lanes", 5, "number of lanes")
	flag.IntVar(&params.MaxDuration, "max-duration", 120, "maximum lane duration")
	flag.Float64Var(&params.DepDensity, "dep-density", 0.08, "dependency probability per earlier item")
	flag.Float64Var(&params.SwitchRatio, "switch-ratio", 0.1, "fraction of switch-lane items")
	flag.Float64Var(&params.MultiLaneRatio, "multi-lane-ratio", 0.2, "fraction of two-lane items")
	flag.Float64Var(&params.FixedRatio, "fixed-ratio", 0.0, "fraction of fixed items")
	out := flag.String("out", "instances/generated.yaml", "output file (.yaml or .json)")
	name := flag.String("name", "generated", "instance name")
	flag.Parse()

	inst := generate(*name, params)
	if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mkdir: %v\n", err)
		os.Exit(1)
	}
	if err := inst.Save(*out); err != nil {
		fmt.Fprintf(os.Stderr, "save: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s: %d items (seed %d)\n", *out, len(inst.Items), params.Seed)
}

func generate(name string, params InstanceParams) *instance.Instance {
	rng := rand.New(rand.NewSource(params.Seed))
	inst := &instance.Instance{Name: name}

	for i := 1; i <= params.ItemCount; i++ {
		item := instance.Item{
			ID:        i,
			Durations: randomDurations(rng, params),
		}

		for j := 1; j < i; j++ {
			if rng.Float64() < params.DepDensity {
				item.Required = append(item.Required, j)
			}
		}

		if rng.Float64() < params.SwitchRatio {
			alternatives := 1 + rng.Intn(2)
			for a := 0; a < alternatives; a++ {
				item.Alternatives = append(item.Alternatives, randomDurations(rng, params))
			}
		}

		// Dependent items keep a free start so the solver can order
		// them; only independent items are pinned.
		if len(item.Required) == 0 && rng.Float64() < params.FixedRatio {
			start := rng.Intn(params.MaxDuration * 4)
			item.FixedStart = &start
		}

		inst.Items = append(inst.Items, item)
	}
	return inst
}

func randomDurations(rng *rand.Rand, params InstanceParams) map[int]int {
	first := rng.Intn(params.LaneCount)
	durations := map[int]int{first: 1 + rng.Intn(params.MaxDuration)}
	if params.LaneCount > 1 && rng.Float64() < params.MultiLaneRatio {
		// Draw from the remaining lanes so the second lane can never
		// collide with the first and collapse the item back to one.
		second := rng.Intn(params.LaneCount - 1)
		if second >= first {
			second++
		}
		durations[second] = 1 + rng.Intn(params.MaxDuration)
	}
	return durations
}
