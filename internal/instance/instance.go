// Package instance defines the on-disk problem format used by the
// command-line tools and its conversion to solver items.
package instance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/elektrokombinacija/repairsched/internal/core"
)

var (
	// ErrUnknownFormat indicates an unsupported file extension.
	ErrUnknownFormat = errors.New("instance: unknown file format")
	// ErrDuplicateID indicates an item id used twice in a file.
	ErrDuplicateID = errors.New("instance: duplicate item id")
)

// Item is one item of an instance file.
type Item struct {
	ID           int           `json:"id" yaml:"id"`
	Durations    map[int]int   `json:"durations" yaml:"durations"`
	Required     []int         `json:"required,omitempty" yaml:"required,omitempty"`
	Alternatives []map[int]int `json:"alternatives,omitempty" yaml:"alternatives,omitempty"`
	FixedStart   *int          `json:"fixed_start,omitempty" yaml:"fixed_start,omitempty"`
}

// Instance is a problem description: items to schedule and, via
// FixedStart, placements the solver must not move.
type Instance struct {
	Name  string `json:"name" yaml:"name"`
	Items []Item `json:"items" yaml:"items"`
}

// Load reads an instance from a YAML or JSON file, chosen by
// extension.
func Load(path string) (*Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var inst Instance
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &inst); err != nil {
			return nil, fmt.Errorf("instance: parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &inst); err != nil {
			return nil, fmt.Errorf("instance: parse %s: %w", path, err)
		}
	default:
		return nil, ErrUnknownFormat
	}
	return &inst, nil
}

// Save writes the instance to a YAML or JSON file, chosen by
// extension.
func (inst *Instance) Save(path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(inst)
	case ".json":
		data, err = json.MarshalIndent(inst, "", "  ")
	default:
		return ErrUnknownFormat
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Build converts the instance to solver inputs: the items to place
// and the fixed placements.
func (inst *Instance) Build() ([]*core.Item, []*core.ScheduledItem, error) {
	var items []*core.Item
	var fixed []*core.ScheduledItem
	seen := make(map[int]struct{}, len(inst.Items))
	for _, fi := range inst.Items {
		if _, dup := seen[fi.ID]; dup {
			return nil, nil, fmt.Errorf("%w: %d", ErrDuplicateID, fi.ID)
		}
		seen[fi.ID] = struct{}{}

		durations := convertDurations(fi.Durations)
		required := make([]core.ItemID, len(fi.Required))
		for i, r := range fi.Required {
			required[i] = core.ItemID(r)
		}

		var it *core.Item
		var err error
		if len(fi.Alternatives) > 0 {
			alts := make([]map[core.LaneID]int, len(fi.Alternatives))
			for i, a := range fi.Alternatives {
				alts[i] = convertDurations(a)
			}
			it, err = core.NewSwitchLaneItem(core.ItemID(fi.ID), durations, alts, required...)
		} else {
			it, err = core.NewItem(core.ItemID(fi.ID), durations, required...)
		}
		if err != nil {
			return nil, nil, fmt.Errorf("instance: item %d: %w", fi.ID, err)
		}

		if fi.FixedStart != nil {
			fixed = append(fixed, core.NewScheduledItem(it, *fi.FixedStart))
		} else {
			items = append(items, it)
		}
	}
	return items, fixed, nil
}

func convertDurations(in map[int]int) map[core.LaneID]int {
	out := make(map[core.LaneID]int, len(in))
	for l, d := range in {
		out[core.LaneID(l)] = d
	}
	return out
}
