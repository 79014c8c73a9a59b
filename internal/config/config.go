// Package config loads the benchmark harness's scenario definitions from
// HCL files. Scenario files are a harness-only convenience for sweeping
// many worker/chunk/workload combinations without recompiling; the
// framesched library itself never parses a file format (see SPEC_FULL.md
// §1 and §6a).
package config

import (
	"fmt"

	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Scenario describes one named benchmark run: how many workers and
// allocation chunks to give the Scheduler, which workload to build, and
// how large to build it.
type Scenario struct {
	Name           string `hcl:"name,label"`
	Workload       string `hcl:"workload"`
	WorkerAmount   int    `hcl:"worker_amount"`
	ChunkAmount    int    `hcl:"chunk_amount,optional"`
	WorkItemAmount int    `hcl:"work_item_amount"`
	RepeatAmount   int    `hcl:"repeat_amount,optional"`
}

// File is the decoded shape of a scenario definition file: any number of
// named "scenario" blocks.
type File struct {
	Scenarios []Scenario `hcl:"scenario,block"`
}

// Load decodes every "scenario" block in the HCL file at path, applies
// defaults, and validates each one.
func Load(path string) ([]Scenario, error) {
	var file File
	if err := hclsimple.DecodeFile(path, nil, &file); err != nil {
		return nil, fmt.Errorf("config: decoding %s: %w", path, err)
	}
	for i := range file.Scenarios {
		applyDefaults(&file.Scenarios[i])
		if err := validate(&file.Scenarios[i]); err != nil {
			return nil, fmt.Errorf("config: scenario %q: %w", file.Scenarios[i].Name, err)
		}
	}
	return file.Scenarios, nil
}

func applyDefaults(s *Scenario) {
	if s.ChunkAmount == 0 {
		s.ChunkAmount = s.WorkerAmount
	}
	if s.RepeatAmount == 0 {
		s.RepeatAmount = 1
	}
}

// validate re-checks every numeric field by round-tripping it through
// cty, the same value-conversion layer the declarative configuration
// stack in the retrieval pack uses to validate user-supplied HCL
// attributes against expected types and ranges, rather than hand-rolling
// int comparisons against a raw struct field.
func validate(s *Scenario) error {
	fields := map[string]int{
		"worker_amount":    s.WorkerAmount,
		"chunk_amount":     s.ChunkAmount,
		"work_item_amount": s.WorkItemAmount,
		"repeat_amount":    s.RepeatAmount,
	}
	for name, v := range fields {
		n, err := convert.Convert(cty.NumberIntVal(int64(v)), cty.Number)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if !n.IsKnown() || n.LessThan(cty.NumberIntVal(1)).True() {
			return fmt.Errorf("%s must be at least 1, got %d", name, v)
		}
	}
	if s.Workload == "" {
		return fmt.Errorf("workload must be set")
	}
	return nil
}
