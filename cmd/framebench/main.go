// Command framebench is a small benchmark and parity-checking harness for
// the framesched job graph scheduler. It decodes one or more named
// scenarios from an HCL file, builds the matching demo workload for each,
// runs it on a framesched.Scheduler, and — for workloads that have one —
// cross-checks the scheduled result against a single-threaded
// recomputation, printing a report to stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/arborworks/framesched/framesched"
	"github.com/arborworks/framesched/internal/app"
	"github.com/arborworks/framesched/internal/bench"
	"github.com/arborworks/framesched/internal/cli"
	"github.com/arborworks/framesched/internal/config"
	"github.com/arborworks/framesched/internal/ctxlog"
)

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		if exitErr, ok := err.(*cli.ExitError); ok {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(app.ExitCode(err))
	}
}

func run(outW io.Writer, args []string) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := app.NewLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	ctx := ctxlog.Into(context.Background(), logger)

	scenarios, err := config.Load(cfg.ScenarioPath)
	if err != nil {
		return app.NewExitError(2, err)
	}

	for _, scenario := range scenarios {
		if cfg.WorkerAmount > 0 {
			scenario.WorkerAmount = cfg.WorkerAmount
		}
		if cfg.ChunkAmount > 0 {
			scenario.ChunkAmount = cfg.ChunkAmount
		}
		if err := runScenario(ctx, outW, scenario); err != nil {
			return app.NewExitError(1, err)
		}
	}
	return nil
}

func runScenario(ctx context.Context, outW io.Writer, scenario config.Scenario) error {
	logger := ctxlog.From(ctx)
	logger.Info("starting scenario",
		"name", scenario.Name,
		"workload", scenario.Workload,
		"worker_amount", scenario.WorkerAmount,
		"chunk_amount", scenario.ChunkAmount,
	)

	scheduler := framesched.NewScheduler(uint32(scenario.WorkerAmount), uint32(scenario.ChunkAmount))
	defer scheduler.Close()

	for repeat := 0; repeat < scenario.RepeatAmount; repeat++ {
		graph := framesched.NewGraph()

		switch scenario.Workload {
		case "diamond":
			w := bench.BuildDiamond(graph)
			scheduler.SetJobGraph(graph)
			start := time.Now()
			scheduler.Run()
			elapsed := time.Since(start)
			fmt.Fprintf(outW, "[%s] run %d/%d: diamond output=%v elapsed=%s\n",
				scenario.Name, repeat+1, scenario.RepeatAmount, w.Output, elapsed)

		case "parallel-sum":
			w := bench.BuildParallelSum(graph, scenario.WorkItemAmount, 1024)
			scheduler.SetJobGraph(graph)
			start := time.Now()
			scheduler.Run()
			elapsed := time.Since(start)

			expected := bench.SequentialSum(scenario.WorkItemAmount)
			match := w.Result == expected
			fmt.Fprintf(outW, "[%s] run %d/%d: scheduled_sum=%d sequential_sum=%d match=%t elapsed=%s\n",
				scenario.Name, repeat+1, scenario.RepeatAmount, w.Result, expected, match, elapsed)
			if !match {
				return fmt.Errorf("scenario %q: scheduled sum %d does not match sequential sum %d", scenario.Name, w.Result, expected)
			}

		default:
			return fmt.Errorf("scenario %q: unknown workload %q", scenario.Name, scenario.Workload)
		}
	}

	if err := scheduler.WriteStatistics(outW); err != nil {
		return err
	}
	logger.Debug("scenario finished", "name", scenario.Name)
	return nil
}
