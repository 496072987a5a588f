package benchmarks

import (
	"context"
	"math/rand"
	"testing"

	"github.com/utkarsh5026/schedme/internal/driver"
	"github.com/utkarsh5026/schedme/internal/report"
	"github.com/utkarsh5026/schedme/internal/script"
	"github.com/utkarsh5026/schedme/sched"
)

// policyConfig defines a benchmark configuration for a scheduling policy
type policyConfig struct {
	name   string
	policy sched.Policy
	opts   []sched.Option
}

// getAllPolicies returns every policy, MLFQ once with the default quanta and
// once with short quanta that force frequent demotion.
func getAllPolicies() []policyConfig {
	return []policyConfig{
		{name: "FCFS", policy: sched.FCFS},
		{name: "SRTF", policy: sched.SRTF},
		{name: "MLFQ", policy: sched.MLFQ},
		{
			name:   "MLFQ_ShortQuanta",
			policy: sched.MLFQ,
			opts:   []sched.Option{sched.WithMLFQQuanta(1, 2, 4, 8, 16)},
		},
	}
}

// runPolicyBenchmark runs a benchmark function for all policies
func runPolicyBenchmark(b *testing.B, policies []policyConfig, benchFunc func(b *testing.B, p policyConfig)) {
	for _, p := range policies {
		b.Run(p.name, func(b *testing.B) {
			benchFunc(b, p)
		})
	}
}

// simulate runs the workload once and returns the final CPU clock and the
// per-worker statistics.
func simulate(b *testing.B, p policyConfig, workload []script.Worker) (int, []report.Stat) {
	b.Helper()

	eng, err := sched.New(p.policy, len(workload), p.opts...)
	if err != nil {
		b.Fatalf("new engine: %v", err)
	}
	res, err := driver.Run(context.Background(), eng, workload)
	if err != nil {
		b.Fatalf("run: %v", err)
	}
	if err := eng.Close(); err != nil {
		b.Fatalf("close: %v", err)
	}

	cpuTick, _ := eng.Now()
	return cpuTick, report.Summarize(workload, res.Timeline)
}

// benchmarkWorkload runs the workload b.N times and reports the virtual
// makespan and mean turnaround of the last run alongside the wall time.
func benchmarkWorkload(b *testing.B, p policyConfig, workload []script.Worker) {
	b.ReportAllocs()

	var (
		makespan int
		stats    []report.Stat
	)
	for b.Loop() {
		makespan, stats = simulate(b, p, workload)
	}

	turnaround, response := report.Averages(stats)
	b.ReportMetric(float64(makespan), "ticks")
	b.ReportMetric(turnaround, "turnaround")
	b.ReportMetric(response, "response")
}

// =============================================================================
// Workload Generators
// =============================================================================

// cpuBoundWorkload gives every worker a single CPU burst of 1..maxBurst units,
// arriving spread over the first `workers` ticks.
func cpuBoundWorkload(workers, maxBurst int, seed int64) []script.Worker {
	rng := rand.New(rand.NewSource(seed))
	out := make([]script.Worker, workers)
	for i := range out {
		out[i] = script.Worker{
			ID:      i,
			Arrival: float64(rng.Intn(workers)),
			Ops: []script.Op{
				{Kind: script.CPU, Arg: 1 + rng.Intn(maxBurst)},
				{Kind: script.End},
			},
		}
	}
	return out
}

// mixedWorkload alternates CPU and I/O bursts, `rounds` of each per worker.
func mixedWorkload(workers, rounds, maxBurst int, seed int64) []script.Worker {
	rng := rand.New(rand.NewSource(seed))
	out := make([]script.Worker, workers)
	for i := range out {
		ops := make([]script.Op, 0, 2*rounds+1)
		for range rounds {
			ops = append(ops,
				script.Op{Kind: script.CPU, Arg: 1 + rng.Intn(maxBurst)},
				script.Op{Kind: script.IO, Arg: 1 + rng.Intn(maxBurst)},
			)
		}
		ops = append(ops, script.Op{Kind: script.End})
		out[i] = script.Worker{ID: i, Arrival: rng.Float64() * float64(workers), Ops: ops}
	}
	return out
}

// handoffWorkload pairs workers: the even one waits on the pair's semaphore
// and the odd one computes and then signals it. Waits and signals on every
// semaphore balance, so every wait is eventually satisfied.
func handoffWorkload(pairs, burst, semaphores int) []script.Worker {
	out := make([]script.Worker, 0, 2*pairs)
	for k := range pairs {
		sem := k % semaphores
		out = append(out,
			script.Worker{ID: 2 * k, Ops: []script.Op{
				{Kind: script.Wait, Arg: sem},
				{Kind: script.CPU, Arg: burst},
				{Kind: script.End},
			}},
			script.Worker{ID: 2*k + 1, Ops: []script.Op{
				{Kind: script.CPU, Arg: burst},
				{Kind: script.Signal, Arg: sem},
				{Kind: script.End},
			}},
		)
	}
	return out
}
