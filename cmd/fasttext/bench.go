package main

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/klauspost/cpuid/v2"
	"github.com/urfave/cli/v3"

	"github.com/fbotkashower/fastText/internal/model"
	"github.com/fbotkashower/fastText/internal/synth"
	"github.com/fbotkashower/fastText/internal/tensor"
)

// lrUpdateInterval is how many examples a trainer processes between
// publishing progress and refreshing the shared learning rate.
const lrUpdateInterval = 1024

func benchCmd() *cli.Command {
	var (
		examples    int64
		benchRuns   int64
		queries     int64
		topk        int64
		maxFeatures int64
	)

	flags := append([]cli.Flag{}, commonModelFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.Int64Flag{
			Name:        "examples",
			Aliases:     []string{"n"},
			Usage:       "training examples per run",
			Value:       1_000_000,
			Destination: &examples,
		},
		&cli.Int64Flag{
			Name:        "runs",
			Usage:       "number of benchmark runs",
			Value:       3,
			Destination: &benchRuns,
		},
		&cli.Int64Flag{
			Name:        "queries",
			Usage:       "prediction queries per run",
			Value:       10_000,
			Destination: &queries,
		},
		&cli.Int64Flag{
			Name:        "top",
			Aliases:     []string{"k"},
			Usage:       "classes returned per prediction query",
			Value:       5,
			Destination: &topk,
		},
		&cli.Int64Flag{
			Name:        "max-features",
			Usage:       "max features per synthetic example",
			Value:       8,
			Destination: &maxFeatures,
		},
	)

	return &cli.Command{
		Name:  "bench",
		Usage: "Run standardized training and prediction benchmarks",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := commandLogger()
			applyModelConfig(cmd, LoadConfig())

			loss, err := model.ParseLoss(lossName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			workers := int(threads)
			if workers <= 0 {
				workers = runtime.NumCPU()
			}

			log.Info("building model", "loss", loss.String(), "dim", dim, "classes", classes)
			buildStart := time.Now()
			wi := tensor.NewMat(int(inputSize), int(dim))
			tensor.FillUniform(&wi, 1/float32(dim), seed)
			wo := tensor.NewMat(int(classes), int(dim))
			rate := model.NewLearningRate(float32(learningRate), float32(lrFloor))
			m := model.New(&wi, &wo, rate, model.Config{
				Loss:              loss,
				NegativeSamples:   int(negatives),
				NormalizeGradient: normalizeGrad,
				Seed:              seed,
			})
			m.SetTargetCounts(synth.NewStream(int(inputSize), int(classes), int(maxFeatures), seed).Counts())
			buildDuration := time.Since(buildStart)

			tableMB := float64(inputSize+classes) * float64(dim) * 4 / (1024 * 1024)

			// Print system info
			fmt.Println("=== fasttext Benchmark ===")
			fmt.Printf("CPU:      %s\n", cpuid.CPU.BrandName)
			fmt.Printf("CPUs:     %d\n", runtime.NumCPU())
			fmt.Printf("GOMAXPROCS: %d\n", runtime.GOMAXPROCS(0))
			fmt.Printf("SIMD:     avx2=%v avx512=%v\n",
				cpuid.CPU.Supports(cpuid.AVX2), cpuid.CPU.Supports(cpuid.AVX512F))
			fmt.Printf("Model:    %s loss, %d x %d input, %d x %d output (%.1f MB)\n",
				loss, inputSize, dim, classes, dim, tableMB)
			if loss == model.LossHierarchicalSoftmax {
				fmt.Printf("Tree:     depth %d, mean code length %.2f\n",
					m.TreeDepth(), m.MeanCodeLength())
			}
			fmt.Printf("Build:    %s\n", buildDuration.Round(time.Millisecond))
			fmt.Printf("Examples: %d per run\n", examples)
			fmt.Printf("Queries:  %d per run (top %d)\n", queries, topk)
			fmt.Printf("Threads:  %d\n", workers)
			fmt.Printf("Runs:     %d\n", benchRuns)
			fmt.Println()

			type runResult struct {
				TrainPerSec float64
				AvgLoss     float64
				QueryMicros float64
				Duration    time.Duration
				FinalLR     float32
			}
			results := make([]runResult, 0, benchRuns)

			total := examples * benchRuns
			var done atomic.Int64

			for r := range int(benchRuns) {
				log.Info("benchmark run", "run", r+1)
				runStart := time.Now()

				trainers := make([]*model.Model, workers)
				for i := range trainers {
					trainers[i] = m.Clone(seed + int64(r*workers+i) + 1)
				}

				var wg sync.WaitGroup
				quota := examples / int64(workers)
				for i, t := range trainers {
					n := quota
					if i == 0 {
						n += examples % int64(workers)
					}
					wg.Add(1)
					go func(id int, t *model.Model, n int64) {
						defer wg.Done()
						stream := synth.NewStream(t.InputSize(), t.OutputSize(),
							int(maxFeatures), seed+int64(r*workers+id)+1)
						for j := int64(0); j < n; j++ {
							features, target := stream.Next()
							t.Update(features, target)
							if (j+1)%lrUpdateInterval == 0 {
								progress := float64(done.Add(lrUpdateInterval)) / float64(total)
								if progress > 1 {
									progress = 1
								}
								rate.Set(float32(learningRate * (1 - progress)))
							}
						}
						done.Add(n % lrUpdateInterval)
					}(i, t, n)
				}
				wg.Wait()
				trainDuration := time.Since(runStart)

				var lossSum float64
				var trained int64
				for _, t := range trainers {
					lossSum += float64(t.AvgLoss()) * float64(t.Examples())
					trained += t.Examples()
				}
				avgLoss := 0.0
				if trained > 0 {
					avgLoss = lossSum / float64(trained)
				}

				qstream := synth.NewStream(int(inputSize), int(classes),
					int(maxFeatures), seed+int64(1000+r))
				queryStart := time.Now()
				for range queries {
					features, _ := qstream.Next()
					m.Predict(features, int(topk))
				}
				queryDuration := time.Since(queryStart)

				results = append(results, runResult{
					TrainPerSec: float64(trained) / trainDuration.Seconds(),
					AvgLoss:     avgLoss,
					QueryMicros: float64(queryDuration.Microseconds()) / float64(queries),
					Duration:    time.Since(runStart),
					FinalLR:     rate.Value(),
				})
			}

			// Print results
			fmt.Println("=== Results ===")
			fmt.Printf("%-6s %12s %10s %10s %10s %10s\n", "Run", "Train", "Loss", "Query", "LR", "Duration")
			fmt.Printf("%-6s %12s %10s %10s %10s %10s\n", "---", "ex/s", "", "us", "", "")

			var sumTrain, sumLoss, sumQuery float64
			for i, r := range results {
				fmt.Printf("%-6d %12.0f %10.4f %10.2f %10.2e %10s\n",
					i+1, r.TrainPerSec, r.AvgLoss, r.QueryMicros, r.FinalLR,
					r.Duration.Round(time.Millisecond))
				sumTrain += r.TrainPerSec
				sumLoss += r.AvgLoss
				sumQuery += r.QueryMicros
			}

			n := float64(len(results))
			fmt.Printf("\n%-6s %12.0f %10.4f %10.2f\n", "Avg", sumTrain/n, sumLoss/n, sumQuery/n)

			// Memory stats
			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			fmt.Printf("\nMemory: %.1f MB alloc, %.1f MB sys",
				float64(mem.Alloc)/(1024*1024),
				float64(mem.Sys)/(1024*1024))
			if rss := peakRSSMB(); rss > 0 {
				fmt.Printf(", %.1f MB peak RSS", rss)
			}
			fmt.Println()

			return nil
		},
	}
}
