package main

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/fbotkashower/fastText/internal/api"
	"github.com/fbotkashower/fastText/internal/model"
	"github.com/fbotkashower/fastText/internal/synth"
	"github.com/fbotkashower/fastText/internal/tensor"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		qps         float64
		bootstrap   int64
		maxFeatures int64
	)

	flags := append([]cli.Flag{}, commonModelFlags()...)
	flags = append(flags, loggingFlags()...)
	flags = append(flags,
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "listen address",
			Value:       "127.0.0.1:8080",
			Destination: &addr,
		},
		&cli.DurationFlag{
			Name:        "read-timeout",
			Usage:       "read timeout",
			Value:       30 * time.Second,
			Destination: &readTimeout,
		},
		&cli.Float64Flag{
			Name:        "qps",
			Usage:       "prediction requests per second (0 = unlimited)",
			Value:       0,
			Destination: &qps,
		},
		&cli.Int64Flag{
			Name:        "bootstrap",
			Usage:       "synthetic examples to train before serving",
			Value:       200_000,
			Destination: &bootstrap,
		},
		&cli.Int64Flag{
			Name:        "max-features",
			Usage:       "max features per synthetic example",
			Value:       8,
			Destination: &maxFeatures,
		},
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the prediction REST API",
		Flags: flags,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := commandLogger()
			cfg := LoadConfig()
			applyModelConfig(cmd, cfg)
			applyServeConfig(cmd, cfg, &addr, &qps)

			loss, err := model.ParseLoss(lossName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			workers := int(threads)
			if workers <= 0 {
				workers = runtime.NumCPU()
			}

			log.Info("building model",
				"loss", loss.String(), "dim", dim, "input_size", inputSize, "classes", classes)
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

			if bootstrap > 0 {
				log.Info("bootstrap training", "examples", bootstrap, "threads", workers)
				start := time.Now()
				var wg sync.WaitGroup
				quota := bootstrap / int64(workers)
				for i := range workers {
					n := quota
					if i == 0 {
						n += bootstrap % int64(workers)
					}
					wg.Add(1)
					go func(id int, n int64) {
						defer wg.Done()
						t := m.Clone(seed + int64(id) + 1)
						stream := synth.NewStream(t.InputSize(), t.OutputSize(),
							int(maxFeatures), seed+int64(id)+1)
						for range n {
							features, target := stream.Next()
							t.Update(features, target)
						}
					}(i, n)
				}
				wg.Wait()
				log.Info("bootstrap done", "took", time.Since(start).Round(time.Millisecond))
			}

			server := api.NewServer(m, log, qps)
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
