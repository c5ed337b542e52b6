// Bencher: proof-of-capacity mining benchmarker
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/PoC-Consortium/bencher/internal/config"
	"github.com/PoC-Consortium/bencher/internal/logging"
	"github.com/PoC-Consortium/bencher/internal/miner"
	"github.com/PoC-Consortium/bencher/internal/status"
	"github.com/PoC-Consortium/bencher/internal/version"
	"github.com/PoC-Consortium/bencher/pkg/poc/gpu"
	"github.com/PoC-Consortium/bencher/pkg/poc/hardware"
)

var log = logrus.WithField("prefix", "main")

func main() {
	app := &cli.App{
		Name:    "bencher",
		Usage:   "a PoW PoC miner",
		Version: version.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "location of the config file",
				Value:   "config.yaml",
			},
			&cli.BoolFlag{
				Name:  "opencl",
				Usage: "display OpenCL platforms and devices",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}
	if err := logging.Init(cfg.ConsoleLogLevel, cfg.LogfileLogLevel, cfg.LogfilePath); err != nil {
		return err
	}

	log.Infof("bencher v.%s", version.Version)

	if c.Bool("opencl") {
		gpu.ListPlatforms()
		return nil
	}

	simd := hardware.DetectSimd()
	threads := hardware.ResolveThreads(cfg.CPUThreads)
	log.Info(hardware.CPUDescriptor(threads, simd))

	xpu := hardware.CPUDescriptor(threads, simd)
	gpus := make([]gpu.DeviceQueue, 0, len(cfg.Gpus))
	for _, gpuCfg := range cfg.Gpus {
		queue, err := gpu.Open(gpuCfg)
		if err != nil {
			// Device selection problems shut the process down
			// cleanly before any work is scheduled.
			log.Errorf("%v", err)
			log.Error("shutting down...")
			os.Exit(0)
		}
		gpus = append(gpus, queue)
		xpu += fmt.Sprintf(", gpu: reference [worksize %d]", queue.Worksize())
	}

	log.Infof("numeric_id: %d", cfg.NumericID)
	log.Infof("start_nonce: %d", *cfg.StartNonce)
	log.Infof("target_deadline: %d", cfg.TargetDeadline)
	if cfg.SecretPhrase != "" {
		log.Info("mode: solo")
	} else {
		log.Info("mode: pool")
	}

	m := miner.New(cfg, hardware.SelectGenerator(simd), threads, gpus, xpu)

	if cfg.StatusListen != "" {
		go status.Serve(cfg.StatusListen, func() any { return m.Snapshot() })
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	m.Run(ctx)
	return nil
}
