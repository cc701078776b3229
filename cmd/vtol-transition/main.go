// Command vtol-transition drives a single tailsitter forward-transition
// attempt: load configuration, wait for an autopilot connection, run the
// transition strategy to completion or abort, and exit 0 on success or 1
// on failure. It plays the same lifecycle role this flight-control
// stack's other entrypoints play, scoped down to this one maneuver.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/asgard/vtol-transition/internal/autopilot"
	"github.com/asgard/vtol-transition/internal/config"
	"github.com/asgard/vtol-transition/internal/telemetry"
	"github.com/asgard/vtol-transition/internal/telemetrylog"
	"github.com/asgard/vtol-transition/internal/transition"
)

const defaultConfigPath = "configs/transition_parameters.yaml"

func main() {
	os.Exit(run())
}

// run contains main's logic as a testable, exit-code-returning function.
func run() int {
	configPath := flag.String("config", defaultConfigPath, "path to the transition parameters YAML file")
	yaw := flag.Float64("yaw", config.LaunchYawSentinel, "transition yaw angle in degrees; -1 uses the yaw captured at arm")
	debug := flag.Bool("debug", false, "enable debug-level logging")
	flag.Parse()

	logger, err := telemetrylog.New(telemetrylog.DefaultLogFile, *debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "vtol-transition: %v\n", err)
		return 1
	}

	runID := uuid.NewString()
	log := logger.WithField("run_id", runID)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("configuration error")
		return 1
	}

	yawExplicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "yaw" {
			yawExplicit = true
		}
	})
	if yawExplicit {
		cfg.TransitionYawAngle = *yaw
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.WithField("signal", sig.String()).Warn("received shutdown signal, cancelling transition")
		cancel()
	}()

	source := telemetry.NewSimulatedSource(cfg.CycleInterval, cfg.InitialClimbRate)
	cache := telemetry.NewCache(source, logger)
	cache.Start(ctx)
	defer cache.Stop()

	surface := autopilot.NewSimulated()

	connected := make(chan struct{})
	close(connected)
	if err := autopilot.AwaitConnected(ctx, connected); err != nil {
		log.WithError(err).Error("autopilot connection error")
		return 1
	}

	program := transition.NewTailsitterPitchProgram(cfg, surface, cache, logger)
	manager := transition.NewManager(logger, map[string]transition.Strategy{
		transition.DefaultStrategyName: program,
	}, transition.DefaultStrategyName)

	log.WithFields(logrus.Fields{
		"config": *configPath,
	}).Info("starting transition attempt")

	start := time.Now()
	result := manager.Execute(ctx)
	elapsed := time.Since(start)

	entry := log.WithFields(logrus.Fields{
		"result":       result,
		"elapsed_secs": elapsed.Seconds(),
	})
	if result == transition.ResultSuccess {
		entry.Info("transition attempt finished")
		return 0
	}
	entry.Error("transition attempt finished")
	return 1
}
