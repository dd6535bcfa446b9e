// Command train fits a model from a labelled CSV and persists it as a new
// artifact version, optionally activating and registering it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/JaimeStill/jobcheck/internal/artifacts"
	"github.com/JaimeStill/jobcheck/internal/config"
	"github.com/JaimeStill/jobcheck/internal/infrastructure"
	"github.com/JaimeStill/jobcheck/internal/registry"
	"github.com/JaimeStill/jobcheck/internal/training"
	"github.com/JaimeStill/jobcheck/pkg/formatting"
)

func main() {
	var (
		dataset  = flag.String("dataset", "", "Path to the labelled CSV (defaults to model.dataset_path)")
		activate = flag.Bool("activate", false, "Point the ACTIVE marker at the new version")
		register = flag.Bool("register", false, "Record the version in the model registry")
		actor    = flag.String("actor", "cli", "Name recorded as the trainer")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed:", err)
	}
	if *dataset != "" {
		cfg.Model.DatasetPath = *dataset
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		log.Fatal("infrastructure init failed:", err)
	}
	if err := infra.Start(); err != nil {
		log.Fatal("infrastructure start failed:", err)
	}
	if err := infra.Lifecycle.WaitForStartup(); err != nil {
		infra.Logger.Warn("startup completed with failures", "error", err)
	}
	defer infra.Lifecycle.Shutdown(cfg.ShutdownTimeoutDuration())

	ctx, stop := signal.NotifyContext(infra.Lifecycle.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if info, err := os.Stat(cfg.Model.DatasetPath); err == nil {
		infra.Logger.Info("dataset found",
			"path", cfg.Model.DatasetPath,
			"size", formatting.FormatBytes(info.Size(), 1),
		)
	}

	rows, err := training.LoadDataset(cfg.Model.DatasetPath, cfg.Model.SyntheticOptions(), infra.Logger)
	if err != nil {
		log.Fatal("dataset load failed:", err)
	}

	start := time.Now()
	pipeline := training.New(infra.Normalizer, cfg.Model.TrainingOptions(), infra.Logger)
	out, err := pipeline.Run(ctx, rows)
	if err != nil {
		log.Fatal("training failed:", err)
	}

	md, err := infra.Artifacts.Persist(context.WithoutCancel(ctx), out, *actor)
	if err != nil {
		log.Fatal("persist failed:", err)
	}

	if *activate {
		if _, err := infra.Artifacts.Activate(ctx, md.Version); err != nil {
			log.Fatal("activation failed:", err)
		}
	}

	if *register {
		if err := infra.Database.Check(ctx); err != nil {
			log.Fatal("registry unavailable:", err)
		}
		reg := registry.New(infra.Database.Connection(), infra.Logger, cfg.API.Pagination)
		_, err := reg.Register(ctx, registry.RegisterCommand{
			Version:     md.Version,
			ModelName:   md.ModelName,
			Accuracy:    md.Accuracy,
			Precision:   md.Precision,
			Recall:      md.Recall,
			F1:          md.F1,
			DatasetSize: md.DatasetSize,
			TrainedBy:   *actor,
			TrainedAt:   md.TrainedAt,
			Active:      *activate,
		})
		if err != nil {
			log.Fatal("registry update failed:", err)
		}
	}

	report(md, *activate, time.Since(start))
}

func report(md *artifacts.Metadata, active bool, elapsed time.Duration) {
	fmt.Printf("version:  %s\n", md.Version)
	fmt.Printf("model:    %s\n", md.ModelName)
	fmt.Printf("samples:  %d\n", md.DatasetSize)
	fmt.Printf("features: %s\n", md.Features)
	fmt.Printf("active:   %v\n", active)
	fmt.Printf("elapsed:  %s\n\n", elapsed.Round(time.Millisecond))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tACCURACY\tPRECISION\tRECALL\tF1")
	for _, r := range md.AllResults {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.4f\t%.4f\n",
			r.Name, r.Accuracy, r.Precision, r.Recall, r.F1)
	}
	w.Flush()
}
