// Package main wires the reporting pipeline stages behind a cobra CLI. Each
// stage is opt-in through a flag so cron can schedule them independently.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/opentelekomcloud-infra/eyes-on-docs/config"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/alert"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/catalog"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/collect"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/forge"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/notify"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/reconcile"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/repository"
	"github.com/opentelekomcloud-infra/eyes-on-docs/internal/zulip"
	"github.com/opentelekomcloud-infra/eyes-on-docs/pkg/logger"
)

type stages struct {
	catalog   bool
	reconcile bool
	issues    bool
	ecoIssues bool
	commits   bool
	reviews   bool
	labels    bool
	rst       bool
	diffs     bool
	zuul      bool
	notify    bool
}

func (s stages) any() bool {
	return s.catalog || s.reconcile || s.issues || s.ecoIssues || s.commits ||
		s.reviews || s.labels || s.rst || s.diffs || s.zuul || s.notify
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var s stages
	cmd := &cobra.Command{
		Use:           "eyes-on-docs",
		Short:         "Operational reporting for the documentation pipeline",
		Long:          "Polls Gitea and GitHub, reconciles proposal PR pairs, snapshots them to Postgres and alerts squad channels in Zulip.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, s)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&s.catalog, "catalog", false, "rebuild the service catalog and document index")
	f.BoolVar(&s.reconcile, "reconcile", false, "rebuild the open and orphaned PR pair tables")
	f.BoolVar(&s.issues, "issues", false, "rebuild the open issues table")
	f.BoolVar(&s.ecoIssues, "eco-issues", false, "rebuild the infra-org issues table")
	f.BoolVar(&s.commits, "commits", false, "rebuild the document staleness table")
	f.BoolVar(&s.reviews, "reviews", false, "rebuild the requested-changes table")
	f.BoolVar(&s.labels, "labels", false, "rebuild the review labels table")
	f.BoolVar(&s.rst, "rst", false, "rebuild the structured-doc presence table")
	f.BoolVar(&s.diffs, "diffs", false, "rebuild the diff size table")
	f.BoolVar(&s.zuul, "zuul", false, "rebuild the failed CI table")
	f.BoolVar(&s.notify, "notify", false, "evaluate alerts and send squad notifications")
	return cmd
}

func run(cmd *cobra.Command, s stages) error {
	if !s.any() {
		cmd.Println("no stage selected, nothing to do")
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.NewConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return err
	}
	log = log.With("run_id", uuid.NewString())

	repo, err := repository.New(ctx, "postgres", log, cfg)
	if err != nil {
		log.Errorw("repository initialization error", "error", err)
		return err
	}
	if err := repo.OnStart(ctx); err != nil {
		log.Errorw("repository start error", "error", err)
		return err
	}
	defer func() {
		_ = repo.OnStop(context.Background())
	}()

	gitea := forge.NewGitea(log, cfg)
	github := forge.NewGitHub(log, cfg)
	fallback := github.WithToken(cfg.Github.FallbackToken)

	ingestor := catalog.NewIngestor(log, gitea, repo, cfg)
	engine := reconcile.NewEngine(log, gitea, github, fallback, repo, cfg)
	collector := collect.New(log, gitea, github, fallback, repo, cfg)
	dispatcher := notify.NewDispatcher(log, zulip.New(log, cfg), cfg)
	evaluator := alert.New(log, repo, dispatcher)

	// The infra org sits outside the zone scheme; its issues are collected
	// once per run.
	if s.ecoIssues {
		log.Infow("stage starting", "stage", "eco-issues")
		if err := collector.EcoIssues(ctx); err != nil {
			log.Errorw("stage failed", "stage", "eco-issues", "error", err)
			return err
		}
		log.Infow("stage finished", "stage", "eco-issues")
	}

	for _, spec := range cfg.ZoneSpecs() {
		zoneLog := log.With("zone", spec.Zone)
		zoneLog.Infow("zone run starting")

		steps := []struct {
			name     string
			selected bool
			run      func(context.Context, config.ZoneSpec) error
		}{
			{"catalog", s.catalog, ingestor.Run},
			{"reconcile", s.reconcile, engine.Run},
			{"issues", s.issues, collector.Issues},
			{"commits", s.commits, collector.Commits},
			{"reviews", s.reviews, collector.Reviews},
			{"labels", s.labels, collector.Labels},
			{"rst", s.rst, collector.Rst},
			{"diffs", s.diffs, collector.Diffs},
			{"zuul", s.zuul, collector.Zuul},
			{"notify", s.notify, evaluator.Run},
		}
		for _, step := range steps {
			if !step.selected {
				continue
			}
			zoneLog.Infow("stage starting", "stage", step.name)
			if err := step.run(ctx, spec); err != nil {
				zoneLog.Errorw("stage failed", "stage", step.name, "error", err)
				return err
			}
			zoneLog.Infow("stage finished", "stage", step.name)
		}
	}

	return nil
}
