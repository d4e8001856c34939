package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/l1jgo/autobuild/internal/automaton"
	"github.com/l1jgo/autobuild/internal/blueprint"
	"github.com/l1jgo/autobuild/internal/config"
	"github.com/l1jgo/autobuild/internal/core/event"
	coresys "github.com/l1jgo/autobuild/internal/core/system"
	"github.com/l1jgo/autobuild/internal/data"
	"github.com/l1jgo/autobuild/internal/geom"
	"github.com/l1jgo/autobuild/internal/notify"
	"github.com/l1jgo/autobuild/internal/persist"
	"github.com/l1jgo/autobuild/internal/scripting"
	"github.com/l1jgo/autobuild/internal/system"
	"github.com/l1jgo/autobuild/internal/world"
)

type buildOptions struct {
	blueprint   string
	owner       string
	at          string
	yaw         float64
	site        string
	maxTicks    int
	reportEvery int
	fast        bool
}

func newBuildCmd(load func() (*config.Config, error)) *cobra.Command {
	var opts buildOptions
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Run one blueprint job in the sandbox until it ends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return runBuild(cmd.Context(), cmd.OutOrStdout(), cfg, opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.blueprint, "blueprint", "b", "", "blueprint id")
	f.StringVarP(&opts.owner, "owner", "o", "", "builder id; also selects the sandbox inventory")
	f.StringVar(&opts.at, "at", "0,0,0", "anchor position x,y,z")
	f.Float64Var(&opts.yaw, "yaw", 0, "anchor yaw in degrees")
	f.StringVar(&opts.site, "site", "", "sandbox site name (default: first site)")
	f.IntVar(&opts.maxTicks, "max-ticks", 0, "cancel the job after this many ticks (0 = no limit)")
	f.IntVar(&opts.reportEvery, "report-every", 0, "send a status report every N ticks while paused")
	f.BoolVar(&opts.fast, "fast", false, "tick as fast as possible instead of at server.tick_rate")
	_ = cmd.MarkFlagRequired("blueprint")
	_ = cmd.MarkFlagRequired("owner")
	return cmd
}

func parseVec(s string) (geom.Vec3, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return geom.Vec3{}, fmt.Errorf("want x,y,z, got %q", s)
	}
	var v [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Vec3{}, fmt.Errorf("coordinate %d: %w", i, err)
		}
		v[i] = f
	}
	return geom.V(v[0], v[1], v[2]), nil
}

func runBuild(parent context.Context, out io.Writer, cfg *config.Config, opts buildOptions) error {
	pos, err := parseVec(opts.at)
	if err != nil {
		return fmt.Errorf("--at: %w", err)
	}

	log, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(out, cfg.Server.Name)

	// 1. Data tables
	printSection(out, "資料載入")
	catalog, err := data.LoadCatalog(cfg.Data.Catalog)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	printStat(out, "構件種類", catalog.Count())
	sites, err := data.LoadSiteTable(cfg.Data.Site)
	if err != nil {
		return fmt.Errorf("sites: %w", err)
	}
	site := sites.Default()
	if opts.site != "" {
		site = sites.Get(opts.site)
	}
	if site == nil {
		return fmt.Errorf("site %q not found", opts.site)
	}
	printStat(out, "場地", site.Name)

	engine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer engine.Close()
	costs := scripting.NewCostOverlay(catalog, engine, log)
	if engine.HasFunc("calc_grade_bonus") {
		printOK(out, "等級加成腳本已載入")
	}

	// 2. Blueprint source
	ctx, cancel := context.WithTimeout(parent, 30*time.Second)
	src, db, err := openSource(ctx, cfg, log)
	cancel()
	if err != nil {
		return err
	}
	var journal *persist.Journal
	var wal *persist.WALRepo
	if db != nil {
		defer db.Close()
		wal = persist.NewWALRepo(db.SQL)
		journal = persist.NewJournal(wal, log)
		printOK(out, "PostgreSQL 連線成功")
	}
	printOK(out, fmt.Sprintf("藍圖來源: %s", sourceName(cfg)))
	fmt.Fprintln(out)

	// 3. Sandbox and automaton
	sandbox := world.NewSandbox(site, log)
	notifier, err := notify.New(cfg.Server.Language, notify.SinkFunc(func(owner automaton.OwnerID, text string) {
		fmt.Fprintf(out, "  \033[36m[%s]\033[0m %s\n", owner, text)
	}), log)
	if err != nil {
		return err
	}
	deps := automaton.Deps{
		Config: cfg.Build,
		Loader: blueprint.NewLoader(src, costs, blueprint.LoaderOptions{
			DeployDoors:     cfg.Build.DeployDoors,
			DeployPrivilege: cfg.Build.DeployPrivilege,
		}, log),
		Catalog:     costs,
		Costs:       costs,
		Inventories: sandbox,
		Factory:     sandbox,
		Query:       sandbox,
		Stability:   sandbox,
		Notifier:    notifier,
		Log:         log,
		RetryTicks:  engine.PauseRetryTicks,
	}
	if journal != nil {
		deps.Journal = journal
	}
	jobs := automaton.NewManager(deps)

	bus := event.NewBus()
	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewBuildSystem(jobs, bus, log))
	var persistence *system.PersistenceSystem
	if journal != nil {
		persistence = system.NewPersistenceSystem(journal, wal, bus, log, 5)
		runner.Register(persistence)
	}
	runner.Register(system.NewCleanupSystem(sandbox.ECS(), log))

	var result *event.JobFinished
	event.Subscribe(bus, func(e event.JobFinished) { result = &e })

	owner := automaton.OwnerID(opts.owner)
	startCtx, cancelStart := context.WithTimeout(parent, 30*time.Second)
	id, err := jobs.StartJob(startCtx, owner, opts.blueprint, blueprint.Anchor{Position: pos, Yaw: opts.yaw})
	cancelStart()
	if err != nil {
		return fmt.Errorf("start job: %w", err)
	}
	printReady(out, fmt.Sprintf("建造開始 (job %s)", id))

	// 4. Tick loop
	sigCtx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var ticker *time.Ticker
	if !opts.fast {
		ticker = time.NewTicker(cfg.Server.TickRate)
		defer ticker.Stop()
	}
	stopping := false
	requestStop := func(reason string) {
		if stopping {
			return
		}
		stopping = true
		log.Info("停止建造", zap.String("reason", reason))
		event.Emit(bus, event.OwnerDisconnected{Owner: owner})
	}
	for result == nil {
		if !stopping && ticker != nil {
			select {
			case <-sigCtx.Done():
				requestStop("signal")
			case <-ticker.C:
			}
		} else if !stopping && sigCtx.Err() != nil {
			requestStop("signal")
		}
		runner.Tick(cfg.Server.TickRate)

		if opts.maxTicks > 0 && runner.Ticks() >= uint64(opts.maxTicks) {
			requestStop("tick limit")
		}
		if opts.reportEvery > 0 && runner.Ticks()%uint64(opts.reportEvery) == 0 {
			if p, err := jobs.Status(id); err == nil && p == automaton.PhasePaused {
				_, _ = jobs.Report(id)
			}
		}
	}
	if persistence != nil {
		persistence.FlushAll()
	}

	// 5. Summary
	fmt.Fprintln(out)
	printSection(out, "建造結果")
	printStat(out, "狀態", result.Phase)
	printStat(out, "已放置構件", result.Placed)
	printStat(out, "Tick 數", runner.Ticks())
	resets, recomputes, _ := sandbox.StabilityStats()
	printStat(out, "穩定度重算", recomputes)
	printStat(out, "支撐重設", resets)
	settled, loose := sandbox.Settled()
	printStat(out, "結構構件", settled)
	if loose > 0 {
		log.Warn("部分構件缺乏支撐", zap.Int("unsupported", loose))
	}
	wallet := sandbox.Wallet(owner)
	for _, item := range wallet.Items() {
		printStat(out, "剩餘 "+item, wallet.GetAmount(item))
	}

	switch result.Phase {
	case automaton.PhaseCompleted:
		return nil
	case automaton.PhaseCanceled:
		if stopping {
			return errors.New("build canceled")
		}
		return fmt.Errorf("build canceled: %w", automaton.ErrCanceled)
	default:
		return fmt.Errorf("build %s: %w", result.Phase, result.Err)
	}
}

func sourceName(cfg *config.Config) string {
	if cfg.Data.Source == "postgres" {
		return "postgres"
	}
	return cfg.Data.BlueprintDir
}
