// Command aicity runs the AIcity discrete-time multi-agent society
// simulation: config load, persistence open, fresh-vs-resume population
// bootstrap, reasoning/messaging/observer client wiring, and the day-loop
// scheduler behind a graceful-shutdown signal handler. Process-wiring shape
// (db open → fresh/resume branch → engine construction → API start →
// signal-based shutdown with a final save) is ported from the teacher's
// cmd/worldsim/main.go.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aicity/aicity/internal/agents"
	"github.com/aicity/aicity/internal/api"
	"github.com/aicity/aicity/internal/config"
	"github.com/aicity/aicity/internal/decision"
	"github.com/aicity/aicity/internal/engine"
	"github.com/aicity/aicity/internal/entropy"
	"github.com/aicity/aicity/internal/ledger"
	"github.com/aicity/aicity/internal/llm"
	"github.com/aicity/aicity/internal/messaging"
	"github.com/aicity/aicity/internal/obslog"
	"github.com/aicity/aicity/internal/observer"
	"github.com/aicity/aicity/internal/persistence"
	"github.com/aicity/aicity/internal/worldgen"
)

const genesisPopulation = 24

func main() {
	cfg, cfgErr := config.Load("aicity.yaml")
	_, statErr := os.Stat("aicity.yaml")
	log := obslog.New(cfg.LogLevel, os.Stdout)
	if cfgErr != nil || os.IsNotExist(statErr) {
		log.Warn().Err(cfgErr).Msg("config file not found or invalid, using defaults")
		if err := config.WriteExample("aicity.yaml", cfg); err != nil {
			log.Warn().Err(err).Msg("failed to write a starter aicity.yaml")
		}
	}

	runID := uuid.NewString()
	log = log.With().Str("run_id", runID).Logger()
	log.Info().Msg("AIcity starting")

	os.MkdirAll("data", 0o755)
	db, err := persistence.Open(cfg.DatabasePath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	l := ledger.New(cfg.TotalSupply, cfg.WealthCapFraction, cfg.WelfareFloor)
	l.ConfigureMint(cfg.AdminToken, cfg.MintPeriodDays, cfg.MintPeriodCapFraction)
	rng := entropy.NewClient(os.Getenv("AICITY_ENTROPY_API_KEY"))
	reasoning := llm.NewClient(cfg.ReasoningAPIKey, cfg.ReasoningModel, cfg.ReasoningMaxPerMin)

	var bus messaging.Bus
	if cfg.RedisURL != "" {
		redisBus, err := messaging.NewRedisBus(cfg.RedisURL, cfg.MessageTTL)
		if err != nil {
			log.Warn().Err(err).Msg("redis message bus unavailable, falling back to in-memory bus")
			bus = messaging.NewMemoryBus(cfg.MessageTTL)
		} else {
			bus = redisBus
		}
	} else {
		bus = messaging.NewMemoryBus(cfg.MessageTTL)
	}

	city := engine.NewCity(l, rng, reasoning, bus, log, engine.Params{
		ColdCaseTimeoutDays:       cfg.ColdCaseTimeoutDays,
		BaseArrestProb:            cfg.BaseArrestProb,
		GangFormationProbability:  cfg.GangFormationProbability,
		GangExposureProbability:   cfg.GangExposureProbability,
		ProjectAbandonTimeoutDays: cfg.ProjectAbandonTimeoutDays,
		DailyTaxRate:              cfg.DailyTaxRate,
		DailyBurnAmount:           cfg.DailyBurnAmount,
		HeartAttackProbability:    cfg.HeartAttackProbability,
		WindfallProbability:       cfg.WindfallProbability,
		WindfallAmount:            cfg.WindfallAmount,
		VaultSurplusThreshold:     cfg.VaultSurplusThreshold,
		VaultRedistributionRate:   cfg.VaultRedistributionRate,
		ConvictionFineAmount:      cfg.ConvictionFineAmount,
	})

	world := worldgen.Generate(worldgen.Config{
		Radius: cfg.WorldRadius, Seed: cfg.RandomSeed,
		SeaLevel: 0.25, MountainLvl: 0.72,
	})

	if db.HasWorldState() {
		log.Info().Msg("found saved world state, resuming")
		loaded, err := db.LoadAgents()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load agents")
		}
		for _, a := range loaded {
			city.Register(a)
		}
		txns, err := db.LoadTransactions()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load transactions")
		}
		replayed, err := ledger.Replay(cfg.TotalSupply, cfg.WealthCapFraction, cfg.WelfareFloor, txns)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to replay ledger")
		}
		replayed.ConfigureMint(cfg.AdminToken, cfg.MintPeriodDays, cfg.MintPeriodCapFraction)
		city.Ledger = replayed

		events, witnesses, err := db.LoadEvents()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load events")
		}
		for i, e := range events {
			city.Events.Restore(e, witnesses[i])
		}
		loadedCases, err := db.LoadCases()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load cases")
		}
		for _, c := range loadedCases {
			city.Cases.Restore(c)
		}
		loadedGangs, err := db.LoadGangs()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load gangs")
		}
		for _, g := range loadedGangs {
			city.Gangs.Restore(g)
		}
		loadedProjects, err := db.LoadProjects()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load projects")
		}
		for _, p := range loadedProjects {
			city.Projects.Restore(p)
		}
		loadedAssets, err := db.LoadAssets()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load assets")
		}
		for _, a := range loadedAssets {
			city.Projects.RestoreAsset(a)
		}

		if dayStr, err := db.GetMeta("day"); err == nil {
			if day, err := strconv.Atoi(dayStr); err == nil {
				city.Day = day
			}
		}
	} else {
		log.Info().Int("count", genesisPopulation).Msg("no saved state, seeding genesis population")
		seedGenesis(city, world, log)
	}

	pool := decision.NewPool(cfg.ReasoningPoolSize)
	scheduler := engine.NewScheduler(city, pool, cfg.DayInterval)
	scheduler.OnDay = func(day int, err error) {
		if err != nil {
			log.Error().Err(err).Int("day", day).Msg("day advance failed")
			return
		}
		if saveErr := saveWorldState(db, city); saveErr != nil {
			log.Error().Err(saveErr).Int("day", day).Msg("persistence save failed")
		}
		log.Info().Int("day", day).Int64("circulating", city.Ledger.Circulating()).Msg("day complete")
	}

	// The Observer Push Channel is mounted on its own listener rather than
	// through api.Server.Router, keeping the long-lived websocket upgrade
	// path independent of the short-lived JSON snapshot routes.
	hub := observer.NewHub(city.Events, log, cfg.ObserverQueueSize)
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/api/v1/stream", hub)
		if err := http.ListenAndServe(cfg.ObserverAddr, mux); err != nil {
			log.Error().Err(err).Msg("observer stream server error")
		}
	}()

	apiServer := &api.Server{City: city, Log: log, Addr: cfg.HTTPAddr, AdminKey: cfg.AdminToken}
	apiServer.Start()
	log.Info().Str("addr", cfg.HTTPAddr).Msg("http api listening")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go scheduler.Run(ctx)

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, saving final state")
	scheduler.Stop()
	if err := apiServer.Shutdown(); err != nil {
		log.Error().Err(err).Msg("http api shutdown error")
	}
	if err := saveWorldState(db, city); err != nil {
		log.Error().Err(err).Msg("final persistence save failed")
	}
	log.Info().Msg("AIcity stopped")
}

func seedGenesis(city *engine.City, world *worldgen.World, log zerolog.Logger) {
	roles := []agents.Role{
		agents.RoleBuilder, agents.RoleExplorer, agents.RoleMerchant, agents.RolePolice,
		agents.RoleTeacher, agents.RoleHealer, agents.RoleMessenger, agents.RoleLawyer,
	}
	for i := 0; i < genesisPopulation; i++ {
		role := roles[i%len(roles)]
		id := city.NextAgentID()
		a := agents.RoleDefaults(id, "citizen-"+strconv.FormatUint(uint64(id), 10), role, 0)
		if lotID, q, r, ok := world.ClaimLot(0); ok {
			a.HomeLotID, a.TileQ, a.TileR = &lotID, &q, &r
		}
		city.Register(a)
		registrationAmount := city.Ledger.WelfareFloor() * 5
		if _, err := city.Ledger.Apply(ledger.Transaction{
			Day: 0, Kind: ledger.KindRegistration, From: ledger.VaultID,
			To: ledger.AgentID(a.ID), Amount: registrationAmount, Note: "genesis registration",
		}); err != nil {
			log.Error().Err(err).Uint64("agent_id", uint64(a.ID)).Msg("genesis registration failed")
			continue
		}
		a.Balance = city.Ledger.Balance(ledger.AgentID(a.ID))
	}
}

func saveWorldState(db *persistence.DB, city *engine.City) error {
	if err := db.SaveAgents(city.Agents); err != nil {
		return err
	}
	if err := db.SaveTransactions(city.Ledger.Log()); err != nil {
		return err
	}
	if err := db.SaveEvents(city.Events.All()); err != nil {
		return err
	}
	if err := db.SaveCases(city.Cases.All()); err != nil {
		return err
	}
	if err := db.SaveGangs(city.Gangs.All()); err != nil {
		return err
	}
	if err := db.SaveProjects(city.Projects.All()); err != nil {
		return err
	}
	if err := db.SaveAssets(city.Projects.AllAssets()); err != nil {
		return err
	}
	return db.SaveMeta("day", strconv.Itoa(city.Day))
}
