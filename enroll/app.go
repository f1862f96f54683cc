package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finnjohnston/enrollment/cache"
	"github.com/finnjohnston/enrollment/catalog"
	"github.com/finnjohnston/enrollment/config"
	"github.com/finnjohnston/enrollment/db"
	"github.com/finnjohnston/enrollment/errs"
	"github.com/finnjohnston/enrollment/graph"
	"github.com/finnjohnston/enrollment/planning"
	"github.com/finnjohnston/enrollment/policy"
	"github.com/finnjohnston/enrollment/requirement"
	"github.com/finnjohnston/enrollment/snapshot"
	"github.com/finnjohnston/enrollment/store"
)

// app holds everything a command needs, built once from the configuration.
type app struct {
	config   *config.Config
	logger   *slog.Logger
	database *db.Database

	holder   *snapshot.Holder
	programs []*requirement.Program
	engine   *policy.Engine
	cache    *cache.LRU[string, planning.Recommendations]
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{config: cfg, logger: logger}

	var (
		catalogSource catalog.Source
		programSource requirement.Source
		policySource  policy.Source
	)
	if cfg.Database.Enabled {
		database, err := db.Open(ctx, cfg.Database.ConnectionString)
		if err != nil {
			return nil, err
		}
		a.database = database
		catalogSource, programSource, policySource = database, database, database
	} else {
		catalogSource = catalog.FileSource{Path: cfg.Sources.Catalog}
		if cfg.Sources.Programs != "" {
			programSource = requirement.FileSource{Path: cfg.Sources.Programs}
		}
		if cfg.Sources.Policies != "" {
			policySource = policy.FileSource{Path: cfg.Sources.Policies}
		}
	}

	a.holder = snapshot.NewHolder(catalogSource, cfg.Planning.Eligibility, logger, graph.WithPathLimit(cfg.Planning.PathLimit))
	current, err := a.holder.Reload(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	if programSource != nil {
		a.programs, err = requirement.Load(ctx, programSource, logger)
		if err != nil {
			a.close()
			return nil, err
		}
		for program, codes := range requirement.UnknownCourses(a.programs, current.Catalog) {
			logger.Warn("Program references courses missing from the catalog", "program", program, "courses", codes)
		}
	}

	var policies []policy.Policy
	if policySource != nil {
		policies, err = policySource.Policies(ctx)
		if err != nil {
			a.close()
			return nil, err
		}
	}
	a.engine, err = policy.NewEngine(policies, policy.DefaultRegistry(),
		policy.WithSchools(a.schools()),
		policy.WithCourses(a.holder),
		policy.WithLogger(logger))
	if err != nil {
		a.close()
		return nil, err
	}

	a.cache = cache.New[string, planning.Recommendations]("recommendations", cfg.Planning.CacheCapacity)
	a.holder.OnReload(func(*snapshot.Snapshot) { a.cache.Purge() })
	return a, nil
}

func (a *app) schools() map[string]string {
	schools := make(map[string]string, len(policy.DefaultSchools)+len(a.config.Planning.Schools))
	for school, abbreviation := range policy.DefaultSchools {
		schools[school] = abbreviation
	}
	for school, abbreviation := range a.config.Planning.Schools {
		schools[school] = abbreviation
	}
	return schools
}

func (a *app) close() {
	if a.database != nil {
		a.database.Close()
	}
}

func (a *app) snapshot() *snapshot.Snapshot {
	return a.holder.Current()
}

func (a *app) environment() planning.Environment {
	return planning.Environment{
		Eligibility: a.snapshot().Eligibility,
		Policies:    a.engine,
		Cache:       a.cache,
		Logger:      a.logger,
		Years:       a.config.Planning.Years,
	}
}

// selectPrograms resolves program names, matched case-insensitively.
func (a *app) selectPrograms(names []string) ([]*requirement.Program, error) {
	selected := make([]*requirement.Program, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		var found *requirement.Program
		for _, program := range a.programs {
			if strings.EqualFold(program.Name, name) {
				found = program
				break
			}
		}
		if found == nil {
			return nil, errs.NotFound("program %q", name)
		}
		selected = append(selected, found)
	}
	return selected, nil
}

// resolveCodes normalizes codes and checks that each is in the catalog.
func (a *app) resolveCodes(codes []string) (graph.Set, error) {
	set := graph.NewSet()
	cat := a.snapshot().Catalog
	for _, code := range codes {
		course, err := cat.Lookup(code)
		if err != nil {
			return nil, err
		}
		set.Add(course.Code)
	}
	return set, nil
}

func (a *app) openStore() (*store.PlanStore, error) {
	return store.Open(a.config.Store.Path, a.logger)
}

func (a *app) loadPlan(plans *store.PlanStore, id string) (*planning.Plan, error) {
	state, err := plans.Load(id)
	if err != nil {
		return nil, err
	}
	plan, err := planning.Restore(a.environment(), a.programs, state)
	if err != nil {
		return nil, fmt.Errorf("restore plan %s: %w", id, err)
	}
	return plan, nil
}
