package container

import (
	"context"
	"log"

	"gopower/adapters/memory"
	"gopower/adapters/postgres"
	"gopower/adapters/stats/power"
	"gopower/app"
	"gopower/internal/config"
	"gopower/internal/errors"
	"gopower/internal/migration"
	"gopower/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer)
	CalculationRepo ports.CalculationRepository

	// Calculation components
	Calculator   *power.Calculator
	PowerService *app.PowerService
}

// New creates a container backed by the in-memory calculation store
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, errors.ConfigInvalid("config cannot be nil")
	}

	calc, err := NewCalculator(cfg.Power)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config:          cfg,
		Calculator:      calc,
		CalculationRepo: memory.NewCalculationRepository(),
	}
	c.initServices()
	return c, nil
}

// NewCalculator builds the calculator from configuration. A confidence
// level, when set, takes precedence over an explicit z value.
func NewCalculator(cfg config.PowerConfig) (*power.Calculator, error) {
	if cfg.ConfidenceLevel != 0 {
		return power.NewCalculatorWithConfidence(cfg.ConfidenceLevel)
	}
	return power.NewCalculatorWithZ(cfg.ZAlpha)
}

// Connect opens the configured PostgreSQL database and runs migrations
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if !cfg.Enabled() {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.URL)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	if err := migration.NewRunner().Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}

// InitWithDatabase switches calculation storage to PostgreSQL
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return errors.ConfigInvalid("database connection cannot be nil")
	}

	if err := db.Ping(); err != nil {
		return errors.DatabaseError("database connection test failed", err)
	}

	c.DB = db
	c.CalculationRepo = postgres.NewCalculationRepository(db)
	c.initServices()

	log.Printf("Container initialized with PostgreSQL calculation storage")
	return nil
}

func (c *Container) initServices() {
	c.PowerService = app.NewPowerService(c.Calculator, c.CalculationRepo, app.SimulationDefaults{
		Trials:  c.Config.Simulation.Trials,
		Workers: c.Config.Simulation.Workers,
		Seed:    c.Config.Simulation.Seed,
	})
}

// Shutdown gracefully shuts down all components
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
