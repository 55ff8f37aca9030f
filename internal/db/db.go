package db

import (
	"fmt"
	stdlog "log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/config"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/logger"
	"github.com/Windi-Fikriyansyah/freelancehub_be/internal/models"
)

// Connect opens the postgres pool and verifies it with a ping.
func Connect(cfg config.Config) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.LogLevel == "debug" {
		level = gormlogger.Info
	}

	zl := logger.WithComponent("gorm")
	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormlogger.New(stdlog.New(zl, "", 0), gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return gdb, nil
}

const activeJobsView = `CREATE OR REPLACE VIEW active_jobs AS
SELECT j.id, j.client_id, j.title, j.description, j.target_skills, j.connects_required,
       j.est_time, j.job_level, j.price, j.posted_on
FROM jobs j
WHERE NOT EXISTS (
    SELECT 1 FROM proposals p
    WHERE p.job_id = j.id AND p.status IN ('Accepted', 'Completed')
)`

const transactionsHistoryView = `CREATE OR REPLACE VIEW transactions_history AS
SELECT t.id, t.job_id, t.amount, t.status, t.transaction_on,
       j.title AS job_title, j.client_id, u.name AS client_name
FROM transactions t
JOIN jobs j ON j.id = t.job_id
JOIN users u ON u.id = j.client_id`

// Migrate brings the schema up to date and recreates the reporting views.
func Migrate(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return createViews(gdb)
}

func createViews(gdb *gorm.DB) error {
	for _, stmt := range []string{activeJobsView, transactionsHistoryView} {
		if err := gdb.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create view: %w", err)
		}
	}
	return nil
}
