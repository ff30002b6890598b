package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bind variables in spans; dev only
	SlowQueryThresh time.Duration
	DBName          string
}

// DefaultDBTracingConfig returns the production defaults
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBName:          "stoflow",
	}
}

// DBTracingPlugin registers otelgorm plus slow-query span annotations
type DBTracingPlugin struct {
	config DBTracingConfig
	logger *zap.Logger
}

// NewDBTracingPlugin creates a database tracing plugin
func NewDBTracingPlugin(cfg DBTracingConfig, logger *zap.Logger) *DBTracingPlugin {
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}
	return &DBTracingPlugin{config: cfg, logger: logger}
}

type queryStartKey struct{}

// gorm processors that get timing callbacks
var tracedProcessors = []string{"create", "query", "update", "delete", "row", "raw"}

// Register installs the plugin on db; a disabled config is a no-op
func (p *DBTracingPlugin) Register(db *gorm.DB) error {
	if !p.config.Enabled {
		p.logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(p.config.DBName)}
	if !p.config.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	for _, name := range tracedProcessors {
		before, after := p.hooks(db, name)
		if err := before.Register("stoflow_timing:before_"+name, p.markStart); err != nil {
			return err
		}
		if err := after.Register("stoflow_timing:after_"+name, p.annotate); err != nil {
			return err
		}
	}

	p.logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", p.config.LogFullSQL),
		zap.Duration("slow_query_threshold", p.config.SlowQueryThresh),
	)
	return nil
}

// callbackRegistrar is the Register half of gorm's processor callback chain
type callbackRegistrar interface {
	Register(name string, fn func(*gorm.DB)) error
}

func (p *DBTracingPlugin) hooks(db *gorm.DB, name string) (callbackRegistrar, callbackRegistrar) {
	cb := db.Callback()
	gormName := "gorm:" + name
	switch name {
	case "create":
		return cb.Create().Before(gormName), cb.Create().After(gormName)
	case "query":
		return cb.Query().Before(gormName), cb.Query().After(gormName)
	case "update":
		return cb.Update().Before(gormName), cb.Update().After(gormName)
	case "delete":
		return cb.Delete().Before(gormName), cb.Delete().After(gormName)
	case "row":
		return cb.Row().Before(gormName), cb.Row().After(gormName)
	default:
		return cb.Raw().Before(gormName), cb.Raw().After(gormName)
	}
}

func (p *DBTracingPlugin) markStart(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartKey{}, time.Now())
	}
}

func (p *DBTracingPlugin) annotate(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > p.config.SlowQueryThresh {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.config.SlowQueryThresh.Milliseconds()),
		))
	}
}
