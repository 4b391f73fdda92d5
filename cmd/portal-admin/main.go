package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-portal/internal/calendar"
	"github.com/noah-isme/attendance-portal/internal/models"
	"github.com/noah-isme/attendance-portal/internal/repository"
	"github.com/noah-isme/attendance-portal/internal/service"
	"github.com/noah-isme/attendance-portal/pkg/config"
	"github.com/noah-isme/attendance-portal/pkg/database"
	"github.com/noah-isme/attendance-portal/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cal := calendar.New(calendar.Config{
		ClassDays: cfg.Course.ClassDays,
		TermStart: cfg.Course.TermStart,
		TermEnd:   cfg.Course.TermEnd,
		Location:  cfg.Course.Location,
	})

	db := &lazyDB{cfg: cfg.Database}
	defer db.Close()

	attendance := service.NewAttendanceService(cal, &lazyAttendanceStore{db: db}, nil, nil, service.AttendanceConfig{
		CourseCode: cfg.Course.Code,
	}, logr)

	cli := commandLine{
		out:      os.Stdout,
		now:      time.Now,
		calendar: cal,
		checkIns: attendance,
		exports:  service.NewExportService(nil, nil, nil, service.ExportConfig{CourseCode: cfg.Course.Code}, logr),
		migrate: func(ctx context.Context) ([]string, error) {
			conn, err := db.get(ctx)
			if err != nil {
				return nil, err
			}
			return database.Migrate(ctx, conn)
		},
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if !errors.Is(err, errHelp) {
			logr.Error("command failed", zap.Error(err))
		}
		stop()
		os.Exit(1)
	}
}

// lazyDB connects on first use so calendar-only commands run without a database.
type lazyDB struct {
	cfg  config.DatabaseConfig
	conn *sqlx.DB
}

func (l *lazyDB) get(ctx context.Context) (*sqlx.DB, error) {
	if l.conn != nil {
		return l.conn, nil
	}
	conn, err := database.NewPostgres(ctx, l.cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	l.conn = conn
	return conn, nil
}

func (l *lazyDB) Close() {
	if l.conn != nil {
		_ = l.conn.Close()
	}
}

type lazyAttendanceStore struct {
	db *lazyDB
}

func (s *lazyAttendanceStore) repo(ctx context.Context) (*repository.AttendanceRepository, error) {
	conn, err := s.db.get(ctx)
	if err != nil {
		return nil, err
	}
	return repository.NewAttendanceRepository(conn), nil
}

func (s *lazyAttendanceStore) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, error) {
	repo, err := s.repo(ctx)
	if err != nil {
		return nil, err
	}
	return repo.List(ctx, filter)
}

func (s *lazyAttendanceStore) Create(ctx context.Context, record *models.AttendanceRecord) error {
	repo, err := s.repo(ctx)
	if err != nil {
		return err
	}
	return repo.Create(ctx, record)
}
