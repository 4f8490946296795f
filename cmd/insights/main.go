package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/egannguyen/cart-insights/internal/cache"
	"github.com/egannguyen/cart-insights/internal/config"
	"github.com/egannguyen/cart-insights/internal/messaging"
	"github.com/egannguyen/cart-insights/internal/messaging/kafka"
	"github.com/egannguyen/cart-insights/internal/repository/postgres"
	"github.com/egannguyen/cart-insights/internal/scheduler"
	"github.com/egannguyen/cart-insights/internal/scoring"
	"github.com/egannguyen/cart-insights/internal/service"
)

func main() {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	cfg, err := config.Load(getEnv("CONFIG_FILE", ""))
	if err != nil {
		slog.Error("Failed to load config", "err", err)
		os.Exit(1)
	}

	db, err := postgres.InitDB(cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to init database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	events := postgres.NewEventLog(db)
	carts := postgres.NewCartRepository(db)
	abandonments := postgres.NewAbandonmentRepository(db)
	scores := postgres.NewScoreRepository(db)

	scoreCache := cache.NewScoreCache(cfg.Redis.Addr, cfg.Redis.TTL.Std())
	defer scoreCache.Close()

	publisher, subscriber := kafka.NewKafkaBroker(cfg.Kafka.Brokers)

	engine := scoring.NewEngine(cfg.Scoring.Weights, cfg.Scoring.Benchmarks)
	detector := service.NewDetector(carts, abandonments, cfg.Detector.Threshold.Std())
	dispatcher := service.NewDispatcher(abandonments, publisher, cfg.Kafka.RemindersTopic, cfg.Reminder.Threshold.Std())
	scorer := service.NewScorer(abandonments, events, scores, engine, scoreCache)
	analytics := service.NewAnalytics(scores, abandonments)
	ingestor := service.NewIngestor(events, carts)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		serve(ctx, cfg, subscriber, ingestor, detector, dispatcher, scorer)

	case "score-user":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: insights score-user <user-id>")
			os.Exit(2)
		}
		score, err := scorer.CalculateUserScore(ctx, os.Args[2])
		if err != nil {
			slog.Error("Failed to score user", "user_id", os.Args[2], "err", err)
			os.Exit(1)
		}
		printJSON(score)

	case "summary":
		sum, err := analytics.Summary(ctx)
		if err != nil {
			slog.Error("Failed to build summary", "err", err)
			os.Exit(1)
		}
		printJSON(sum)

	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (expected serve, score-user, or summary)\n", cmd)
		os.Exit(2)
	}
}

func serve(
	ctx context.Context,
	cfg config.Config,
	subscriber messaging.Subscriber,
	ingestor *service.Ingestor,
	detector *service.Detector,
	dispatcher *service.Dispatcher,
	scorer *service.Scorer,
) {
	// Consumer: carts.events → event log + cart mirror
	go subscriber.Consume(ctx, cfg.Kafka.EventsTopic, cfg.Kafka.GroupID, ingestor.HandleMessage)
	slog.Info("Cart event consumer started", "topic", cfg.Kafka.EventsTopic)

	sched := scheduler.New()
	sched.Add(scheduler.Job{
		Name:     "detect-abandoned-carts",
		Interval: cfg.Detector.Interval.Std(),
		Timeout:  cfg.JobTimeout.Std(),
		Run: func(ctx context.Context) error {
			res, err := detector.DetectAbandonedCarts(ctx)
			if err != nil {
				return err
			}
			slog.Info(res.String())
			return nil
		},
	})
	sched.Add(scheduler.Job{
		Name:         "send-abandonment-reminders",
		Interval:     cfg.Reminder.Interval.Std(),
		InitialDelay: cfg.Reminder.Offset.Std(),
		Timeout:      cfg.JobTimeout.Std(),
		Run: func(ctx context.Context) error {
			res, err := dispatcher.SendAbandonmentReminders(ctx)
			if err != nil {
				return err
			}
			slog.Info(res.String())
			return nil
		},
	})
	sched.Add(scheduler.Job{
		Name:     "calculate-user-scores",
		Interval: cfg.Scoring.Interval.Std(),
		Timeout:  cfg.JobTimeout.Std(),
		Run: func(ctx context.Context) error {
			res, err := scorer.CalculateUserScoresBulk(ctx)
			if err != nil {
				return err
			}
			slog.Info(res.String())
			return nil
		},
	})

	slog.Info("🔄 Scheduled sweeps started")
	sched.Run(ctx)
	slog.Info("Shutting down...")
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		slog.Error("Failed to render output", "err", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
