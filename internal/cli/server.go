package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/auth"
	"trivia-quiz-service/internal/config"
	"trivia-quiz-service/internal/events"
	"trivia-quiz-service/internal/infra/memory"
	"trivia-quiz-service/internal/infra/postgres"
	rediscache "trivia-quiz-service/internal/infra/redis"
	"trivia-quiz-service/internal/logging"
	"trivia-quiz-service/internal/metrics"
	"trivia-quiz-service/internal/seed"
	transport "trivia-quiz-service/internal/transport/http"
)

const serviceName = "quiz-service"

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

type attemptBackend interface {
	app.AttemptStore
	app.AttemptReader
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger := logging.New(serviceName, cfg.Log.Level, nil)

	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	var (
		bank     app.QuestionStore
		attempts attemptBackend
	)
	if cfg.Postgres.URL != "" {
		if err := runMigrations(ctx, cfg, logger); err != nil {
			return err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pool.Close()
		db := postgres.OpenBun(cfg.Postgres.URL)
		defer db.Close()

		store := postgres.NewQuestionStore(pool)
		if err := seedIfEmpty(ctx, store, logger); err != nil {
			return err
		}
		bank = store
		attempts = postgres.NewAttemptStore(db)
	} else {
		questions, err := seed.Questions()
		if err != nil {
			return err
		}
		logger.WithField("questions", len(questions)).Warn("postgres not configured, using in-memory storage")
		bank = memory.NewQuestionStore(questions)
		attempts = memory.NewAttemptStore()
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	idempotencyTTL := config.TTLDuration(cfg.Submission.IdempotencyTTL, 24*time.Hour)

	var (
		questions app.QuestionRepository
		cache     app.CacheInvalidator
		guard     app.SubmissionGuard
	)
	if redisClient != nil {
		c := rediscache.NewQuestionCache(redisClient, bank, config.TTLDuration(cfg.Redis.TTL, quizTTL))
		questions, cache = c, c
		guard = rediscache.NewSubmissionGuard(redisClient, idempotencyTTL)
	} else {
		c := memory.NewPoolCache(bank, quizTTL)
		questions, cache = c, c
		guard = memory.NewSubmissionGuard(idempotencyTTL)
	}

	publisher, local, err := newEventPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer publisher.Close()

	m := metrics.New()
	stats := app.NewStatsService(attempts, app.NewLeaderboardHub(), logger)
	sealer := app.NewSessionSealer([]byte(cfg.Quiz.SessionSecret), config.TTLDuration(cfg.Quiz.SessionTTL, 2*time.Hour))
	quiz := app.NewQuizService(questions, attempts, sealer,
		app.Settings{SessionSize: cfg.Quiz.Size, PointsPerQuestion: cfg.Quiz.PointsPerQuestion},
		app.WithLogger(logger),
		app.WithRecorder(m),
		app.WithSubmissionGuard(guard),
		app.WithListeners(stats, publisher),
	)
	admin := app.NewAdminService(bank, logger, cache)

	gin.SetMode(gin.ReleaseMode)
	router := transport.NewRouter(transport.Dependencies{
		Quiz:           quiz,
		Stats:          stats,
		Admin:          admin,
		Verifier:       auth.NewVerifier([]byte(cfg.Auth.JWTSecret)),
		Logger:         logger,
		Observer:       m,
		MetricsHandler: m.Handler(),
	})

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return stats.Run(gctx)
	})
	if local != nil {
		attemptEvents, err := local.Subscribe(gctx, cfg.Kafka.Topic)
		if err != nil {
			return fmt.Errorf("subscribe attempt events: %w", err)
		}
		g.Go(func() error {
			events.LogAttempts(attemptEvents, logger)
			return nil
		})
	}
	g.Go(func() error {
		logger.WithField("port", finalPort).Info("starting quiz service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// seedIfEmpty loads the bundled bank into a fresh database so the service can start quizzes.
func seedIfEmpty(ctx context.Context, store *postgres.QuestionStore, logger logrus.FieldLogger) error {
	existing, err := store.FindAll(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	questions, err := seed.Questions()
	if err != nil {
		return err
	}
	inserted, err := store.InsertMissing(ctx, questions)
	if err != nil {
		return err
	}
	logger.WithField("inserted", inserted).Info("empty question bank seeded")
	return nil
}

// newEventPublisher returns the subscriber side too when events stay in process.
func newEventPublisher(cfg config.Config, logger logrus.FieldLogger) (*events.Publisher, message.Subscriber, error) {
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka publisher: %w", err)
		}
		return events.NewPublisher(kp, cfg.Kafka.Topic, logger), nil, nil
	}
	logger.Warn("kafka brokers not configured, attempt events are only logged in process")
	local := events.NewGoChannel(logger)
	return events.NewPublisher(local, cfg.Kafka.Topic, logger), local, nil
}
