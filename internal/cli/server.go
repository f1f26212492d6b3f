package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"event-live-service/internal/app"
	"event-live-service/internal/config"
	"event-live-service/internal/domain"
	"event-live-service/internal/infra/memory"
	pginfra "event-live-service/internal/infra/postgres"
	redisinfra "event-live-service/internal/infra/redis"
	transport "event-live-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the live game server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pool.Close()
	}

	questionTTL := config.DurationOr(cfg.Game.QuestionTTL, 10*time.Minute)
	pollInterval := config.DurationOr(cfg.Game.PollInterval, 5*time.Second)
	displayDuration := config.DurationOr(cfg.Game.DisplayDuration, 10*time.Second)
	answerDuration := config.DurationOr(cfg.Game.AnswerDuration, 20*time.Second)

	var loader memory.QuestionLoader = memory.NewStaticQuestionLoader(sampleQuestions())
	if pool != nil {
		loader = pginfra.NewQuestionLoader(pool)
	}

	var questions app.QuestionRepository
	if redisClient != nil {
		questions = redisinfra.NewQuestionRepository(redisClient, loader, questionTTL)
	} else {
		questions = memory.NewQuestionRepository(loader, questionTTL)
	}

	var (
		gameStates    app.GameStateRepository
		lotteryStates app.LotteryStateRepository
		publisher     app.Notifier
		feed          app.Subscriber
	)
	if redisClient != nil {
		gameStates = redisinfra.NewGameStateStore(redisClient)
		lotteryStates = redisinfra.NewLotteryStateStore(redisClient)
		notifier := redisinfra.NewNotifier(redisClient)
		publisher, feed = notifier, notifier
	} else {
		gameStates = memory.NewGameStateStore()
		lotteryStates = memory.NewLotteryStateStore()
		notifier := memory.NewNotifier()
		publisher, feed = notifier, notifier
	}

	var (
		answers      app.AnswerRepository
		rules        app.RulesRepository
		participants app.ParticipantRepository
		draws        app.DrawRecordRepository
	)
	if pool != nil {
		answers = pginfra.NewAnswerStore(pool)
		rules = pginfra.NewRulesStore(pool)
		participants = pginfra.NewParticipantStore(pool)
		draws = pginfra.NewDrawRecordStore(pool)
	} else {
		answers = memory.NewAnswerStore()
		rules = memory.NewRulesStore()
		participants = memory.NewParticipantStore(sampleParticipants())
		draws = memory.NewDrawRecordStore()
	}

	controller := app.NewSessionController(gameStates, questions, publisher, app.SessionConfig{
		DisplayDuration: displayDuration,
		AnswerDuration:  answerDuration,
	})
	engine := app.NewScoringEngine(answers, questions, rules, gameStates, app.ScoringConfig{})
	lottery := app.NewLotteryCoordinator(lotteryStates, draws, participants, app.LotteryConfig{})

	api := transport.NewAPI(controller, engine, lottery, gameStates, feed, transport.APIConfig{
		PollInterval: pollInterval,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	api.Register(mux)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("port", finalPort).Msg("starting event live service")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("failed to start server")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Info().Msg("shutting down server...")
	case <-ctx.Done():
		log.Info().Msg("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleQuestions provides a minimal question bank for running without a
// database; production deployments load from Postgres.
func sampleQuestions() map[string]domain.Question {
	return map[string]domain.Question{
		"q1": {
			ID:   "q1",
			Text: "Which year was the company founded?",
			Options: []domain.Option{
				{Label: "A", Text: "2001"},
				{Label: "B", Text: "2008"},
				{Label: "C", Text: "2012"},
				{Label: "D", Text: "2015"},
			},
			CorrectOption: "B",
			BonusEligible: true,
		},
		"q2": {
			ID:   "q2",
			Text: "Where is this year's venue?",
			Options: []domain.Option{
				{Label: "A", Text: "Hall 1"},
				{Label: "B", Text: "Hall 2"},
				{Label: "C", Text: "The rooftop"},
				{Label: "D", Text: "Main auditorium"},
			},
			CorrectOption: "D",
			BonusEligible: true,
		},
	}
}

func sampleParticipants() []domain.Participant {
	return []domain.Participant{
		{UserID: "u1", DisplayName: "Alice"},
		{UserID: "u2", DisplayName: "Bob"},
	}
}
