package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pmartell/flight-delay-frontend/internal/airports"
	"github.com/pmartell/flight-delay-frontend/internal/client"
	"github.com/pmartell/flight-delay-frontend/internal/config"
	"github.com/pmartell/flight-delay-frontend/internal/flow"
	httphandler "github.com/pmartell/flight-delay-frontend/internal/http"
	"github.com/pmartell/flight-delay-frontend/internal/lifecycle"
	"github.com/pmartell/flight-delay-frontend/internal/models"
	"github.com/pmartell/flight-delay-frontend/internal/observability"
	"github.com/pmartell/flight-delay-frontend/internal/render"
)

var (
	portFlag   string
	apiURLFlag string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "delay-frontend",
		Short: "Serve the flight delay prediction page",
		Long: `delay-frontend serves a small web page that predicts flight delay
probability for a chosen day of week and origin airport, backed by a
remote prediction API.`,
		Run: func(cmd *cobra.Command, args []string) {
			serve()
		},
	}
	rootCmd.Flags().StringVarP(&portFlag, "port", "p", "", "Override the listen port")
	rootCmd.Flags().StringVar(&apiURLFlag, "api", "", "Override the prediction API base URL")

	addCheckCmd(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve() {
	_ = godotenv.Load()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	if portFlag != "" {
		cfg.ServerPort = portFlag
	}
	if apiURLFlag != "" {
		cfg.PredictionAPIURL = apiURLFlag
	}

	predictionClient, err := client.NewHTTPPredictionClient(cfg.PredictionAPIURL, cfg.PredictionAPITimeout)
	if err != nil {
		logger.Fatal("prediction client", zap.Error(err))
	}

	// The airport list loads once per process; the submit control stays
	// disabled if this fails, and a restart is the recovery path.
	store := airports.NewStore()
	loadCtx, loadCancel := context.WithTimeout(context.Background(), cfg.PredictionAPITimeout)
	if err := store.Load(loadCtx, predictionClient); err != nil {
		logger.Warn("airport list load failed; predictions disabled until restart", zap.Error(err))
	} else {
		logger.Info("airport list loaded", zap.Int("count", store.Count()))
	}
	loadCancel()

	controller := flow.NewController(predictionClient, store, logger, cfg.PredictionAPITimeout)

	renderer, err := render.New(cfg.RiskThreshold)
	if err != nil {
		logger.Fatal("renderer", zap.Error(err))
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	handler := httphandler.NewHandler(controller, store, renderer, predictionClient, logger)
	router := httphandler.NewRouter(handler, logger, limiter, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", ":"+cfg.ServerPort),
			zap.String("prediction_api", cfg.PredictionAPIURL))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

// addCheckCmd adds a 'check' subcommand that exercises the prediction API
// end to end: health, airport list, and a few sample predictions.
func addCheckCmd(rootCmd *cobra.Command) {
	var apiURL string
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Check the prediction API (health, airports, sample predictions)",
		Run: func(cmd *cobra.Command, args []string) {
			_ = godotenv.Load()
			if apiURL == "" {
				if cfg, err := config.Load(); err == nil {
					apiURL = cfg.PredictionAPIURL
				} else {
					apiURL = "http://localhost:5000"
				}
			}
			if err := runCheck(cmd, apiURL); err != nil {
				cmd.PrintErrln(fmt.Errorf("check failed: %w", err))
				os.Exit(1)
			}
		},
	}
	checkCmd.Flags().StringVar(&apiURL, "api", "", "Prediction API base URL")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, apiURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := client.NewHTTPPredictionClient(apiURL, 5*time.Second)
	if err != nil {
		return err
	}

	cmd.Println(fmt.Sprintf("Checking prediction API at %s", apiURL))

	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	cmd.Println("Health: ok")

	list, err := c.ListAirports(ctx)
	if err != nil {
		return fmt.Errorf("airport list: %w", err)
	}
	cmd.Println(fmt.Sprintf("Airports: %d loaded", len(list)))
	for i, a := range list {
		if i >= 3 {
			break
		}
		cmd.Println(fmt.Sprintf("  - %s (ID: %d)", a.Name, a.ID))
	}
	if len(list) == 0 {
		return fmt.Errorf("airport list is empty")
	}

	sampleDays := []models.DayOfWeek{models.Monday, models.Friday, models.Sunday}
	for i, day := range sampleDays {
		airport := list[i%len(list)]
		result, err := c.Predict(ctx, models.PredictionRequest{DayOfWeek: day, AirportID: airport.ID})
		if err != nil {
			cmd.Println(fmt.Sprintf("  %s at %s: prediction failed (%v)", day, airport.Name, err))
			continue
		}
		cmd.Println(fmt.Sprintf("  %s at %s: %.1f%% delay risk", day, airport.Name, result.DelayProbability*100))
	}

	cmd.Println("System is ready.")
	return nil
}
