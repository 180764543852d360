package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"

	"marginApp/config"
	"marginApp/internal/adapters/logger"
	"marginApp/internal/adapters/storefactory"
	"marginApp/internal/api/handlers"
	"marginApp/internal/app"
	"marginApp/internal/domain"
	"marginApp/internal/risk"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var errUsage = errors.New("usage: positionctl <open|update|close|get|stats> [flags]")

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger, err := logger.NewZapLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	// 3. Initialize Repository
	repo, err := storefactory.Open(ctx, cfg, appLogger)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize position store: %v", err)
	}
	defer repo.Close()

	// 4. Initialize Services
	lifecycle, err := app.NewPositionLifecycle(appLogger, repo)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize position lifecycle: %v", err)
	}
	stats, err := app.NewStatisticsService(appLogger, repo)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize statistics service: %v", err)
	}

	riskManager := risk.NewRiskManager(risk.RiskConfig{MaxLeverage: cfg.MaxMultiplier})

	if err := run(ctx, os.Args[1:], lifecycle, stats, riskManager, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes one subcommand and writes its JSON result to out.
func run(ctx context.Context, args []string, svc handlers.PositionService, stats handlers.StatisticsProvider, rm *risk.RiskManager, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	idStr := fs.String("id", "", "position ID")
	userStr := fs.String("user", "", "user ID")
	amountStr := fs.String("amount", "", "borrowed amount")
	multiplier := fs.Int("multiplier", 0, "leverage multiplier")
	txID := fs.String("tx", "", "transaction ID")
	if err := fs.Parse(rest); err != nil {
		return fmt.Errorf("%s: %w", cmd, err)
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	switch cmd {
	case "open":
		userID, err := uuid.Parse(*userStr)
		if err != nil {
			return fmt.Errorf("open: -user must be a valid UUID: %w", err)
		}
		amount, err := decimal.NewFromString(*amountStr)
		if err != nil {
			return fmt.Errorf("open: -amount must be a decimal: %w", err)
		}
		if err := rm.ValidateOpen(amount, *multiplier); err != nil {
			return err
		}
		pos, err := svc.Open(ctx, userID, amount, *multiplier, *txID)
		if err != nil {
			return err
		}
		return printJSON(out, handlers.NewPositionResponse(pos))

	case "update":
		id, err := uuid.Parse(*idStr)
		if err != nil {
			return fmt.Errorf("update: -id must be a valid UUID: %w", err)
		}
		var patch domain.PositionPatch
		if set["amount"] {
			amount, err := decimal.NewFromString(*amountStr)
			if err != nil {
				return fmt.Errorf("update: -amount must be a decimal: %w", err)
			}
			patch.BorrowedAmount = &amount
		}
		if set["multiplier"] {
			m := *multiplier
			patch.Multiplier = &m
		}
		if err := rm.ValidatePatch(patch); err != nil {
			return err
		}
		pos, err := svc.Update(ctx, id, patch)
		if err != nil {
			return err
		}
		if pos == nil {
			return fmt.Errorf("margin position %s not found", id)
		}
		return printJSON(out, handlers.NewPositionResponse(pos))

	case "close":
		id, err := uuid.Parse(*idStr)
		if err != nil {
			return fmt.Errorf("close: -id must be a valid UUID: %w", err)
		}
		result, err := svc.Close(ctx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("margin position %s not found", id)
		}
		return printJSON(out, handlers.ClosePositionResponse{
			PositionID:    result.PositionID,
			Status:        string(result.Status),
			AlreadyClosed: result.AlreadyClosed(),
		})

	case "get":
		id, err := uuid.Parse(*idStr)
		if err != nil {
			return fmt.Errorf("get: -id must be a valid UUID: %w", err)
		}
		pos, err := svc.Get(ctx, id)
		if err != nil {
			return err
		}
		if pos == nil {
			return fmt.Errorf("margin position %s not found", id)
		}
		return printJSON(out, handlers.NewPositionResponse(pos))

	case "stats":
		stat, err := stats.Statistic(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, handlers.StatisticResponse{
			OpenedPositions:     stat.OpenedPositions,
			LiquidatedPositions: stat.LiquidatedPositions,
		})
	}
	return errUsage
}

func printJSON(out io.Writer, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(b))
	return err
}
