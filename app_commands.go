package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"riftwatch/internal/config"
	"riftwatch/internal/engine"
	"riftwatch/internal/features"
	"riftwatch/internal/lcu"
	"riftwatch/internal/logger"
	"riftwatch/internal/predict"
	"riftwatch/internal/server"
)

var (
	orderStats string
	chaosStats string
	replayDir  string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Score one hand-entered matchup",
	Example: `  riftwatch predict --order 12,5,20,32000,410 --chaos 5,12,8,27500,380
  riftwatch predict --order 3,1,2,8000,120 --chaos 1,3,1,7000,100 --temperature 1`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := logger.New("riftwatch", cfg.Env)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()

		order, err := parseTeam(orderStats)
		if err != nil {
			return fmt.Errorf("--order: %w", err)
		}
		chaos, err := parseTeam(chaosStats)
		if err != nil {
			return fmt.Errorf("--chaos: %w", err)
		}

		adapter := predict.LoadAdapter(cfg.ScalerPath, cfg.ModelPath, log)
		return runPredict(cmd.OutOrStdout(), adapter, order, chaos, cfg.Temperature)
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run one pipeline cycle over saved live client snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		log, err := logger.New("riftwatch", cfg.Env)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer log.Sync()

		adapter := predict.LoadAdapter(cfg.ScalerPath, cfg.ModelPath, log)
		return runReplay(cmd.Context(), cmd.OutOrStdout(), cfg, replayDir, adapter, log)
	},
}

func init() {
	predictCmd.Flags().StringVar(&orderStats, "order", "", "ORDER kills,deaths,assists,gold,cs")
	predictCmd.Flags().StringVar(&chaosStats, "chaos", "", "CHAOS kills,deaths,assists,gold,cs")
	_ = predictCmd.MarkFlagRequired("order")
	_ = predictCmd.MarkFlagRequired("chaos")

	replayCmd.Flags().StringVar(&replayDir, "dir", "", "Snapshot directory written by run --snapshot-dir")
	_ = replayCmd.MarkFlagRequired("dir")
}

// parseTeam reads "kills,deaths,assists,gold,cs"
func parseTeam(s string) ([5]float64, error) {
	var out [5]float64

	parts := strings.Split(s, ",")
	if len(parts) != len(out) {
		return out, fmt.Errorf("want 5 comma-separated values (kills,deaths,assists,gold,cs), got %d", len(parts))
	}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, fmt.Errorf("value %d: %w", i+1, err)
		}
		if v < 0 {
			return out, fmt.Errorf("value %d is negative", i+1)
		}
		out[i] = v
	}
	return out, nil
}

type predictResult struct {
	Features       features.Vector       `json:"features"`
	WinProbability server.WinProbability `json:"winProbability"`
	Degraded       bool                  `json:"degraded"`
	Temperature    float64               `json:"temperature"`
}

func runPredict(w io.Writer, p engine.Predictor, order, chaos [5]float64, temperature float64) error {
	vec := features.FromValues(order, chaos)

	pred, err := p.Predict(vec, temperature)
	if err != nil {
		return err
	}

	snap := engine.Snapshot{Prediction: &pred}
	return writeIndented(w, predictResult{
		Features:       vec,
		WinProbability: server.NewGameData(snap).WinProbability,
		Degraded:       pred.Degraded,
		Temperature:    pred.Temperature,
	})
}

func runReplay(ctx context.Context, w io.Writer, cfg *config.Config, dir string, p engine.Predictor, log *zap.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}

	views, err := viewScheduler(cfg.Views)
	if err != nil {
		return err
	}

	ecfg := engineConfig(cfg)
	ecfg.AlwaysInfer = true
	eng := engine.New(ecfg, lcu.NewFileSource(dir), p, views, log)

	snap, ok := eng.RunOnce(ctx)
	if !ok {
		return errors.New("no usable player list in " + dir)
	}
	return writeIndented(w, server.NewGameData(snap))
}

func writeIndented(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
