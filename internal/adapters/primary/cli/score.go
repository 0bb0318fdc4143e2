package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	urfave "github.com/urfave/cli/v2"

	"dropout-risk-service/internal/adapters/primary/http/dto"
	"dropout-risk-service/internal/adapters/secondary/gbdt"
	"dropout-risk-service/internal/adapters/secondary/modelsource"
	"dropout-risk-service/internal/adapters/secondary/remote"
	"dropout-risk-service/internal/core/services"
)

const requestTimeoutDefault = 30 * time.Second

var (
	inputFlag = &urfave.StringFlag{
		Name:     "input",
		Aliases:  []string{"i"},
		Usage:    "Path to the CSV file, - for stdin",
		Required: true,
	}

	modelFlag = &urfave.StringFlag{
		Name:  "model",
		Usage: "Path to a local model file",
	}

	modelFormatFlag = &urfave.StringFlag{
		Name:  "model-format",
		Usage: "Model format [xgboost, lightgbm, lightgbm-json, sklearn]",
		Value: gbdt.FormatXGBoost,
	}

	modelVersionFlag = &urfave.StringFlag{
		Name:  "model-version",
		Usage: "Version label reported with results (optional, default: derived from the model file)",
	}

	serverFlag = &urfave.StringFlag{
		Name:    "server",
		Usage:   "Base URL of a running prediction service",
		EnvVars: []string{"RISKCTL_SERVER"},
	}

	tokenFlag = &urfave.StringFlag{
		Name:    "token",
		Usage:   "Bearer token for the prediction service (optional)",
		EnvVars: []string{"RISKCTL_TOKEN"},
	}

	timeoutFlag = &urfave.DurationFlag{
		Name:  "timeout",
		Usage: "Request timeout",
		Value: requestTimeoutDefault,
	}

	scoreCmd = &urfave.Command{
		Name:  "score",
		Usage: "Scores every student in a CSV file",
		Flags: []urfave.Flag{
			inputFlag,
			modelFlag,
			modelFormatFlag,
			modelVersionFlag,
			serverFlag,
			tokenFlag,
			timeoutFlag,
		},
		Action: cmdScore,
	}

	errScoreTarget = errors.New("exactly one of --model or --server is required")
)

func cmdScore(c *urfave.Context) error {
	modelPath := c.String(modelFlag.Name)
	server := c.String(serverFlag.Name)
	if (modelPath == "") == (server == "") {
		return errScoreTarget
	}

	f, err := openInput(c.String(inputFlag.Name))
	if err != nil {
		return err
	}
	defer f.Close()

	students, err := ReadStudents(f)
	if err != nil {
		return fmt.Errorf("parse students: %w", err)
	}
	log.WithField("students", len(students)).Debug("students loaded")

	ctx, cancel := context.WithTimeout(c.Context, c.Duration(timeoutFlag.Name))
	defer cancel()

	if server != "" {
		client := remote.NewClient(server, c.String(tokenFlag.Name), c.Duration(timeoutFlag.Name))
		res, err := client.PredictBatch(ctx, students)
		if err != nil {
			return fmt.Errorf("remote scoring: %w", err)
		}
		return encode(c, res)
	}

	loader := gbdt.NewLoader(modelsource.NewFile(modelPath), c.String(modelFormatFlag.Name), c.String(modelVersionFlag.Name))
	predictor, err := loader.Load(ctx)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	svc := services.NewPredictionService(predictor, nil, nil, nil, nil, nil, services.PredictionConfig{
		BatchMaxSize: len(students),
	})
	res, err := svc.PredictBatch(ctx, students)
	if err != nil {
		return fmt.Errorf("score students: %w", err)
	}

	return encode(c, dto.ToBatchPredictionResponse(res))
}
