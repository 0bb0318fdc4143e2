package cli

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	urfave "github.com/urfave/cli/v2"

	"dropout-risk-service/internal/adapters/secondary/gbdt"
	"dropout-risk-service/internal/adapters/secondary/modelsource"
	"dropout-risk-service/internal/core/services"
)

var (
	requiredModelFlag = &urfave.StringFlag{
		Name:     "model",
		Usage:    "Path to a local model file",
		Required: true,
	}

	labelColumnFlag = &urfave.StringFlag{
		Name:  "label-column",
		Usage: "Column holding the observed outcome (0 or 1)",
		Value: "dropout",
	}

	thresholdFlag = &urfave.Float64Flag{
		Name:  "threshold",
		Usage: "Decision threshold on the dropout probability",
		Value: services.DefaultDecisionThreshold,
	}

	evaluateCmd = &urfave.Command{
		Name:  "evaluate",
		Usage: "Evaluates a model against a labelled CSV file",
		Flags: []urfave.Flag{
			inputFlag,
			requiredModelFlag,
			modelFormatFlag,
			modelVersionFlag,
			labelColumnFlag,
			thresholdFlag,
		},
		Action: cmdEvaluate,
	}
)

func cmdEvaluate(c *urfave.Context) error {
	f, err := openInput(c.String(inputFlag.Name))
	if err != nil {
		return err
	}
	defer f.Close()

	samples, err := ReadLabelled(f, c.String(labelColumnFlag.Name))
	if err != nil {
		return fmt.Errorf("parse samples: %w", err)
	}

	loader := gbdt.NewLoader(
		modelsource.NewFile(c.String(requiredModelFlag.Name)),
		c.String(modelFormatFlag.Name),
		c.String(modelVersionFlag.Name),
	)
	predictor, err := loader.Load(c.Context)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	report, err := services.NewEvaluationService(predictor).Evaluate(c.Context, samples, c.Float64(thresholdFlag.Name))
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	log.WithFields(log.Fields{
		"samples":  report.Samples,
		"accuracy": report.Accuracy,
	}).Debug("evaluation complete")

	return encode(c, report)
}
