package cli

import (
	"context"
	"fmt"

	urfave "github.com/urfave/cli/v2"

	"dropout-risk-service/internal/adapters/secondary/remote"
)

var (
	requiredServerFlag = &urfave.StringFlag{
		Name:     "server",
		Usage:    "Base URL of a running prediction service",
		EnvVars:  []string{"RISKCTL_SERVER"},
		Required: true,
	}

	healthCmd = &urfave.Command{
		Name:  "health",
		Usage: "Checks a running prediction service",
		Flags: []urfave.Flag{
			requiredServerFlag,
			tokenFlag,
			timeoutFlag,
		},
		Action: cmdHealth,
	}
)

func cmdHealth(c *urfave.Context) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration(timeoutFlag.Name))
	defer cancel()

	client := remote.NewClient(c.String(requiredServerFlag.Name), c.String(tokenFlag.Name), c.Duration(timeoutFlag.Name))
	health, err := client.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	return encode(c, health)
}
