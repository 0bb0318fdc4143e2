package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"

	outputFormatKey = "output-format"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	initLogging(false)

	app := NewApp()
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Error("fatal error")
		os.Exit(1)
	}
}

// NewApp builds the riskctl application.
func NewApp() *urfave.App {
	return &urfave.App{
		Name:                 "riskctl",
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "Score, evaluate and probe dropout-risk models",
		Writer:               os.Stdout,
		ErrWriter:            os.Stderr,
		Flags: []urfave.Flag{
			debugFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			scoreCmd,
			evaluateCmd,
			healthCmd,
		},
		Before: func(c *urfave.Context) error {
			if c.Bool(debugFlag.Name) {
				initLogging(true)
			}

			format := formatJSON
			switch f := c.String(formatFlag.Name); f {
			case formatJSON:
			case formatYAML, "yml":
				format = formatYAML
			default:
				return fmt.Errorf("unsupported output format %q", f)
			}

			if c.App.Metadata == nil {
				c.App.Metadata = map[string]any{}
			}
			c.App.Metadata[outputFormatKey] = format
			return nil
		},
	}
}

func initLogging(debug bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
	if debug {
		log.SetLevel(log.DebugLevel)
	}
}

func encode(c *urfave.Context, v any) error {
	format, _ := c.App.Metadata[outputFormatKey].(string)
	return encodeTo(c.App.Writer, format, v)
}

func encodeTo(w io.Writer, format string, v any) error {
	if format == formatYAML {
		e := yaml.NewEncoder(w)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
