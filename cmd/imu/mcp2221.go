package main

import (
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/imu/adapter"
	"github.com/mklimuk/imu/cmd/imu/console"
	"github.com/mklimuk/imu/snsctx"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "MCP2221 USB to I2C bridge maintenance",
	Subcommands: []*cli.Command{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
		&mcp2221GPIOCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name: "status",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	},
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		status, err := a.Status(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return encodeYAML(status)
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel the current I2C transfer and release the bus",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "do not ask for confirmation"},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	},
	Action: func(c *cli.Context) error {
		if !c.Bool("yes") {
			ok, err := console.Confirm("cancel the pending I2C transfer?", false)
			if err != nil {
				return console.Exit(1, "prompt error: %s", console.Red(err))
			}
			if !ok {
				return nil
			}
		}
		a := adapter.NewMCP2221()
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		status, err := a.ReleaseBus(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return encodeYAML(status)
	},
}

var mcp2221GPIOCmd = cli.Command{
	Name:  "gpio",
	Usage: "show GP pin configuration and values (e.g. FXOS8700 INT lines)",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "input", Usage: "configure GP pin as GPIO input before reading", Value: -1},
		&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
	},
	Action: func(c *cli.Context) error {
		a := adapter.NewMCP2221()
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		params, err := a.GetGPIOParameters(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		if pin := c.Int("input"); pin >= 0 {
			if pin >= len(params.Modes) {
				return console.Exit(1, "invalid GP pin %d", pin)
			}
			params.Modes[pin] = adapter.GPIOModeIn
			params.Designations[pin] = adapter.GPIOOperation
			err = a.SetGPIOParameters(ctx, params)
			if err != nil {
				return console.Exit(1, "could not configure GP%d: %s", pin, console.Red(err))
			}
		}
		values, err := a.ReadGPIO(ctx)
		if err != nil {
			return console.Exit(1, "adapter communication error: %s", console.Red(err))
		}
		return encodeYAML(map[string]interface{}{
			"parameters": params,
			"values":     values,
		})
	},
}

func encodeYAML(v interface{}) error {
	enc := yaml.NewEncoder(console.Out())
	err := enc.Encode(v)
	if err != nil {
		return console.Exit(1, "encoding error: %s", console.Red(err))
	}
	return enc.Close()
}
