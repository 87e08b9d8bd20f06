package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/imu/accel"
	"github.com/mklimuk/imu/cmd/imu/console"
	"github.com/mklimuk/imu/pkg/config"
	"github.com/mklimuk/imu/snsctx"
)

var busFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "yaml configuration file",
		EnvVars: []string{"IMU_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Usage:   "bus adapter: mcp2221, generic, gobot or mock",
		Value:   config.AdapterMCP2221,
		EnvVars: []string{"IMU_ADAPTER"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "i2c bus name for the generic adapter",
		Value:   "/dev/i2c-1",
		EnvVars: []string{"IMU_DEVICE"},
	},
	&cli.IntFlag{
		Name:    "bus",
		Usage:   "i2c bus number for the gobot adapter (negative for default)",
		Value:   -1,
		EnvVars: []string{"IMU_BUS"},
	},
	&cli.StringFlag{
		Name:    "speed",
		Usage:   "i2c bus speed for the generic adapter (e.g. 400kHz)",
		EnvVars: []string{"IMU_SPEED"},
	},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
}

var sampleFlags = []cli.Flag{
	&cli.IntFlag{
		Name:    "count",
		Aliases: []string{"n"},
		Usage:   "number of samples, 0 reads until interrupted",
		Value:   1,
		EnvVars: []string{"IMU_COUNT"},
	},
	&cli.DurationFlag{
		Name:    "interval",
		Aliases: []string{"i"},
		Usage:   "delay between samples",
		Value:   100 * time.Millisecond,
		EnvVars: []string{"IMU_INTERVAL"},
	},
	&cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "output format: text or yaml",
		Value:   config.FormatText,
		EnvVars: []string{"IMU_FORMAT"},
	},
}

var accelCmd = cli.Command{
	Name:  "accel",
	Usage: "FXOS8700 accelerometer",
	Subcommands: []*cli.Command{
		&accelInitCmd,
		&accelReadCmd,
	},
}

var accelInitCmd = cli.Command{
	Name:  "init",
	Usage: "check device identity and apply configuration",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		cfg, err := resolveConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
		_, closer, err := openSensor(ctx, cfg)
		if err != nil {
			return sensorExit(err)
		}
		defer closer()
		console.Printf("FXOS8700 %s\n", console.Green("ready"))
		return nil
	},
}

var accelReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read acceleration in m/s²",
	Flags:   append(append([]cli.Flag{}, busFlags...), sampleFlags...),
	Action: func(c *cli.Context) error {
		cfg, err := resolveConfig(c)
		if err != nil {
			return console.Exit(1, "configuration error: %s", console.Red(err))
		}
		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt)
		defer stop()
		ctx = snsctx.SetVerbose(ctx, c.Bool("verbose"))
		s, closer, err := openSensor(ctx, cfg)
		if err != nil {
			return sensorExit(err)
		}
		defer closer()
		err = sample(ctx, s, cfg, newPrinter(cfg.Format))
		if err != nil {
			return console.Exit(1, "error getting acceleration read: %s", console.Red(err))
		}
		return nil
	},
}

type reading struct {
	Time time.Time `yaml:"time"`
	X    float64   `yaml:"x"`
	Y    float64   `yaml:"y"`
	Z    float64   `yaml:"z"`
}

type printer func(r reading) error

func newPrinter(format string) printer {
	if format == config.FormatYAML {
		enc := yaml.NewEncoder(console.Out())
		return func(r reading) error {
			return enc.Encode(r)
		}
	}
	return func(r reading) error {
		console.Printf("x: %s y: %s z: %s m/s²\n",
			console.White(fmt.Sprintf("%8.4f", r.X)),
			console.White(fmt.Sprintf("%8.4f", r.Y)),
			console.White(fmt.Sprintf("%8.4f", r.Z)))
		return nil
	}
}

// sample reads cfg.Count samples (unbounded if zero) and stops on the first error.
func sample(ctx context.Context, s accel.Accelerometer, cfg config.Config, out printer) error {
	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for i := 0; cfg.Count == 0 || i < cfg.Count; i++ {
		if ctx.Err() != nil {
			return nil
		}
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}
		}
		x, y, z, err := s.GetAcceleration(ctx)
		if err != nil {
			return err
		}
		err = out(reading{Time: time.Now(), X: x, Y: y, Z: z})
		if err != nil {
			return fmt.Errorf("could not print reading: %w", err)
		}
	}
	return nil
}

func resolveConfig(c *cli.Context) (config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return cfg, err
		}
	}
	if c.IsSet("adapter") {
		cfg.Adapter = c.String("adapter")
	}
	if c.IsSet("device") {
		cfg.Device = c.String("device")
	}
	if c.IsSet("bus") {
		cfg.Bus = c.Int("bus")
	}
	if c.IsSet("speed") {
		cfg.Speed = c.String("speed")
	}
	if c.IsSet("count") {
		cfg.Count = c.Int("count")
	}
	if c.IsSet("interval") {
		cfg.Interval = c.Duration("interval")
	}
	if c.IsSet("format") {
		cfg.Format = c.String("format")
	}
	return cfg, cfg.Validate()
}

func sensorExit(err error) cli.ExitCoder {
	if errors.Is(err, accel.ErrDeviceNotFound) {
		return console.Exit(1, "FXOS8700 not found on the bus: %s", console.Red(err))
	}
	return console.Exit(1, "sensor initialization error: %s", console.Red(err))
}
