package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/karalabe/hid"
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/imu/adapter"
	"github.com/mklimuk/imu/cmd/imu/console"
)

type bridge struct {
	name      string
	vendorID  uint16
	productID uint16
}

// I2C bridges supported by the mcp2221 adapter
var knownBridges = []bridge{
	{"MCP2221", adapter.VendorID, adapter.ProductID},
}

func bridgeName(dev hid.DeviceInfo) string {
	for _, b := range knownBridges {
		if b.vendorID == dev.VendorID && b.productID == dev.ProductID {
			return b.name
		}
	}
	return ""
}

var usbCmd = cli.Command{
	Name: "usb",
	Subcommands: []*cli.Command{
		&usbLsCmd,
	},
}

var usbLsCmd = cli.Command{
	Name:  "ls",
	Usage: "list HID devices",
	Flags: []cli.Flag{
		&cli.BoolFlag{Name: "bridges", Aliases: []string{"b"}, Usage: "list supported I2C bridges only"},
	},
	Action: func(c *cli.Context) error {
		if !hid.Supported() {
			return console.Exit(1, "HID enumeration is not supported on this platform")
		}
		onlyBridges := c.Bool("bridges")
		w := tabwriter.NewWriter(console.Out(), 12, 0, 1, ' ', 0)
		_, _ = fmt.Fprintf(w, "PATH\tSERIAL\tVENDOR\tPRODUCT ID\tMANUFACTURER\tPRODUCT\tBRIDGE\n")
		for _, dev := range hid.Enumerate(0, 0) {
			name := bridgeName(dev)
			if onlyBridges && name == "" {
				continue
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%#x\t%#x\t%s\t%s\t%s\n",
				dev.Path, dev.Serial, dev.VendorID, dev.ProductID, dev.Manufacturer, dev.Product, name)
		}
		return w.Flush()
	},
}
