package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/karalabe/hid"

	"github.com/mklimuk/imu"
	"github.com/mklimuk/imu/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

const reportSize = 64

// MCP2221 HID commands
const (
	cmdStatus          byte = 0x10
	cmdGetI2CData      byte = 0x40
	cmdGetGPIO         byte = 0x51
	cmdWrite           byte = 0x90
	cmdRead            byte = 0x91
	cmdWriteNoStop     byte = 0x94
	cmdReadRepeatStart byte = 0x93
	cmdGetSRAM         byte = 0xB0
	cmdSetSRAM         byte = 0xB1
)

// max payload of a single get I2C data response
const maxReadChunk = 60

var ErrCommandUnsupported = errors.New("unsupported command")
var ErrCommandFailed = errors.New("command failed")

var _ imu.I2CBus = &MCP2221{}

// MCP2221 represents Microchip MCP2221 USB to I2C/UART bridge.
// Every public method holds the adapter lock for the whole exchange so
// combined transactions are never interleaved.
type MCP2221 struct {
	mx           sync.Mutex
	request      []byte
	response     []byte
	responseWait time.Duration
	id           []int
}

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type GPIOMode byte

const (
	GPIOModeOut         GPIOMode = 0b00000000
	GPIOModeIn          GPIOMode = 0b00001000
	GPIOModeNoOperation GPIOMode = 0xEF
)

func (m GPIOMode) String() string {
	switch m {
	case GPIOModeIn:
		return "INPUT"
	case GPIOModeOut:
		return "OUTPUT"
	default:
		return "NOOP"
	}
}

// GPIODesignation selects the function of a GP pin. FXOS8700 INT1/INT2 lines
// are typically wired to GP pins configured as GPIO inputs.
type GPIODesignation byte

const (
	GPIOOperation GPIODesignation = 0b00000000
	// This is the dedicated function of GPIO3
	GPIO3LEDI2C GPIODesignation = 0b00000001
)

const gpioModeMask = 0b00001000
const gpioOperationMask = 0b00000111

type MCP2221GPIOValues struct {
	Values [4]byte     `yaml:"values"`
	Modes  [4]GPIOMode `yaml:"modes"`
}

type MCP2221GPIOParameters struct {
	Modes        [4]GPIOMode        `yaml:"modes"`
	Designations [4]GPIODesignation `yaml:"designations"`
}

type MCP2221Opt func(*MCP2221)

// WithResponseWait sets the delay between a HID write and reading its response.
func WithResponseWait(wait time.Duration) MCP2221Opt {
	return func(d *MCP2221) {
		d.responseWait = wait
	}
}

// WithDeviceIndex selects one of several enumerated bridges.
func WithDeviceIndex(idx int) MCP2221Opt {
	return func(d *MCP2221) {
		d.id = []int{idx}
	}
}

func NewMCP2221(opts ...MCP2221Opt) *MCP2221 {
	d := &MCP2221{
		request:      make([]byte, reportSize),
		response:     make([]byte, reportSize),
		responseWait: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Init verifies that the bridge is attached and unambiguous.
func (d *MCP2221) Init() error {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return fmt.Errorf("MCP2221 device not found")
	}
	if len(devs) > 1 && len(d.id) == 0 {
		return fmt.Errorf("ambiguous device identification (%d devices found)", len(devs))
	}
	if len(d.id) > 0 && d.id[0] >= len(devs) {
		return fmt.Errorf("no device with id %d", d.id[0])
	}
	return nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.write(ctx, cmdWrite, address, buffer)
	if err != nil {
		return fmt.Errorf("write to %x failed: %w", address, err)
	}
	return nil
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	err := d.read(ctx, cmdRead, address, buffer)
	if err != nil {
		return fmt.Errorf("bus read from %x failed: %w", address, err)
	}
	return nil
}

// Tx writes w without a STOP condition and reads r after a repeated START.
func (d *MCP2221) Tx(ctx context.Context, address byte, w, r []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	// w and r may share memory; the write is fully sent before r is touched
	err := d.write(ctx, cmdWriteNoStop, address, w)
	if err != nil {
		return fmt.Errorf("transaction write to %x failed: %w", address, err)
	}
	err = d.read(ctx, cmdReadRepeatStart, address, r)
	if err != nil {
		return fmt.Errorf("transaction read from %x failed: %w", address, err)
	}
	return nil
}

func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > reportSize-4 {
		return fmt.Errorf("write of %d bytes exceeds single report", len(buffer))
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	err := d.send(ctx, true)
	if err != nil {
		return err
	}
	if d.response[1] == 0x01 {
		snsctx.Logger(ctx).Debug("adapter busy", "command", fmt.Sprintf("%#x", cmd))
		return imu.ErrBusBusy
	}
	return nil
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > maxReadChunk {
		return fmt.Errorf("read of %d bytes exceeds single report", len(buffer))
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 + 1
	err := d.send(ctx, true)
	if err != nil {
		return err
	}
	if d.response[1] == 0x01 {
		return imu.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdGetI2CData
	err = d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	return decodeReadResponse(d.response, buffer)
}

func decodeReadResponse(response, buffer []byte) error {
	if response[1] == 0x41 {
		return fmt.Errorf("error reading the I2C slave data from the I2C engine")
	}
	if response[3] == 127 || int(response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), response[3])
	}
	copy(buffer, response[4:4+len(buffer)])
	return nil
}

func (d *MCP2221) SetGPIOParameters(ctx context.Context, params MCP2221GPIOParameters) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdSetSRAM
	d.request[1] = 0x01
	for i := range params.Modes {
		d.request[2+i] = byte(params.Designations[i]) | byte(params.Modes[i])
	}
	err := d.send(ctx, true)
	if err != nil {
		return fmt.Errorf("set GP parameters command write failed: %w", err)
	}
	if d.response[1] == 0x01 {
		return ErrCommandFailed
	}
	return nil
}

func (d *MCP2221) GetGPIOParameters(ctx context.Context) (MCP2221GPIOParameters, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetSRAM
	d.request[1] = 0x01
	var res MCP2221GPIOParameters
	err := d.send(ctx, true)
	if err != nil {
		return res, fmt.Errorf("get GP parameters command write failed: %w", err)
	}
	if d.response[1] == 0x01 {
		return res, ErrCommandUnsupported
	}
	for i := range res.Modes {
		res.Modes[i] = GPIOMode(d.response[4+i] & gpioModeMask)
		res.Designations[i] = GPIODesignation(d.response[4+i] & gpioOperationMask)
	}
	return res, nil
}

func (d *MCP2221) ReadGPIO(ctx context.Context) (MCP2221GPIOValues, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdGetGPIO
	var res MCP2221GPIOValues
	err := d.send(ctx, true)
	if err != nil {
		return res, fmt.Errorf("read GPIO values command write failed: %w", err)
	}
	if d.response[1] == 0x01 {
		return res, ErrCommandFailed
	}
	return decodeGPIOValues(d.response), nil
}

func decodeGPIOValues(response []byte) MCP2221GPIOValues {
	var res MCP2221GPIOValues
	for i := range res.Values {
		res.Values[i] = response[2+2*i]
		res.Modes[i] = GPIOModeNoOperation
		if response[3+2*i] != byte(GPIOModeNoOperation) {
			res.Modes[i] = GPIOMode(response[3+2*i] << 3)
		}
	}
	return res
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9-10: requested I2C transfer length (LE)
		11-12: already transferred number of bytes (LE)
		13:	internal I2C data buffer counter
		14: current I2C communication speed divider value
		15: current I2C timeout value
		16-17: I2C address being used
		25: read pending
	*/
	return &MCP2221Status{
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		ReadPending:            int(buffer[25]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
	}
}

func (d *MCP2221) Release(ctx context.Context) error {
	_, err := d.ReleaseBus(ctx)
	return err
}

// ReleaseBus cancels the current I2C transfer and frees the bus.
func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = 0x10
	err := d.send(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("cancel request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func (d *MCP2221) open() (*hid.Device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, fmt.Errorf("MCP2221 device not found")
	}
	idx := 0
	if len(d.id) > 0 {
		idx = d.id[0]
	} else if len(devs) > 1 {
		return nil, fmt.Errorf("ambiguous device identification")
	}
	if idx >= len(devs) {
		return nil, fmt.Errorf("no device with id %d", idx)
	}
	dev, err := devs[idx].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) send(ctx context.Context, response bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev, err := d.open()
	if err != nil {
		return err
	}
	log := snsctx.Logger(ctx)
	defer func() {
		if err := dev.Close(); err != nil {
			log.Debug("could not close hid device", "error", err)
		}
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		log.Debug("sending message to adapter", "dump", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short write: %d", n)
	}
	if !response {
		return nil
	}
	timer := time.NewTimer(d.responseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportSize {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		log.Debug("read message from adapter", "dump", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
