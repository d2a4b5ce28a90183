//go:build rp2040 || rp2350

// Command pico-light is the driver firmware for RP2040 boards. Select the
// built-in profile at link time:
//
//	tinygo flash -target pico -ldflags "-X main.profileName=blf-a6" ./cmd/pico-light
package main

import (
	"context"
	"io"
	"machine"
	"sync"
	"time"

	"github.com/jangala-dev/tinygo-uartx/uartx"
	"tinygo.org/x/drivers"

	"lightcode-go/bus"
	"lightcode-go/drivers/button"
	"lightcode-go/drivers/eeprom"
	"lightcode-go/drivers/pwmout"
	"lightcode-go/drivers/sense"
	"lightcode-go/light/persist"
	"lightcode-go/services/config"
	"lightcode-go/services/telemetry"
	"lightcode-go/services/ui"
	"lightcode-go/x/logx"
	"lightcode-go/x/shmring"
	"lightcode-go/x/timex"
)

var profileName = "narsil"

// Board wiring.
const (
	pinSwitch  = machine.GP15
	pinLED0    = machine.GP16
	pinLED1    = machine.GP17
	pinBattery = machine.ADC0
	pinOffTime = machine.ADC1
	pinSDA     = machine.GP4
	pinSCL     = machine.GP5
	pinTX      = machine.GP0
	pinRX      = machine.GP1

	pwmHz     = 20_000
	uartBaud  = 115200
	at24Addr  = 0x50
	storeSize = 8 * persist.SlotSize
	thermalDt = 2 * time.Second
	chargerDt = 250 * time.Millisecond
)

// lockedI2C serialises the EEPROM and the temperature sensor, which are
// driven from different goroutines.
type lockedI2C struct {
	mu  sync.Mutex
	bus drivers.I2C
}

func (l *lockedI2C) Tx(addr uint16, w, r []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.bus.Tx(addr, w, r)
}

// lockedWriter lets logx and telemetry share the single-producer ring.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	ctx := context.Background()

	uart := uartx.UART0
	if err := uart.Configure(uartx.UARTConfig{BaudRate: uartBaud, TX: pinTX, RX: pinRX}); err != nil {
		println("[main] uart:", err.Error())
	}
	ring := shmring.New(2048)
	out := &lockedWriter{w: ring}
	logx.SetOutput(out)
	go ring.Drain(ctx, io.MultiWriter(uart, machine.Serial), 0)

	p, err := config.Lookup(profileName)
	if err != nil {
		halt("profile", err)
	}

	pins := []machine.Pin{pinLED0, pinLED1}
	drv, err := pwmout.NewRP2(pwmHz, pins[:p.Channels]...)
	if err != nil {
		halt("pwm", err)
	}

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{SDA: pinSDA, SCL: pinSCL, Frequency: 400 * machine.KHz}); err != nil {
		halt("i2c", err)
	}
	shared := &lockedI2C{bus: i2c}

	b := bus.NewBus(8)
	hw := ui.Hardware{
		Driver: drv,
		Conn:   b.NewConnection("ui"),
	}
	if chg, err := sense.NewLTC4015(shared, 0); err == nil {
		logx.Info("main: battery voltage from ltc4015")
		_ = chg.Poll()
		hw.Voltage = chg
		go chg.Run(ctx, chargerDt)
	} else {
		hw.Voltage = sense.NewADC(pinBattery)
	}

	var cells persist.Cells = eeprom.NewAT24(shared, at24Addr, 0, storeSize)
	if _, err := cells.ReadCell(0); err != nil {
		logx.Warn("main: no eeprom, settings kept in RAM: %v", err)
		cells = eeprom.NewMem(storeSize)
	}
	hw.Cells = cells

	th := sense.NewSHTC3(shared)
	if err := th.Poll(); err == nil {
		hw.Thermal = th
		go th.Run(ctx, thermalDt)
	} else {
		logx.Info("main: shtc3 absent, using die sensor")
		hw.Thermal = sense.DieTemp{}
	}
	if p.Clicky {
		hw.OffTime = sense.NewOffTimeCap(pinOffTime)
	}

	ctl, err := ui.New(p, hw)
	if err != nil {
		halt("ui", err)
	}
	ctl.Boot()
	logx.Info("main: %s up, %d groups", profileName, len(p.Groups))

	tel := telemetry.New(b.NewConnection("telemetry"), out, 0)
	go tel.Run(ctx)

	sw := button.NewPin(pinSwitch, true)
	ready := make(chan struct{}, 1)
	go func() {
		t := time.NewTicker(timex.Period(p.TickMs))
		defer t.Stop()
		for range t.C {
			ctl.ISR(sw.Pressed())
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	}()

	for range ready {
		ctl.Step()
	}
}

func halt(what string, err error) {
	logx.Error("main: %s: %v", what, err)
	for {
		time.Sleep(time.Second)
	}
}
