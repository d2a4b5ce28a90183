//go:build rp2040 || rp2350

package logx

import (
	"io"
	"machine"
)

// USB CDC until the firmware points the logger at a UART.
func defaultOutput() io.Writer { return machine.Serial }
