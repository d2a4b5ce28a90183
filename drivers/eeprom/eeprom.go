// Package eeprom provides byte-cell backends for the persistent store: an
// in-memory array with power-cut injection, a file for the simulator and an
// AT24Cxx EEPROM over I2C.
package eeprom

import "errors"

var (
	// ErrPowerLost is returned once an injected power cut has fired.
	ErrPowerLost = errors.New("eeprom: power lost")
	ErrRange     = errors.New("eeprom: cell out of range")
	// ErrWriteRequiresErase mirrors NOR semantics: a write may only clear bits.
	ErrWriteRequiresErase = errors.New("eeprom: write requires erase")
)

const erased = 0xFF
