package main

import (
	"github.com/selkies-project/selkies-gamepad-interpose/internal/identity"
	"github.com/selkies-project/selkies-gamepad-interpose/internal/wire"
)

// Standard Xbox 360 pad evdev layout, per linux/input-event-codes.h: the
// same eleven buttons and eight axes the kernel's xpad driver and
// internal/discovery's static capabilities sysattrs both describe. Kept
// local to this package since internal/interposer only ever reads whatever
// map the handshake sent, it never has an opinion on what that map is.
const (
	btnSouth  = 0x130
	btnEast   = 0x131
	btnNorth  = 0x133
	btnWest   = 0x134
	btnTL     = 0x136
	btnTR     = 0x137
	btnSelect = 0x13a
	btnStart  = 0x13b
	btnMode   = 0x13c
	btnThumbL = 0x13d
	btnThumbR = 0x13e

	absX    = 0x00
	absY    = 0x01
	absZ    = 0x02
	absRX   = 0x03
	absRY   = 0x04
	absRZ   = 0x05
	absHat0X = 0x10
	absHat0Y = 0x11
)

var defaultBtnMap = []uint16{
	btnSouth, btnEast, btnNorth, btnWest,
	btnTL, btnTR, btnSelect, btnStart, btnMode, btnThumbL, btnThumbR,
}

var defaultAxesMap = []uint8{absX, absY, absZ, absRX, absRY, absRZ, absHat0X, absHat0Y}

// defaultConfig builds the handshake record every emulated socket sends
// first, identical for the js and event ends of a given slot since both
// describe the same pad.
func defaultConfig() wire.Config {
	var c wire.Config
	c.Name = identity.Name
	c.Vendor = identity.Vendor
	c.Product = identity.Product
	c.Version = identity.Version
	c.NumBtns = uint16(len(defaultBtnMap))
	c.NumAxes = uint16(len(defaultAxesMap))
	copy(c.BtnMap[:], defaultBtnMap)
	copy(c.AxesMap[:], defaultAxesMap)
	return c
}
