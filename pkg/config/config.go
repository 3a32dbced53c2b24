// Package config loads a session profile (serial port defaults and the
// XMODEM timing/retry tunables of spec.md §6) from an INI file via
// gopkg.in/ini.v1, the teacher repo's dependency for structured
// configuration parsing (there used for EDS object dictionaries, here
// repurposed for a flat settings file).
package config

import (
	"time"

	"gopkg.in/ini.v1"

	"github.com/samsamfire/goxmodem/pkg/xmodem"
)

// Profile is everything a CLI session needs beyond the file path and
// role, loaded from an INI file or defaulted.
type Profile struct {
	Port      string
	BaudRate  int
	BlockSize xmodem.BlockSize
	Tunables  xmodem.Tunables
}

// Default returns the built-in profile: 115200 baud, XMODEM-CRC block
// size, and spec.md's default tunables.
func Default() Profile {
	return Profile{
		BaudRate:  115200,
		BlockSize: xmodem.BlockSizeCRC,
		Tunables: xmodem.Tunables{
			IndicateTimeout:        xmodem.DefaultIndicateTimeout,
			IndicateRetries:        xmodem.DefaultIndicateRetries,
			IndicateMultiplication: xmodem.DefaultIndicateMultiplication,
			PktXferTimeout:         xmodem.DefaultPktXferTimeout,
			PktXferRetries:         xmodem.DefaultPktXferRetries,
		},
	}
}

// Load reads path as an INI file and overlays its [serial]/[xmodem]
// sections on top of Default(). Keys absent from the file keep their
// default value.
//
//	[serial]
//	port = /dev/ttyUSB0
//	baud = 115200
//
//	[xmodem]
//	block_size = 1024
//	indicate_timeout_ms = 100
//	indicate_retries = 60
//	indicate_multiplication = 10
//	pkt_xfer_timeout_ms = 10
//	pkt_xfer_retries = 100
func Load(path string) (Profile, error) {
	profile := Default()

	cfg, err := ini.Load(path)
	if err != nil {
		return Profile{}, err
	}

	serial := cfg.Section("serial")
	profile.Port = serial.Key("port").MustString(profile.Port)
	profile.BaudRate = serial.Key("baud").MustInt(profile.BaudRate)

	xm := cfg.Section("xmodem")
	if xm.Key("block_size").MustInt(int(profile.BlockSize)) == int(xmodem.BlockSize1K) {
		profile.BlockSize = xmodem.BlockSize1K
	} else {
		profile.BlockSize = xmodem.BlockSizeCRC
	}
	profile.Tunables.IndicateTimeout = time.Duration(xm.Key("indicate_timeout_ms").MustInt(
		int(profile.Tunables.IndicateTimeout/time.Millisecond))) * time.Millisecond
	profile.Tunables.IndicateRetries = xm.Key("indicate_retries").MustInt(profile.Tunables.IndicateRetries)
	profile.Tunables.IndicateMultiplication = xm.Key("indicate_multiplication").MustInt(profile.Tunables.IndicateMultiplication)
	profile.Tunables.PktXferTimeout = time.Duration(xm.Key("pkt_xfer_timeout_ms").MustInt(
		int(profile.Tunables.PktXferTimeout/time.Millisecond))) * time.Millisecond
	profile.Tunables.PktXferRetries = xm.Key("pkt_xfer_retries").MustInt(profile.Tunables.PktXferRetries)

	return profile, nil
}
