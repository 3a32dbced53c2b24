// Command xmodem sends or receives a single file over a serial port
// using XMODEM-CRC or XMODEM-1K.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/goxmodem/pkg/blockio"
	"github.com/samsamfire/goxmodem/pkg/channel"
	"github.com/samsamfire/goxmodem/pkg/config"
	"github.com/samsamfire/goxmodem/pkg/xmodem"
)

func main() {
	mode := flag.String("m", "", "mode: send or receive")
	port := flag.String("p", "", "serial port, e.g. /dev/ttyUSB0 or COM3")
	baud := flag.Int("b", 0, "baud rate (overrides profile)")
	file := flag.String("f", "", "file to send (mode=send) or write (mode=receive)")
	profilePath := flag.String("c", "", "optional INI profile, see pkg/config")
	oneK := flag.Bool("1k", false, "use XMODEM-1K (1024-byte blocks) instead of XMODEM-CRC")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	slogLevel := slog.LevelInfo
	if *verbose {
		log.SetLevel(log.DebugLevel)
		slogLevel = slog.LevelDebug
	}
	structured := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slogLevel}))

	if *mode != "send" && *mode != "receive" {
		fmt.Fprintln(os.Stderr, "error: -m must be 'send' or 'receive'")
		os.Exit(1)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "error: -f is required")
		os.Exit(1)
	}

	profile := config.Default()
	if *profilePath != "" {
		loaded, err := config.Load(*profilePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading profile %v: %v\n", *profilePath, err)
			os.Exit(1)
		}
		profile = loaded
	}
	if *port != "" {
		profile.Port = *port
	}
	if *baud != 0 {
		profile.BaudRate = *baud
	}
	if *oneK {
		profile.BlockSize = xmodem.BlockSize1K
	}
	if profile.Port == "" {
		fmt.Fprintln(os.Stderr, "error: no serial port given (-p or profile)")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serialCfg := channel.DefaultSerialConfig()
	serialCfg.BaudRate = profile.BaudRate
	port_, err := channel.OpenSerial(profile.Port, serialCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error opening %v: %v\n", profile.Port, err)
		os.Exit(1)
	}
	defer port_.Close()

	cancel := keepGoing(ctx)

	var result xmodem.Result
	switch *mode {
	case "send":
		src, err := blockio.OpenFileSource(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error opening %v: %v\n", *file, err)
			os.Exit(1)
		}
		defer src.Close()
		result, err = xmodem.Transmit(context.Background(), port_, src, profile.BlockSize, cancel, profile.Tunables, structured)
		if err != nil {
			fmt.Fprintf(os.Stderr, "transfer failed: %v\n", err)
			os.Exit(1)
		}
	case "receive":
		sink, err := blockio.CreateFileSink(*file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating %v: %v\n", *file, err)
			os.Exit(1)
		}
		defer sink.Close()
		result, err = xmodem.Receive(context.Background(), port_, sink, cancel, profile.Tunables, structured)
		if err != nil {
			fmt.Fprintf(os.Stderr, "transfer failed: %v\n", err)
			os.Exit(1)
		}
	}

	log.Infof("transfer complete: sent=%d received=%d duplicates=%d naks_sent=%d naks_received=%d elapsed=%s",
		result.BlocksSent, result.BlocksReceived, result.DuplicatesSeen, result.NAKsSent, result.NAKsReceived, result.Elapsed)
}

// keepGoing bridges ctx to an xmodem.CancelFunc: the FSM polls this at
// every Wait-equivalent state and emits CAN once it turns false.
func keepGoing(ctx context.Context) xmodem.CancelFunc {
	return func() bool {
		return ctx.Err() == nil
	}
}
