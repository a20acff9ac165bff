package main

/*------------------------------------------------------------------
 *
 * Purpose:	Command line entry point for dantectl: discovers Dante
 *		devices over mDNS and optionally issues a single
 *		subscribe/clear command first (exiting right after it
 *		when --one-shot is given).
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/netaudio/dantectl/dante"
	"github.com/netaudio/dantectl/internal/logging"
	"github.com/spf13/pflag"
)

func main() {
	var protocolVersion = pflag.StringP("protocol-version", "P", string(dante.Version4413),
		`Subscription wire-format version to use for --subscribe/--clear.
4.4.1.3 or 4.2.1.3.`)
	var logLevel = pflag.StringP("log-level", "l", "info", "Log level: debug, info, warn, error.")
	var subscribeRx = pflag.StringP("subscribe", "s", "", "Receiver IP address to send a make_subscription command to.")
	var rxChannelID = pflag.Uint16P("rx-channel", "r", 0, "Receiver channel id for --subscribe/--clear.")
	var txDevice = pflag.StringP("tx-device", "d", "", "Transmitter device name for --subscribe.")
	var txChannel = pflag.StringP("tx-channel", "c", "", "Transmitter channel name for --subscribe.")
	var clearRx = pflag.StringP("clear", "C", "", "Receiver IP address to send a clear_subscription command to.")
	var oneShot = pflag.BoolP("one-shot", "1", false, "Exit immediately after --subscribe/--clear instead of entering the interactive loop.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "dantectl - Dante device discovery and subscription control.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: dantectl [options]\n\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nWith no --subscribe/--clear, dantectl browses continuously and accepts\n")
		fmt.Fprintf(os.Stderr, "these commands on stdin: \"report\", \"quit\".\n")
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	level, err := logging.ParseLevel(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid --log-level %q: %v\n", *logLevel, err)
		os.Exit(1)
	}
	logging.SetLevel(level)

	version := dante.ProtocolVersion(*protocolVersion)
	if version != dante.Version4413 && version != dante.Version4213 {
		fmt.Fprintf(os.Stderr, "invalid --protocol-version %q: must be %q or %q\n", *protocolVersion, dante.Version4413, dante.Version4213)
		os.Exit(1)
	}

	manager := dante.NewManager()

	if *subscribeRx != "" || *clearRx != "" {
		if err := runOneShot(manager, version, *subscribeRx, *clearRx, *rxChannelID, *txDevice, *txChannel); err != nil {
			fmt.Fprintf(os.Stderr, "dantectl: %v\n", err)
			os.Exit(1)
		}
		if *oneShot {
			return
		}
	}

	registry := dante.NewRegistry()
	supervisor := dante.NewSupervisor(registry)
	if err := supervisor.StartDiscovery(); err != nil {
		fmt.Fprintf(os.Stderr, "dantectl: failed to start discovery: %v\n", err)
		os.Exit(1)
	}
	defer supervisor.StopDiscovery()

	logging.Info("dantectl running", "protocol-version", version)
	runInteractive(registry)
}

func runOneShot(manager *dante.Manager, version dante.ProtocolVersion, subscribeRx, clearRx string, rxChannelID uint16, txDevice, txChannel string) error {
	if subscribeRx != "" {
		ip := net.ParseIP(subscribeRx)
		if ip == nil {
			return fmt.Errorf("invalid --subscribe address %q", subscribeRx)
		}
		if txDevice == "" || txChannel == "" {
			return fmt.Errorf("--subscribe requires both --tx-device and --tx-channel")
		}
		return manager.MakeSubscription(version, ip, rxChannelID, txDevice, txChannel)
	}

	ip := net.ParseIP(clearRx)
	if ip == nil {
		return fmt.Errorf("invalid --clear address %q", clearRx)
	}
	return manager.ClearSubscription(version, ip, rxChannelID)
}

// runInteractive reads newline-delimited commands from stdin until "quit"
// or EOF, printing the current registry report on "report".
func runInteractive(registry *dante.Registry) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		switch strings.TrimSpace(scanner.Text()) {
		case "report":
			fmt.Print(registry.Report())
		case "quit", "exit":
			return
		case "":
			// ignore blank lines
		default:
			fmt.Fprintf(os.Stderr, "unrecognised command %q (try \"report\" or \"quit\")\n", scanner.Text())
		}
	}
}
