// Copyright (c) 2026 The wandmini developers. All rights reserved.
// Project site: https://github.com/gotmc/wandmini
// Use of this source code is governed by a MIT-style license that
// can be found in the LICENSE.txt file for the project.

package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/gotmc/wandmini/cp2130"
	"github.com/gotmc/wandmini/wandmini"
	"github.com/spf13/cobra"
)

var (
	serial    string
	bus       int
	address   int
	variant   string
	outputDir string
	duration  time.Duration
	wideInput bool
)

func listDevices(cmd *cobra.Command, args []string) {
	ctx, err := cp2130.Init()
	if err != nil {
		log.Fatalf("couldn't create USB context: %s", err)
	}
	defer ctx.Exit()
	locators, err := cp2130.ListDevices(ctx)
	if err != nil {
		log.Fatalf("couldn't list devices: %s", err)
	}
	if len(locators) == 0 {
		cmd.Println("No CP2130 devices found")
		return
	}
	for i, loc := range locators {
		cmd.Printf("CP2130 #%d: %s\n", i+1, loc)
	}
}

func chooseInterface(name string) (wandmini.Interface, error) {
	switch name {
	case "stream":
		return wandmini.StreamEMG(), nil
	case "command":
		return wandmini.CommandEMG(), nil
	case "raw":
		return wandmini.RawEMG(), nil
	}
	return wandmini.Interface{}, fmt.Errorf("unknown interface variant %q", name)
}

func record(cmd *cobra.Command, args []string) {
	intf, err := chooseInterface(variant)
	if err != nil {
		log.Fatal(err)
	}
	ctx, err := cp2130.Init()
	if err != nil {
		log.Fatalf("couldn't create USB context: %s", err)
	}
	defer ctx.Exit()

	dev, err := cp2130.Open(ctx, cp2130.Locator{Bus: bus, Address: address, Serial: serial})
	if err != nil {
		log.Fatalf("couldn't open a WANDmini bridge: %s", err)
	}
	if err := dev.Configure(); err != nil {
		dev.Close()
		log.Fatalf("couldn't configure the bridge: %s", err)
	}

	listener := &wandmini.Listener{
		ErrorOccurred: func(msg string) {
			fmt.Fprintln(os.Stderr, msg)
		},
	}
	session := wandmini.NewSession(wandmini.Config{
		Interface:     intf,
		WideInputMode: wideInput,
		OutputDir:     outputDir,
	}, dev, listener)

	if err := session.Start(); err != nil {
		dev.Close()
		log.Fatalf("couldn't start acquisition: %s", err)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	select {
	case <-time.After(duration):
	case <-interrupt:
		log.Print("interrupted, stopping acquisition")
	}
	if err := session.Stop(); err != nil {
		log.Fatalf("stop: %s", err)
	}
	cmd.Printf("Recorded %d samples (%d CRC errors)\n",
		session.SampleCount(), session.ErrorCount())
}

var rootCmd = &cobra.Command{
	Use:   "wandmini",
	Short: "Acquire sEMG data from a WANDmini front end",
	Long: `wandmini records surface-EMG sessions from a WANDmini front end
behind a CP2130 USB-to-SPI bridge and saves each run as a CSV table.`,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	list := &cobra.Command{
		Use:   "list",
		Short: "List CP2130 bridges on the bus",
		Run:   listDevices,
	}
	rootCmd.AddCommand(list)

	rec := &cobra.Command{
		Use:   "record",
		Short: "Record one acquisition session",
		Run:   record,
	}
	rec.Flags().StringVar(&serial, "serial", "", "Open the bridge with this serial number")
	rec.Flags().IntVar(&bus, "bus", 0, "Open the bridge on this bus number")
	rec.Flags().IntVar(&address, "address", 0, "Open the bridge at this device address")
	rec.Flags().StringVar(&variant, "interface", "stream", "Interface variant: stream, command, or raw")
	rec.Flags().StringVar(&outputDir, "output", "data", "Directory for session CSV files")
	rec.Flags().DurationVar(&duration, "duration", 10*time.Second, "How long to stream")
	rec.Flags().BoolVar(&wideInput, "wide-input", false, "Enable wide input mode before streaming")
	rootCmd.AddCommand(rec)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
