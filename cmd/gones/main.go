// Package main implements the nesemu executable.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"nesemu/internal/bus"
	"nesemu/internal/cartridge"
	"nesemu/internal/config"
	"nesemu/internal/frontend"
	"nesemu/internal/version"
)

func main() {
	var (
		romFile    = flag.String("rom", "", "Path to NES ROM file (optional for GUI mode)")
		configFile = flag.String("config", "", "Path to configuration file")
		nogui      = flag.Bool("nogui", false, "Run without GUI (headless mode)")
		frames     = flag.Int("frames", 120, "Frames to run in -nogui mode")
		help       = flag.Bool("help", false, "Show help message")
		showVer    = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}
	if *showVer {
		version.PrintBuildInfo()
		os.Exit(0)
	}

	setupGracefulShutdown()

	fmt.Println("nesemu starting...")

	configPath := *configFile
	if configPath == "" {
		configPath = defaultConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	machine := bus.New()

	if *romFile != "" {
		fmt.Printf("loading ROM: %s\n", *romFile)
		cart, err := cartridge.Load(*romFile)
		if err != nil {
			log.Fatalf("failed to load ROM: %v", err)
		}
		machine.LoadCartridge(cart)
		fmt.Println("ROM loaded")
	}

	if *nogui {
		if *romFile == "" {
			log.Fatal("ROM file required for headless mode")
		}
		runHeadless(machine, *frames)
		return
	}

	fmt.Println("starting GUI mode...")
	game := frontend.NewGame(machine, cfg)
	if err := frontend.Run(game); err != nil {
		log.Fatalf("GUI mode failed: %v", err)
	}

	fmt.Println("nesemu shutting down...")
}

// runHeadless steps the machine for a fixed number of frames without
// opening a window, for scripted testing.
func runHeadless(machine *bus.Bus, frames int) {
	fmt.Printf("running %d frames headless...\n", frames)
	target := machine.FrameCount() + uint64(frames)
	for machine.FrameCount() < target {
		machine.Step()
	}
	fmt.Printf("completed %d frames\n", frames)
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "nesemu.json"
	}
	return dir + "/nesemu/config.json"
}

func setupGracefulShutdown() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\ninterrupt received, shutting down")
		os.Exit(0)
	}()
}

func printUsage() {
	fmt.Println("nesemu - NES Emulator")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  nesemu [options]                    # Start GUI mode without ROM")
	fmt.Println("  nesemu -rom <file> [options]        # Start with ROM loaded")
	fmt.Println("  nesemu -nogui -rom <file> [options] # Run headless mode")
	fmt.Println()
	fmt.Println("OPTIONS:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("CONTROLS (Player 1 default):")
	fmt.Println("  WASD              - D-Pad")
	fmt.Println("  K / J             - A / B")
	fmt.Println("  Enter / Space     - Start / Select")
	fmt.Println()
	fmt.Println("SUPPORTED FORMATS:")
	fmt.Println("  - iNES (.nes), NROM (mapper 0)")
}
