// Command acodecd is the RK3308 audio codec power-sequencing daemon.
// Run with --mock to use a simulated register bus (no codec required).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/micro-nova/acodec-go/internal/api"
	"github.com/micro-nova/acodec-go/internal/codec"
	"github.com/micro-nova/acodec-go/internal/config"
	"github.com/micro-nova/acodec-go/internal/controller"
	"github.com/micro-nova/acodec-go/internal/events"
	"github.com/micro-nova/acodec-go/internal/hardware"
	"github.com/micro-nova/acodec-go/internal/identity"
	"github.com/micro-nova/acodec-go/internal/models"
	"github.com/micro-nova/acodec-go/internal/notify"
	"github.com/micro-nova/acodec-go/internal/zeroconf"
)

const (
	defaultMMIOBase = "0xff560000"
	mmioWindow      = 0x1000
)

func main() {
	var (
		mock     = flag.Bool("mock", false, "use a mock register bus (no codec required)")
		addr     = flag.String("addr", ":8080", "HTTP listen address")
		cfgDir   = flag.String("config-dir", "", "config directory (default: ~/.config/acodec)")
		debug    = flag.Bool("debug", false, "enable debug logging")
		busKind  = flag.String("bus", "mmio", "register bus: mmio or serial")
		mmioBase = flag.String("mmio-base", defaultMMIOBase, "physical base address of the codec registers")
		serDev   = flag.String("serial", "/dev/ttyUSB0", "serial register bridge device (with -bus serial)")
		hpCtl    = flag.String("hp-ctl", "", "GPIO name of the headphone amplifier enable")
		spkCtl   = flag.String("spk-ctl", "", "GPIO name of the speaker amplifier enable")
		resetPin = flag.String("reset", "", "GPIO name of the active-low codec reset")
		hpDet    = flag.String("hpdet", "", "GPIO name of the headphone detect interrupt")
		useDBus  = flag.Bool("dbus", false, "emit jack reports on the D-Bus system bus")
		useMDNS  = flag.Bool("mdns", true, "advertise the API over mDNS")
	)
	flag.Parse()

	// Configure logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	// Resolve config directory
	if *cfgDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			slog.Error("cannot determine home directory", "err", err)
			os.Exit(1)
		}
		*cfgDir = filepath.Join(home, ".config", "acodec")
	}
	if err := os.MkdirAll(*cfgDir, 0755); err != nil {
		slog.Error("cannot create config directory", "path", *cfgDir, "err", err)
		os.Exit(1)
	}

	// Graceful shutdown context
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Register bus
	bus, err := openBus(*mock, *busKind, *mmioBase, *serDev)
	if err != nil {
		slog.Error("register bus initialization failed", "err", err)
		os.Exit(1)
	}
	defer bus.Close()
	port := hardware.NewCachedPort(bus, codec.MaxRegister, codec.RegDACDigCon14)

	// Control lines
	var opts []codec.Option
	hp, err := openLine(*hpCtl, false)
	if err != nil {
		slog.Error("hp-ctl line", "err", err)
		os.Exit(1)
	}
	spk, err := openLine(*spkCtl, false)
	if err != nil {
		slog.Error("spk-ctl line", "err", err)
		os.Exit(1)
	}
	opts = append(opts, codec.WithRelays(hp, spk))
	if *resetPin != "" {
		rl, err := hardware.OpenLine(*resetPin, true)
		if err != nil {
			slog.Error("reset line", "err", err)
			os.Exit(1)
		}
		opts = append(opts, codec.WithReset(hardware.NewResetLine(rl)))
	}

	c := codec.New(port, hardware.SleepDelayer{}, opts...)

	// Settings, events, controller
	store := config.NewJSONStore(*cfgDir)
	evBus := events.NewBus()
	version := identity.GetVersion(*cfgDir)
	ctrl, err := controller.New(c, store, evBus, models.Info{
		Version: version,
		Mock:    *mock,
		AGC:     codec.AGCBuild(),
	})
	if err != nil {
		slog.Error("controller initialization failed", "err", err)
		os.Exit(1)
	}

	// Jack reporting
	reporters := []codec.Reporter{ctrl.Reporter()}
	if *useDBus {
		d, err := notify.ConnectSystemBus()
		if err != nil {
			slog.Warn("D-Bus unavailable, jack signals disabled", "err", err)
		} else {
			defer d.Close()
			reporters = append(reporters, d)
		}
	}

	// Jack detect
	var irq *hardware.GPIOIRQ
	if *hpDet != "" {
		irq, err = hardware.OpenIRQ(*hpDet)
		if err != nil {
			slog.Error("hpdet interrupt", "err", err)
			os.Exit(1)
		}
	}
	var det *codec.Detector
	if irq != nil {
		det = codec.NewDetector(c, irq, codec.TimeScheduler{}, codec.MultiReporter(reporters...))
		// The handler goes in before Start so an already plugged jack is seen.
		irq.SetHandler(det.HandleInterrupt)
		go irq.Run(ctx)
	} else {
		det = codec.NewDetector(c, nil, codec.TimeScheduler{}, codec.MultiReporter(reporters...))
	}
	ctrl.SetDetector(det)

	if err := ctrl.Start(ctx); err != nil {
		slog.Error("codec attach failed; POST /api/codec/recover to retry", "err", err)
	}
	det.Start()

	// External edits to settings.json
	go func() {
		if err := store.Watch(ctx, ctrl.WatchHandler(ctx)); err != nil {
			slog.Warn("settings watch stopped", "err", err)
		}
	}()

	// Zeroconf mDNS registration
	if *useMDNS {
		zc := zeroconf.New(identity.GetHostname(), listenPort(*addr), version)
		go func() {
			if err := zc.Start(ctx); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}

	// HTTP server
	srv := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(ctrl, evBus),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout (needed for SSE)
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("acodecd listening", "addr", *addr, "mock", *mock, "config", *cfgDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutCancel()

	// Graceful HTTP shutdown
	if err := srv.Shutdown(shutCtx); err != nil {
		slog.Warn("server shutdown error", "err", err)
	}

	// Power down and flush pending settings
	if err := ctrl.Stop(shutCtx); err != nil {
		slog.Warn("codec detach error", "err", err)
	}

	slog.Info("shutdown complete")
}

// openBus selects and opens the raw register bus.
func openBus(mock bool, kind, base, dev string) (hardware.Bus, error) {
	if mock {
		slog.Info("using mock register bus")
		return hardware.NewMock(), nil
	}
	switch kind {
	case "mmio":
		addr, err := strconv.ParseInt(base, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid -mmio-base %q: %w", base, err)
		}
		m := hardware.NewMMIO(addr, mmioWindow)
		if err := m.Open(); err != nil {
			return nil, err
		}
		slog.Info("using MMIO register bus", "base", fmt.Sprintf("%#x", addr))
		return m, nil
	case "serial":
		sb, err := hardware.OpenSerial(dev)
		if err != nil {
			return nil, err
		}
		slog.Info("using serial register bridge", "dev", dev)
		return sb, nil
	default:
		return nil, fmt.Errorf("unknown -bus %q (want mmio or serial)", kind)
	}
}

// openLine opens an optional control line. An empty name yields a nil Line.
func openLine(name string, activeLow bool) (hardware.Line, error) {
	if name == "" {
		return nil, nil
	}
	l, err := hardware.OpenLine(name, activeLow)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// listenPort extracts the TCP port from a listen address.
func listenPort(addr string) int {
	port := 80
	if parts := strings.SplitN(addr, ":", 2); len(parts) == 2 && parts[1] != "" {
		if p, err := strconv.Atoi(parts[1]); err == nil {
			port = p
		}
	}
	return port
}
