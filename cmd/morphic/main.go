// Package main provides the Morphic runtime CLI.
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/morphic-ml/morphic/backend/cpu"
	"github.com/morphic-ml/morphic/internal/parallel"
	"github.com/morphic-ml/morphic/monitor"
	"github.com/morphic-ml/morphic/transform"
)

const version = "v0.1.0-dev"

func main() {
	configPath := flag.String("config", "", "path to YAML runtime config")
	flag.Parse()

	switch flag.Arg(0) {
	case "version":
		fmt.Printf("Morphic %s\n", version)
	case "info":
		if err := runInfo(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "morphic: %v\n", err)
			os.Exit(1)
		}
	default:
		fmt.Println("Morphic - Functional Transforms for Go Tensors")
		fmt.Printf("Version: %s\n\n", version)
		fmt.Println("Commands:")
		fmt.Println("  version    Show version")
		fmt.Println("  info       Show backend and runtime configuration")
		fmt.Println("")
		fmt.Println("Flags:")
		fmt.Println("  -config    Path to YAML runtime config")
	}
}

func runInfo(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	par := parallel.Sequential()
	if cfg.Parallel.Enabled {
		par = parallel.Config{
			Enabled:      true,
			NumWorkers:   cfg.Parallel.NumWorkers,
			MinChunkSize: cfg.Parallel.MinChunkSize,
		}
	}

	backend := cpu.NewWithParallel(par)
	events := monitor.NewRegistry()
	events.Register(monitor.NewWriterHandler(os.Stderr))

	interp := transform.NewInterpreter(backend,
		transform.WithEvents(events),
		transform.WithParallel(par),
	)
	interp.SetVmapFallbackEnabled(cfg.Vmap.FallbackEnabled)
	interp.SetVmapFallbackWarningEnabled(cfg.Vmap.FallbackWarning)

	fmt.Printf("Backend:           %s (%v)\n", backend.Name(), backend.Device())
	fmt.Printf("GOMAXPROCS:        %d\n", runtime.GOMAXPROCS(0))
	fmt.Printf("Parallel:          enabled=%t workers=%d\n", par.Enabled, par.NumWorkers)
	fmt.Printf("Vmap fallback:     enabled=%t warning=%t\n",
		interp.VmapFallbackEnabled(), interp.VmapFallbackWarningEnabled())
	fmt.Printf("Grad mode:         %t\n", interp.GradEnabled())
	fmt.Printf("Fwd grad mode:     %t\n", interp.FwdGradEnabled())
	fmt.Printf("Transform stack:   %s\n", interp.DumpStack())
	return nil
}
