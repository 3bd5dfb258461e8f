package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mint-lang/mint/internal/class"
	"github.com/mint-lang/mint/internal/config"
	"github.com/mint-lang/mint/internal/gc"
	"github.com/mint-lang/mint/internal/kinds"
	"github.com/mint-lang/mint/internal/module"
	"github.com/mint-lang/mint/internal/printer"
	"github.com/mint-lang/mint/internal/sched"
	"github.com/mint-lang/mint/internal/vm"
)

func printUsage() {
	fmt.Println("Usage: mint [flags] script [args...]")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  --version    Print version and exit")
	fmt.Println("  --help       Print this help and exit")
	fmt.Println("  --gc-stats   Print collector statistics to stderr on exit")
	fmt.Println()
	fmt.Println("Arguments after the script name are passed through to the script.")
}

func main() {
	gcStats := false
	args := os.Args[1:]

	// Flags are only recognized ahead of the script name; everything
	// after it belongs to the script.
	i := 0
	for ; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			break
		}
		switch arg {
		case "--version":
			fmt.Println("mint " + config.Version)
			os.Exit(0)
		case "--help":
			printUsage()
			os.Exit(0)
		case "--gc-stats":
			gcStats = true
		default:
			fmt.Fprintf(os.Stderr, "mint: unknown flag %s\n", arg)
			os.Exit(2)
		}
	}
	if i >= len(args) {
		printUsage()
		os.Exit(2)
	}
	scriptPath := args[i]
	scriptArgs := args[i+1:]

	os.Exit(run(scriptPath, scriptArgs, gcStats))
}

func run(scriptPath string, scriptArgs []string, gcStats bool) int {
	data, err := os.ReadFile(scriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint: %v\n", err)
		return 1
	}
	mod, err := module.Deserialize(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint: %s: %v\n", scriptPath, err)
		return 1
	}
	if mod.Name == "" {
		mod.Name = strings.TrimSuffix(filepath.Base(scriptPath), filepath.Ext(scriptPath))
	}

	heap := gc.NewHeap()
	classes := class.NewRegistry()
	registry := module.NewRegistry(filepath.Dir(scriptPath))
	registry.Register(mod.Name, mod)

	machine := vm.New(registry, classes, heap)
	machine.Stdout = printer.NewStdout()
	machine.Stderr = printer.NewStderr()
	bindScriptArgs(machine, scriptArgs)

	scheduler := sched.New(machine)
	scheduler.Load(mod)
	status := scheduler.Run()

	if gcStats {
		fmt.Fprintln(os.Stderr, heap.Stats().String())
	}
	return status
}

// bindScriptArgs exposes the pass-through arguments to the script as
// the global `args` array of strings.
func bindScriptArgs(machine *vm.VM, scriptArgs []string) {
	elems := make([]*gc.Cell, len(scriptArgs))
	for i, a := range scriptArgs {
		s := kinds.NewString(a)
		machine.Heap.Alloc(s)
		elems[i] = gc.NewCell(0, s)
	}
	arr := kinds.NewArray(elems)
	machine.Heap.Alloc(arr)
	machine.Globals["args"] = gc.NewCell(gc.Global, arr)
}
