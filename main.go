package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-lc3/lc3sim/api"
	"github.com/go-lc3/lc3sim/assembler"
	"github.com/go-lc3/lc3sim/config"
	"github.com/go-lc3/lc3sim/debugger"
	"github.com/go-lc3/lc3sim/loader"
	"github.com/go-lc3/lc3sim/tools"
	"github.com/go-lc3/lc3sim/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load config, using defaults: %v\n", err)
		cfg = config.DefaultConfig()
	}

	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		debugMode   = flag.Bool("debug", false, "Start in debugger mode")
		tuiMode     = flag.Bool("tui", false, "Use TUI (Text User Interface) debugger")
		apiServer   = flag.Bool("api-server", false, "Start HTTP API server mode")
		apiPort     = flag.Int("port", apiPortFromListenAddr(cfg.API.ListenAddr), "API server port (used with -api-server)")
		maxCycles   = flag.Uint64("max-cycles", cfg.Execution.MaxCycles, "Maximum CPU cycles before halt (0 = unbounded)")
		verboseMode = flag.Bool("verbose", false, "Verbose output")

		enableTrace = flag.Bool("trace", cfg.Execution.EnableTrace, "Enable execution trace")
		traceFile   = flag.String("trace-file", cfg.Trace.OutputFile, "Trace output file (default: trace.log in log dir)")
		traceFilter = flag.String("trace-filter", cfg.Trace.FilterRegs, "Filter trace by registers (comma-separated, e.g., R0,R1,PC)")

		dumpSymbols = flag.Bool("dump-symbols", false, "Dump symbol table and exit")
		symbolsFile = flag.String("symbols-file", "", "Symbol dump output file (default: stdout)")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("lc3sim %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if *apiServer {
		runAPIServer(*apiPort)
		return
	}

	if flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}

	asmFile := flag.Arg(0)
	source, err := os.ReadFile(asmFile) // #nosec G304 -- user-specified assembly file path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read file %s: %v\n", asmFile, err)
		os.Exit(1)
	}

	if *verboseMode {
		fmt.Printf("Assembling %s\n", asmFile)
	}

	img, sourceMap, symbols, err := assembler.Assemble(string(source), asmFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Assembly error:\n%v\n", err)
		os.Exit(1)
	}

	if *verboseMode {
		fmt.Printf("Assembled %d words at origin x%04X, %d symbols\n",
			len(img.Program()), img.Origin(), len(symbols))
	}

	machine := vm.NewVM()
	machine.MaxCycles = *maxCycles
	machine.Mem.Display = stdoutDisplay{}
	machine.Mem.Keyboard = newStdinKeyboard()
	machine.Mem.SetClockEnabled(true)

	if err := loader.LoadAndResetVM(machine, img); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}

	if *dumpSymbols {
		if err := dumpSymbolTable(symbols, *symbolsFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error dumping symbols: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	if *enableTrace {
		tracePath := *traceFile
		if tracePath == "" {
			tracePath = "trace.log"
		}
		if !filepath.IsAbs(tracePath) {
			tracePath = filepath.Join(config.GetLogPath(), tracePath)
		}
		traceWriter, err := vm.OpenTraceFile(tracePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating trace file: %v\n", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := traceWriter.Close(); cerr != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close trace file: %v\n", cerr)
			}
		}()

		trace := vm.NewExecutionTrace(traceWriter)
		trace.MaxEntries = cfg.Trace.MaxEntries
		trace.LoadSymbols(symbols)
		trace.Start()
		if *traceFilter != "" {
			trace.SetFilterRegisters(strings.Split(*traceFilter, ","))
		}
		machine.SetTrace(trace, tools.Disassemble)

		if *verboseMode {
			fmt.Printf("Execution trace enabled: %s\n", tracePath)
		}
	}

	if *debugMode || *tuiMode {
		dbg := debugger.NewDebugger(machine)
		dbg.History.SetMaxSize(cfg.Debugger.HistorySize)
		dbg.LoadSymbols(symbols)
		dbg.LoadSourceMap(sourceMap)

		if *tuiMode {
			t := debugger.NewTUI(dbg)
			if err := t.Run(); err != nil {
				fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
				os.Exit(1)
			}
		} else {
			fmt.Println("lc3sim debugger - type 'help' for commands")
			fmt.Printf("Program loaded: %s\n", asmFile)
			fmt.Println()
			runCLIDebugger(dbg)
		}
	} else {
		if *verboseMode {
			fmt.Println("Starting execution...")
		}
		machine.Run()
		if machine.Trace != nil {
			if err := machine.Trace.Flush(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to flush trace: %v\n", err)
			}
		}
		if *verboseMode {
			fmt.Printf("Execution complete. Cycles: %d\n", machine.CPU.Cycles)
		}
	}
}

// runCLIDebugger is the line-oriented REPL a -debug session drives: read a
// line, hand it to the Debugger, print whatever it buffered.
func runCLIDebugger(dbg *debugger.Debugger) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("(lc3sim) ")
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := scanner.Text()
		if strings.TrimSpace(line) == "quit" || strings.TrimSpace(line) == "q" {
			return
		}
		if err := dbg.ExecuteCommand(line); err != nil {
			fmt.Println(err)
		}
		if out := dbg.GetOutput(); out != "" {
			fmt.Print(out)
		}
	}
}

// apiPortFromListenAddr extracts the port component of a config "host:port"
// listen address for the -port flag's default, falling back to 8374 if the
// address is malformed.
func apiPortFromListenAddr(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 8374
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 8374
	}
	return port
}

func runAPIServer(port int) {
	server := api.NewServer(port)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var shutdownOnce sync.Once
	performShutdown := func() {
		shutdownOnce.Do(func() {
			fmt.Println("\nShutting down API server...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("API server stopped")
			os.Exit(0)
		})
	}

	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "API server error: %v\n", err)
			os.Exit(1)
		}
	}()

	<-sigChan
	performShutdown()
}

// stdoutDisplay implements vm.DisplaySink by writing straight to the
// process's standard output, the direct-execution-mode equivalent of the
// API package's buffered per-session display.
type stdoutDisplay struct{}

func (stdoutDisplay) WriteByte(b byte) {
	_, _ = os.Stdout.Write([]byte{b})
}

// stdinKeyboard implements vm.KeyboardSource over a background reader
// goroutine so ReadByte never blocks the simulator's fetch-execute loop.
type stdinKeyboard struct {
	bytes chan byte
}

func newStdinKeyboard() *stdinKeyboard {
	k := &stdinKeyboard{bytes: make(chan byte, 256)}
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				k.bytes <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()
	return k
}

func (k *stdinKeyboard) ReadByte() (byte, bool) {
	select {
	case b := <-k.bytes:
		return b, true
	default:
		return 0, false
	}
}

func dumpSymbolTable(symbols map[string]uint16, filename string) error {
	text := tools.FormatSymbolTable(symbols)
	if filename == "" {
		_, err := fmt.Print(text)
		return err
	}
	f, err := os.Create(filename) // #nosec G304 -- user-specified symbol output path
	if err != nil {
		return fmt.Errorf("failed to create symbol file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close symbol file: %v\n", cerr)
		}
	}()
	_, err = f.WriteString(text)
	return err
}

func printHelp() {
	fmt.Printf(`lc3sim %s

Usage: lc3sim [options] <assembly-file>
       lc3sim -api-server [-port N]

Options:
  -help              Show this help message
  -version           Show version information
  -api-server        Start HTTP API server mode (no assembly file required)
  -port N            API server port (default: 8374, used with -api-server)
  -debug             Start in debugger mode (CLI)
  -tui               Start in TUI debugger mode
  -max-cycles N      Set maximum CPU cycles (default: 0, unbounded)
  -verbose           Enable verbose output

Symbol Options:
  -dump-symbols      Dump symbol table and exit
  -symbols-file FILE Symbol dump output file (default: stdout)

Tracing Options:
  -trace             Enable execution trace
  -trace-file FILE   Trace output file (default: trace.log in log dir)
  -trace-filter REGS Filter trace by registers (e.g., R0,R1,PC)

Examples:
  # Run a program directly
  lc3sim examples/hello.asm

  # Run with the line debugger
  lc3sim -debug examples/fibonacci.asm

  # Run with the full-screen debugger
  lc3sim -tui examples/fibonacci.asm

  # Run with an execution trace
  lc3sim -trace -trace-filter "R0,R1,PC" examples/factorial.asm

  # Start the remote control API
  lc3sim -api-server -port 8374

Debugger commands (when in -debug or -tui mode):
  run, r             Start/resume program execution
  continue, c        Continue execution
  step, s            Execute single instruction
  next, n            Step over function calls
  finish, fin        Step out of the current subroutine
  break ADDR         Set breakpoint at address/label
  info registers     Show all registers
  print EXPR         Evaluate and print an address or register
  reset [MODE]       Reload, restart, memory, or randomize
  help               Show debugger help
`, Version)
}
