// Package interactive provides the operator console of ycpswasyn.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/ycpswasyn/ycpswasyn-go/pkg/asyn"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/cpsw"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/driver"
	"github.com/ycpswasyn/ycpswasyn-go/pkg/inspect"
)

// Driver is the driver surface the console uses.
type Driver interface {
	State() driver.State
	Summary() driver.Summary
	SessionID() string
	StreamStats() []driver.StreamStats
	SaveConfig(path string) error
	LoadConfig(path string) error
	ConfigStatus() (driver.ConfigStatus, error)
}

// Console runs console commands against a port and its driver.
type Console struct {
	port      *asyn.Port
	drv       Driver
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	root      cpsw.Path
	rl        *readline.Instance
}

// New creates a console. tree may be nil, which disables the tree and read
// commands; root is the path tree shows by default.
func New(port *asyn.Port, drv Driver, tree inspect.Tree, root cpsw.Path) *Console {
	c := &Console{
		port:      port,
		drv:       drv,
		formatter: inspect.NewFormatter(),
		root:      root,
	}
	if tree != nil {
		c.inspector = inspect.NewInspector(tree)
	}
	return c
}

// Attach connects the console to a terminal.
func (c *Console) Attach() error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "ycpswasyn> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	c.rl = rl
	return nil
}

// Stdout returns a writer that coordinates with the readline input. It must
// only be called after Attach.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Run reads commands until quit, EOF or ctx is done. Attach must have been
// called.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	out := c.rl.Stdout()
	c.printHelp(out)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}
		if c.Execute(out, line) {
			fmt.Fprintln(out, "Exiting...")
			cancel()
			return
		}
	}
}

// Execute runs one command line, writing its output to w. It returns true
// for quit.
func (c *Console) Execute(w io.Writer, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		c.printHelp(w)
	case "dbl":
		c.cmdList(w, args)
	case "dbgf", "get":
		c.cmdGet(w, args)
	case "dbpf", "put":
		c.cmdPut(w, args)
	case "tree", "t":
		c.cmdTree(w, args)
	case "read", "r":
		c.cmdRead(w, args)
	case "save":
		c.cmdConfig(w, "save", args, c.drv.SaveConfig)
	case "load":
		c.cmdConfig(w, "load", args, c.drv.LoadConfig)
	case "status":
		c.cmdStatus(w)
	case "streams":
		c.cmdStreams(w)
	case "quit", "exit", "q":
		return true
	default:
		fmt.Fprintf(w, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (c *Console) printHelp(w io.Writer) {
	fmt.Fprintln(w, `
Driver Commands:
  Records:
    dbl [pattern]        - List records, optionally matching a glob
    dbgf <record>        - Read a record
    dbpf <record> <val>  - Write a record (menu label, number or array)

  Register tree:
    tree [path] [depth]  - Show the register tree
    read <path>          - Read a register directly

  Configuration:
    save <file>          - Save the register configuration
    load <file>          - Load a saved configuration

  General:
    status               - Show driver state and record counts
    streams              - Show stream reader statistics
    help                 - Show this help
    quit                 - Exit`)
}

func (c *Console) cmdList(w io.Writer, args []string) {
	pattern := ""
	if len(args) > 0 {
		pattern = args[0]
	}
	recs := c.port.Records(pattern)
	for _, r := range recs {
		fmt.Fprintf(w, "%s\n", r.Name)
	}
	fmt.Fprintf(w, "%d records\n", len(recs))
}

func (c *Console) cmdGet(w io.Writer, args []string) {
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: dbgf <record>")
		return
	}
	v, err := c.port.Get(args[0])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%s = %s\n", args[0], v)
}

func (c *Console) cmdPut(w io.Writer, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(w, "Usage: dbpf <record> <value>")
		return
	}
	if err := c.port.Put(args[0], strings.Join(args[1:], " ")); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	c.cmdGet(w, args[:1])
}

func (c *Console) cmdTree(w io.Writer, args []string) {
	if c.inspector == nil {
		fmt.Fprintln(w, "No register tree attached")
		return
	}
	p, depth := c.root, 1
	if len(args) > 0 {
		var err error
		if p, err = cpsw.ParsePath(args[0]); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return
		}
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			fmt.Fprintf(w, "Invalid depth: %s\n", args[1])
			return
		}
		depth = n
	}
	info, err := c.inspector.Inspect(p, depth)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprint(w, c.formatter.FormatTree(info))
}

func (c *Console) cmdRead(w io.Writer, args []string) {
	if c.inspector == nil {
		fmt.Fprintln(w, "No register tree attached")
		return
	}
	if len(args) != 1 {
		fmt.Fprintln(w, "Usage: read <path>")
		return
	}
	p, err := cpsw.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	info, err := c.inspector.Inspect(p, 0)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	vals, err := c.inspector.Read(p)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%s = %s\n", p, inspect.FormatValues(vals, info.Enum))
}

func (c *Console) cmdConfig(w io.Writer, op string, args []string, fn func(string) error) {
	if len(args) != 1 {
		fmt.Fprintf(w, "Usage: %s <file>\n", op)
		return
	}
	if err := fn(args[0]); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "%s started, see status\n", op)
}

func (c *Console) cmdStatus(w io.Writer) {
	fmt.Fprintf(w, "Port:    %s\n", c.port.Name())
	fmt.Fprintf(w, "State:   %s\n", c.drv.State())
	fmt.Fprintf(w, "Session: %s\n", c.drv.SessionID())
	fmt.Fprintf(w, "Records: %s\n", c.drv.Summary())

	status, err := c.drv.ConfigStatus()
	if err != nil {
		fmt.Fprintf(w, "Config:  %s (%v)\n", status, err)
	} else {
		fmt.Fprintf(w, "Config:  %s\n", status)
	}
}

func (c *Console) cmdStreams(w io.Writer) {
	stats := c.drv.StreamStats()
	if len(stats) == 0 {
		fmt.Fprintln(w, "No streams")
		return
	}
	for _, s := range stats {
		fmt.Fprintf(w, "%s: %d frames, %d short, %d errors, last frame %d\n",
			s.Path, s.Frames, s.ShortFrames, s.Errors, s.LastFrame)
	}
}
