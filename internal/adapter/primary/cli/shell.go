package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"streamvol/internal/logging"
)

// shellVerbosity survives across the per-line root commands of a shell session.
var shellVerbosity int

func newShellCmd() *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive shell for the streamvol subcommands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractiveShell(prompt, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "streamvol> ", "shell prompt")
	return cmd
}

func runInteractiveShell(prompt string, out io.Writer) error {
	historyFile := filepath.Join(os.TempDir(), "streamvol-shell.history")
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          out,
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	shellVerbosity = logging.Verbosity()
	session := sessionFlags()
	fmt.Fprintln(out, "Interactive shell. Type 'help' for usage, 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			fmt.Fprintln(out)
			continue
		}
		if err == io.EOF {
			fmt.Fprintln(out)
			return nil
		}
		if !runShellLine(line, session, out) {
			return nil
		}
	}
}

// runShellLine handles one input line and reports whether the session continues.
func runShellLine(line string, session []string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return true
	}
	switch line {
	case "exit", "quit":
		fmt.Fprintln(out, "Bye!")
		return false
	case "help":
		printShellHelp(out)
		return true
	}
	tokens, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintf(out, "Parse error: %v\n", err)
		return true
	}
	if len(tokens) == 0 {
		return true
	}
	switch tokens[0] {
	case "log":
		if err := handleShellLog(tokens[1:], out); err != nil {
			fmt.Fprintf(out, "log: %v\n", err)
		}
		return true
	case "shell":
		fmt.Fprintln(out, "Already in the shell. Enter another command or 'exit' to quit.")
		return true
	}

	if err := executeArgs(append(append([]string{}, session...), tokens...), out); err != nil {
		fmt.Fprintf(out, "command error: %v\n", err)
	}
	return true
}

// sessionFlags carries --config and --policy of the shell into every line.
func sessionFlags() []string {
	flags := []string{"--config", cfgPath}
	if policyPath != "" {
		flags = append(flags, "--policy", policyPath)
	}
	return flags
}

func handleShellLog(args []string, out io.Writer) error {
	fs := pflag.NewFlagSet("log", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var vcount int
	var level string
	var show bool
	fs.CountVarP(&vcount, "verbose", "v", "Increase verbosity (-v... up to 4)")
	fs.StringVar(&level, "level", "", "set level (error|warn|info|debug|trace)")
	fs.BoolVarP(&show, "show", "s", false, "show the current level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case show && vcount == 0 && level == "":
		fmt.Fprintf(out, "log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
		return nil
	case level != "":
		_, count, err := logging.ParseLevel(level)
		if err != nil {
			return err
		}
		shellVerbosity = count
	case vcount > 0:
		shellVerbosity = vcount
	default:
		fmt.Fprintf(out, "log level: %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
		return nil
	}

	logging.SetVerbosity(shellVerbosity)
	fmt.Fprintf(out, "log level set to %s (-v x%d)\n", logging.LevelName(), logging.Verbosity())
	return nil
}

func printShellHelp(out io.Writer) {
	fmt.Fprintln(out, `Examples:
  streams                          # list streams of the policy
  curve music                      # show all curves of a stream
  curve ring -c speaker            # one category only
  db music -c headset -i 7         # resolve an index to dB
  apply music -i 10                # resolve and push to the output
  policy check                     # validate the policy file
  log -vv                          # more detailed logging
  log --level trace                # set a level by name
  log --show                       # show the current level
  exit / quit                      # leave the shell`)
}
