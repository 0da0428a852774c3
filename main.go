package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmmorris1975/rcon-session-client/client"
	"github.com/mmmorris1975/rcon-session-client/config"
	"github.com/mmmorris1975/rcon-session-client/logging"
	"github.com/mmmorris1975/rcon-session-client/rcon"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// version is overridden at release time via -ldflags.
var version = "0.0.0-dev"

const issueReportURL = "https://github.com/mmmorris1975/rcon-session-client/issues/new"

// errPalette renders warnings/errors before flag parsing settles the real
// color preference; run() replaces it once that is known.
var errPalette = client.NewPalette(true, false)

type options struct {
	host      string
	port      string
	pass      string
	saved     string
	saveHost  string
	removals  []string
	listHosts bool

	files       []string
	waitMs      int
	interactive bool
	forceTTY    bool // -t alias for --interactive
	noPrompt    bool
	noColor     bool
	quiet       bool
	silent      bool // -s alias for --quiet
	noTerm      bool

	printEnv  bool
	writeIni  bool
	updateIni bool
	version   bool

	debug   bool
	logFile string
}

func main() {
	cmd := newRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errPalette.Errorf("%s", err))

		var re *rcon.Error
		if !errors.As(err, &re) {
			// not one of ours; ask for a report
			fmt.Fprintf(os.Stderr, "Please report this error here: %s\n", issueReportURL)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	o := new(options)

	cmd := &cobra.Command{
		Use:   progname() + " [flags] [commands...]",
		Short: "A commandline Remote-CONsole (RCON) client for the Source RCON protocol",
		Long: "A commandline Remote-CONsole (RCON) client designed for use with the Source RCON protocol.\n" +
			"It is also compatible with similar protocols such as the one used by Minecraft.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&o.host, "host", "H", "", "RCON server IP or hostname")
	flags.StringVarP(&o.port, "port", "P", "", "RCON server port")
	flags.StringVarP(&o.pass, "pass", "p", "", "RCON server password")
	flags.StringVarP(&o.saved, "saved", "S", "", "use a saved host's connection information")
	flags.StringVar(&o.saveHost, "save-host", "", "save the current target under the given name, then exit")
	flags.StringArrayVar(&o.removals, "remove-host", nil, "remove a saved host, then exit (repeatable)")
	flags.BoolVarP(&o.listHosts, "list-hosts", "l", false, "show all saved hosts, then exit")
	flags.StringArrayVarP(&o.files, "file", "f", nil, "load commands from a file, one per line (repeatable)")
	flags.IntVarP(&o.waitMs, "wait", "w", 0, "wait this many milliseconds between queued commands")
	flags.BoolVarP(&o.interactive, "interactive", "i", false, "start an interactive shell after any queued commands")
	flags.BoolVarP(&o.forceTTY, "tty", "t", false, "alias for --interactive")
	flags.BoolVarP(&o.noPrompt, "no-prompt", "Q", false, "disable the interactive prompt and command echo")
	flags.BoolVarP(&o.noColor, "no-color", "n", false, "disable colorized console output")
	flags.BoolVarP(&o.quiet, "quiet", "q", false, "minimize console output")
	flags.BoolVarP(&o.silent, "silent", "s", false, "alias for --quiet")
	flags.BoolVar(&o.noTerm, "no-term", false, "disable the end-of-response probe; rely on timed draining")
	flags.BoolVar(&o.printEnv, "print-env", false, "print the recognized environment variables, then exit")
	flags.BoolVar(&o.writeIni, "write-ini", false, "(over)write the INI file with default values, then exit")
	flags.BoolVar(&o.updateIni, "update-ini", false, "write current values to the INI file, then exit")
	flags.BoolVarP(&o.version, "version", "v", false, "print the version number, then exit")
	flags.BoolVar(&o.debug, "debug", false, "enable debug logging")
	flags.StringVar(&o.logFile, "log-file", "", "also write debug logs to this rotating file")

	_ = flags.MarkHidden("tty")
	_ = flags.MarkHidden("silent")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &rcon.Error{Kind: rcon.KindBadArgument, Msg: err.Error()}
	})

	return cmd
}

func progname() string {
	return filepath.Base(os.Args[0])
}

//nolint:gocyclo // linear once-through argument handling
func run(cmd *cobra.Command, o *options, args []string) error {
	o.quiet = o.quiet || o.silent
	o.interactive = o.interactive || o.forceTTY

	log := logging.New(logging.Options{
		Debug:   o.debug,
		Quiet:   o.quiet,
		NoColor: o.noColor,
		LogFile: o.logFile,
	})
	defer log.Sync() //nolint:errcheck // stderr sync is best-effort

	prefix := config.EnvPrefix(progname())

	if o.version {
		if o.quiet {
			fmt.Println(version)
		} else {
			fmt.Printf("%s v%s\n", progname(), version)
		}
		return nil
	}
	if o.printEnv {
		printEnv(os.Stdout, prefix)
		return nil
	}

	cfg, err := config.Load(progname(), log)
	if err != nil {
		return &rcon.Error{Kind: rcon.KindConfigError, Msg: "loading configuration", Cause: err}
	}
	settings := cfg.Settings

	pal := client.NewPalette(!o.noColor && !settings.DisableColors, settings.EnableBukkitColors)
	errPalette = pal

	if o.writeIni {
		if err = config.WriteDefault(cfg.IniPath); err != nil {
			return &rcon.Error{Kind: rcon.KindConfigError, Msg: "writing config", Cause: err}
		}
		fmt.Printf("%ssuccessfully wrote config: %s\n", pal.MsgPrefix(), cfg.IniPath)
		return nil
	}
	if o.updateIni {
		if err = cfg.Update(); err != nil {
			return &rcon.Error{Kind: rcon.KindConfigError, Msg: "updating config", Cause: err}
		}
		fmt.Printf("%ssuccessfully updated config: %s\n", pal.MsgPrefix(), cfg.IniPath)
		return nil
	}

	if cmd.Flags().NFlag() == 0 && len(args) == 0 && !settings.AllowNoArgs {
		_ = cmd.Help()
		return &rcon.Error{
			Kind: rcon.KindBadArgument,
			Msg: "no arguments were specified; give a target with [-H|--host], [-P|--port] & [-p|--pass], " +
				"or set bAllowNoArgs=true in the config file",
		}
	}

	target, err := resolveTarget(cmd, o, cfg)
	if err != nil {
		return err
	}

	done, err := handleHostfileArgs(o, cfg, target, pal)
	if done || err != nil {
		return err
	}

	commands := assembleCommands(args, o.files, o.quiet, log)

	if o.pass == "" && target.Pass == "" {
		target.Pass = promptPassword(pal)
	}
	if err = rcon.ValidatePassword(target.Pass, false); err != nil {
		return err
	}

	prompt := settings.CustomPrompt
	if prompt == "" {
		prompt = pal.Prompt(target.Host)
	}
	noPrompt := o.noPrompt || settings.DisablePrompt

	delay := time.Duration(o.waitMs) * time.Millisecond
	if !cmd.Flags().Changed("wait") {
		delay = time.Duration(settings.CommandDelayMs) * time.Millisecond
	}

	s := rcon.New(target.Host, target.Port)
	s.ReceiveDelay = time.Duration(settings.ReceiveDelayMs) * time.Millisecond
	s.SelectTimeout = time.Duration(settings.SelectTimeoutMs) * time.Millisecond
	s.DisableTerminator = o.noTerm
	s.Out = client.NewFragmentWriter(os.Stdout, pal)
	s.Log = log.With("session_id", s.ID())

	lc := client.NewLifecycle(s, pal, os.Stdout, log)
	lc.Install()
	defer lc.Shutdown()

	if err = s.Dial(); err != nil {
		return err
	}
	if err = s.Authenticate(target.Pass); err != nil {
		return orderly(lc, err)
	}

	if len(commands) > 0 {
		err = client.Batch(s, &client.BatchInput{
			Commands: commands,
			Delay:    delay,
			Prompt:   prompt,
			NoPrompt: noPrompt,
			Quiet:    o.quiet,
			Stdout:   os.Stdout,
		})
		if err != nil {
			return orderly(lc, err)
		}
	}

	if len(commands) == 0 || o.interactive {
		err = client.Interactive(s, &client.InteractiveInput{
			In:       os.Stdin,
			Stdout:   os.Stdout,
			Stderr:   os.Stderr,
			Prompt:   prompt,
			NoPrompt: noPrompt,
			Palette:  pal,
		})
		if err != nil {
			return orderly(lc, err)
		}
	}

	return nil
}

// orderly swallows the unwinding error when it was caused by a shutdown
// signal: an interrupted session is an orderly exit, not a failure.
func orderly(lc *client.Lifecycle, err error) error {
	if errors.Is(err, rcon.ErrInterrupted) || lc.Interrupted() {
		return nil
	}
	return err
}

// resolveTarget merges the config/env defaults, the saved-host entry (when
// -S was given), and the commandline overrides, in ascending precedence.
func resolveTarget(cmd *cobra.Command, o *options, cfg *config.Config) (config.HostEntry, error) {
	target := config.HostEntry{
		Host: cfg.Settings.DefaultHost,
		Port: cfg.Settings.DefaultPort,
		Pass: cfg.Settings.DefaultPass,
	}

	if o.saved != "" {
		hf, err := config.LoadHostfile(cfg.HostfilePath)
		if err != nil {
			return target, &rcon.Error{Kind: rcon.KindConfigError, Msg: "loading hostfile", Cause: err}
		}

		entry, ok := hf.Lookup(o.saved)
		if !ok {
			return target, &rcon.Error{Kind: rcon.KindBadArgument, Msg: fmt.Sprintf("there is no saved target named %q in the hosts file", o.saved)}
		}
		target = entry
	}

	if cmd.Flags().Changed("host") {
		target.Host = o.host
	}
	if cmd.Flags().Changed("port") {
		target.Port = o.port
	}
	if cmd.Flags().Changed("pass") {
		target.Pass = o.pass
	}

	return target, nil
}

// handleHostfileArgs services --save-host, --remove-host and --list-hosts.
// Reports done=true when one of them ran and the program should exit.
func handleHostfileArgs(o *options, cfg *config.Config, target config.HostEntry, pal *client.Palette) (done bool, err error) {
	if o.saveHost == "" && len(o.removals) == 0 && !o.listHosts {
		return false, nil
	}

	hf, err := config.LoadHostfile(cfg.HostfilePath)
	if err != nil {
		return true, &rcon.Error{Kind: rcon.KindConfigError, Msg: "loading hostfile", Cause: err}
	}

	if len(o.removals) > 0 {
		removed, missing, err := hf.Remove(o.removals...)
		if err != nil {
			return true, &rcon.Error{Kind: rcon.KindConfigError, Msg: "updating hostfile", Cause: err}
		}
		for _, name := range removed {
			fmt.Printf("%sremoved %q\n", pal.MsgPrefix(), name)
		}
		for _, name := range missing {
			fmt.Fprintf(os.Stderr, "%shostname %q doesn't exist\n", pal.ErrPrefix(), name)
		}
		if len(removed) > 0 && hf.Empty() {
			fmt.Printf("%sdeleted the hostfile as there are no remaining entries\n", pal.MsgPrefix())
		}
		return true, nil
	}

	if o.saveHost != "" {
		added, err := hf.Save(o.saveHost, target)
		if err != nil {
			return true, &rcon.Error{Kind: rcon.KindConfigError, Msg: "saving host", Cause: err}
		}
		verb := "updated"
		if added {
			verb = "added"
		}
		fmt.Printf("%s%s host %q: %s\n", pal.MsgPrefix(), verb, o.saveHost, net.JoinHostPort(target.Host, target.Port))
		return true, nil
	}

	// --list-hosts
	names := hf.Names()
	if len(names) == 0 {
		fmt.Fprintln(os.Stderr, "there are no saved hosts in the list")
		return true, nil
	}
	for _, name := range names {
		entry, _ := hf.Lookup(name)
		if o.quiet {
			fmt.Printf("%q  ( %s:%s )\n", name, entry.Host, entry.Port)
		} else {
			fmt.Printf("%q\n    Host:  %s\n    Port:  %s\n", name, entry.Host, entry.Port)
		}
	}
	return true, nil
}

// promptPassword asks for the password on the controlling terminal when none
// was supplied. Piped stdin skips the prompt; validation rejects the blank
// password afterwards.
func promptPassword(pal *client.Palette) string {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return ""
	}

	fmt.Fprint(os.Stderr, pal.MsgPrefix()+"password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(pw))
}
