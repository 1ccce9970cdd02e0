package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/ssh/terminal"

	prolog "github.com/ichiban/resolve"
	"github.com/ichiban/resolve/config"
	"github.com/ichiban/resolve/engine"
	"github.com/ichiban/resolve/syntax"
)

// Version is a version of this build.
var Version = "1pl/0.1"

type options struct {
	verbose     bool
	configPath  string
	trace       bool
	metricsAddr string
}

func (o *options) bind(fs *pflag.FlagSet) {
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "log every port of traced predicates")
	fs.StringVarP(&o.configPath, "config", "c", "", "path to a YAML config file")
	fs.BoolVar(&o.trace, "trace", false, "trace every predicate")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on")
}

func main() {
	if err := newCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	var o options
	cmd := cobra.Command{
		Use:     "1pl [file...]",
		Short:   "Interactive Prolog top level",
		Version: Version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := o.config(args)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, o.metricsAddr)
		},
	}
	o.bind(cmd.Flags())
	return &cmd
}

// config loads the config file and applies the flags and the files to consult over it.
func (o *options) config(files []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadFromFile(o.configPath); err != nil {
			return nil, err
		}
	}
	flags := config.Config{Trace: o.trace, Consult: files}
	if o.verbose {
		flags.LogLevel = logrus.DebugLevel.String()
	}
	cfg.Merge(&flags)
	return cfg, cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, metricsAddr string) error {
	oldState, err := terminal.MakeRaw(0)
	if err != nil {
		return errors.Wrap(err, "failed to enter raw mode")
	}
	restore := func() {
		_ = terminal.Restore(0, oldState)
	}
	defer restore()

	t := terminal.NewTerminal(os.Stdin, "?- ")
	defer fmt.Printf("\r\n")

	log := logrus.New()
	log.SetOutput(t)
	log.SetLevel(cfg.Level())

	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		go func() {
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	i := New(t, prolog.WithConfig(cfg), prolog.WithListener(engine.LogListener{Logger: log}))
	if err := i.KB.AddPredicateFactory(engine.PredicateKey{Name: "halt", Arity: 0}, engine.Deterministic(func([]engine.Term) (bool, error) {
		restore()
		fmt.Printf("\r\n")
		os.Exit(0)
		return true, nil
	})); err != nil {
		return err
	}

	for _, f := range cfg.Consult {
		if err := i.ConsultFile(f); err != nil {
			log.WithError(err).WithField("file", f).Error("failed to consult")
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	var buf strings.Builder
	keys := bufio.NewReader(os.Stdin)
	for {
		if err := handleLine(ctx, &buf, i, t, keys, log); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}

func handleLine(ctx context.Context, buf *strings.Builder, i *prolog.Interpreter, t *terminal.Terminal, keys *bufio.Reader, log logrus.FieldLogger) error {
	if buf.Len() == 0 {
		t.SetPrompt("?- ")
	} else {
		t.SetPrompt("|  ")
	}

	line, err := t.ReadLine()
	if err != nil {
		if err == io.EOF {
			return err
		}
		log.WithError(err).Error("failed to read line")
		buf.Reset()
		return nil
	}
	if _, err := buf.WriteString(line); err != nil {
		log.WithError(err).Error("failed to buffer")
		buf.Reset()
		return nil
	}

	c := 0
	sols, err := i.QueryContext(ctx, buf.String())
	switch {
	case err == nil:
		break
	case errors.Is(err, syntax.ErrInsufficient):
		if _, err := buf.WriteRune('\n'); err != nil {
			log.WithError(err).Error("failed to buffer")
			buf.Reset()
		}

		// Returns without resetting buf.
		return nil
	default:
		log.WithError(err).Error("failed to query")
		buf.Reset()
		return nil
	}

	for sols.Next() {
		c++

		m := sols.Current()
		vars := sols.Vars()
		ls := make([]string, 0, len(vars))
		for _, n := range vars {
			v := m[n]
			if _, ok := v.(*engine.Variable); ok {
				continue
			}
			ls = append(ls, fmt.Sprintf("%s = %s", n, v))
		}
		if len(ls) == 0 {
			if _, err := fmt.Fprintf(t, "%t.\n", true); err != nil {
				return err
			}
			break
		}

		if _, err := fmt.Fprintf(t, "%s ", strings.Join(ls, ",\n")); err != nil {
			return err
		}

		r, _, err := keys.ReadRune()
		if err != nil {
			log.WithError(err).Error("failed to read rune")
			break
		}
		if r != ';' {
			r = '.'
		}

		if _, err := fmt.Fprintf(t, "%s\n", string(r)); err != nil {
			return err
		}

		if r == '.' {
			break
		}
	}
	if err := sols.Close(); err != nil {
		return err
	}

	if err := sols.Err(); err != nil {
		log.WithError(err).Error("failed")
		buf.Reset()
		return nil
	}

	if c == 0 {
		if _, err := fmt.Fprintf(t, "%t.\n", false); err != nil {
			return err
		}
	}

	buf.Reset()
	return nil
}
