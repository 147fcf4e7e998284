// Command tripchat is a terminal client for the trip planner. It runs the
// same conversation loop as the server, in process.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/va6996/tripchat/agents"
	"github.com/va6996/tripchat/bootstrap"
	"github.com/va6996/tripchat/config"
	logcontext "github.com/va6996/tripchat/context"
	"github.com/va6996/tripchat/core"
	"github.com/va6996/tripchat/log"
)

type chatOptions struct {
	configPath string
	currency   string
	country    string
	userID     string
	userName   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts chatOptions
	cmd := &cobra.Command{
		Use:          "tripchat",
		Short:        "Plan a trip from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "config.yaml", "configuration file")
	f.StringVar(&opts.currency, "currency", "", "currency override, e.g. EUR")
	f.StringVar(&opts.country, "country", "", "country you are in, e.g. IN")
	f.StringVar(&opts.userID, "user", "cli-user", "user id for saved trips")
	f.StringVar(&opts.userName, "name", "", "your name")
	return cmd
}

func run(ctx context.Context, opts chatOptions, in io.Reader, out io.Writer) error {
	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return err
	}
	log.Init(cfg.Log.Level)
	log.SetOutput(os.Stderr)

	app, err := bootstrap.Setup(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	s := &session{
		driver:   app.Driver,
		resolver: app.Resolver,
		dates:    func() *core.DateValidator { return core.NewDateValidator(app.Location) },
		opts:     opts,
	}
	return s.repl(ctx, in, out)
}

// session is one terminal conversation.
type session struct {
	driver   *agents.Driver
	resolver *core.Resolver
	dates    func() *core.DateValidator
	opts     chatOptions
	history  []agents.Message
}

func (s *session) repl(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx = logcontext.WithUserID(ctx, s.opts.userID)
	ctx = logcontext.WithSessionID(ctx, logcontext.NewRequestID())

	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, "Where would you like to go? (/reset to start over, /quit to leave)")
	for {
		fmt.Fprint(out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			s.history = nil
			fmt.Fprintln(out, "Conversation cleared.")
			continue
		}
		if err := s.turn(ctx, line, out); err != nil && ctx.Err() != nil {
			return nil
		}
	}
}

func (s *session) turn(ctx context.Context, text string, out io.Writer) error {
	ctx = logcontext.WithRequestID(ctx, logcontext.NewRequestID())
	messages := append(s.history, agents.Message{Role: agents.RoleUser, Content: text})

	mux := agents.NewMultiplexer(ctx, &terminalSink{out: out})
	res, err := s.driver.Run(ctx, agents.RunRequest{
		Messages: messages,
		UserName: s.opts.userName,
		Currency: s.resolver.Resolve(ctx, s.opts.currency, s.opts.country),
		Dates:    s.dates(),
	}, mux)
	if err != nil {
		log.Errorf(ctx, "Turn failed: %v", err)
	}
	_ = mux.Close(err)

	if res != nil && len(res.Messages) > 0 {
		s.history = res.Messages
	}
	return err
}

var (
	toolColor = color.New(color.FgCyan)
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// terminalSink prints tokens inline and tool activity on its own lines.
type terminalSink struct {
	out io.Writer
}

func (t *terminalSink) Send(e agents.Event) error {
	var err error
	switch e.Kind {
	case agents.EventToken:
		_, err = fmt.Fprint(t.out, e.Text)
	case agents.EventToolCall:
		args, _ := json.Marshal(e.Args)
		_, err = toolColor.Fprintf(t.out, "\n→ %s %s\n", e.Tool, args)
	case agents.EventToolResult:
		if e.Result != nil && e.Result.Success {
			_, err = okColor.Fprintf(t.out, "✓ %s\n", e.Tool)
		} else {
			msg := "failed"
			if e.Result != nil {
				msg = e.Result.Error
			}
			_, err = failColor.Fprintf(t.out, "✗ %s: %s\n", e.Tool, msg)
		}
	case agents.EventDone:
		_, err = fmt.Fprintln(t.out)
	}
	return err
}
