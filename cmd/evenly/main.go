package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/mmynk/evenly/internal/api"
	"github.com/mmynk/evenly/internal/auth"
	"github.com/mmynk/evenly/internal/config"
	"github.com/mmynk/evenly/internal/metrics"
	"github.com/mmynk/evenly/internal/service"
	"github.com/mmynk/evenly/internal/session"
	"github.com/mmynk/evenly/internal/storage/sqlite"
	"github.com/mmynk/evenly/pkg/logging"
)

const (
	metricsJob  = "evenly_cli"
	pushTimeout = 5 * time.Second
)

// command is one evenly subcommand.
type command struct {
	usage string
	// auth is true when the command needs a signed-in session.
	auth  bool
	// local commands run without the API or the session store.
	local bool
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"signin":         {usage: "signin -email EMAIL [-password PASSWORD] | signin -token TOKEN", run: runSignIn},
	"signup":         {usage: "signup -name NAME -email EMAIL [-password PASSWORD]", run: runSignUp},
	"signout":        {usage: "signout", run: runSignOut},
	"whoami":         {usage: "whoami", auth: true, run: runWhoAmI},
	"passwd":         {usage: "passwd [-current PASSWORD] [-new PASSWORD]", auth: true, run: runChangePassword},
	"dashboard":      {usage: "dashboard", auth: true, run: runDashboard},
	"balances":       {usage: "balances", auth: true, run: runBalances},
	"groups":         {usage: "groups", auth: true, run: runGroups},
	"group":          {usage: "group <id>", auth: true, run: runGroup},
	"create-group":   {usage: "create-group -name NAME [-description TEXT] [-members id,id]", auth: true, run: runCreateGroup},
	"settle-up":      {usage: "settle-up <group-id>", auth: true, run: runSettleUp},
	"expenses":       {usage: "expenses", auth: true, run: runExpenses},
	"split":          {usage: "split -total N [-strategy equal|percentage|exact] -participants a,b [-payer a] [-set a=40]", local: true, run: runSplit},
	"add-expense":    {usage: "add-expense -description TEXT -amount N [-group id | -with id,id] [-strategy S] [-set id=V]", auth: true, run: runAddExpense},
	"delete-expense": {usage: "delete-expense <id>", auth: true, run: runDeleteExpense},
	"settlements":    {usage: "settlements", auth: true, run: runSettlements},
	"settle":         {usage: "settle -to ID -amount N [-group id] [-note TEXT]", auth: true, run: runSettle},
	"search":         {usage: "search <query>", auth: true, run: runSearch},
	"ai-consent":     {usage: "ai-consent on|off", auth: true, run: runAIConsent},
	"send-insights":  {usage: "send-insights", auth: true, run: runSendInsights},
	"send-reminders": {usage: "send-reminders", auth: true, run: runSendReminders},
	"avatar":         {usage: "avatar <image-file>", auth: true, run: runAvatar},
}

// app holds everything a command needs. It is built once per invocation.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
	in     io.Reader

	store       *sqlite.SQLiteStore
	session     *session.Session
	client      *api.Client
	metrics     *metrics.Metrics
	auth        *service.AuthService
	expenses    *service.ExpenseService
	groups      *service.GroupService
	settlements *service.SettlementService
	dashboard   *service.DashboardService
	directory   *service.Directory
}

func main() {
	config.LoadEnvFile()
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, os.Stderr)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	name := os.Args[1]
	if name == "help" || name == "-h" || name == "--help" {
		usage(os.Stdout)
		return
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "evenly: unknown command %q\n\n", name)
		usage(os.Stderr)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, cfg, logger, name, cmd, os.Args[2:])
	stop()
	os.Exit(code)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, name string, cmd command, args []string) int {
	a := &app{cfg: cfg, logger: logger, out: os.Stdout, in: os.Stdin}

	if !cmd.local {
		var err error
		if a, err = newApp(ctx, cfg, logger); err != nil {
			logger.Error("Failed to start", "error", err)
			return 1
		}
		defer a.close()

		if cmd.auth && !a.session.IsAuthenticated() {
			fmt.Fprintln(os.Stderr, "evenly: not signed in; run `evenly signin` first")
			return 1
		}
	}

	if err := cmd.run(ctx, a, args); err != nil {
		reportError(os.Stderr, name, err)
		return 1
	}
	return 0
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	var opts []sqlite.Option
	if cfg.Secret != "" {
		sealer, err := auth.NewSealer(cfg.Secret)
		if err != nil {
			return nil, err
		}
		opts = append(opts, sqlite.WithSealer(sealer))
	}

	store, err := sqlite.New(cfg.DBPath, opts...)
	if err != nil {
		return nil, err
	}
	logger.Debug("Storage initialized", "database", cfg.DBPath)

	sess := session.New(store, nil)
	sess.SetLogger(logger)

	m := metrics.New()
	client, err := api.New(cfg.APIURL, api.Options{
		Timeout: cfg.Timeout,
		Tokens:  sess,
		Logger:  logger,
		Metrics: m,
	})
	if err != nil {
		store.Close()
		return nil, err
	}
	sess.SetUserFetcher(client)

	if err := sess.Init(ctx); err != nil {
		store.Close()
		return nil, err
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		out:         os.Stdout,
		in:          os.Stdin,
		store:       store,
		session:     sess,
		client:      client,
		metrics:     m,
		auth:        service.NewAuthService(client, client, sess, logger),
		expenses:    service.NewExpenseService(client, sess, m),
		groups:      service.NewGroupService(client),
		settlements: service.NewSettlementService(client),
		dashboard:   service.NewDashboardService(client),
		directory:   service.NewDirectory(store, client, sess),
	}, nil
}

// close pushes metrics when a gateway is configured and closes the store.
func (a *app) close() {
	if a.cfg.PushgatewayURL != "" && a.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		if err := a.metrics.Push(ctx, a.cfg.PushgatewayURL, metricsJob, nil); err != nil {
			a.logger.Warn("Metrics push failed", "error", err)
		}
		cancel()
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close storage", "error", err)
		}
	}
}

func reportError(w io.Writer, name string, err error) {
	var formErr *service.FormErrors
	if errors.As(err, &formErr) {
		fmt.Fprintf(w, "evenly %s: the form has errors:\n", name)
		for _, fe := range formErr.Errors {
			fmt.Fprintf(w, "  %s: %s\n", fe.Field, fe.Message)
		}
		return
	}
	fmt.Fprintf(w, "evenly %s: %v\n", name, err)
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: evenly <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}
