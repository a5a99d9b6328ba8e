package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/commonism/hpc-workspace/internal/config"
	"github.com/commonism/hpc-workspace/internal/identity"
	"github.com/commonism/hpc-workspace/internal/lifecycle"
	"github.com/commonism/hpc-workspace/internal/observability"
	"github.com/commonism/hpc-workspace/internal/policy"
	"github.com/commonism/hpc-workspace/internal/privilege"
	"github.com/commonism/hpc-workspace/internal/wserrors"
)

var CLI struct {
	Config     string `short:"c" help:"Configuration file path" default:"/etc/ws.conf"`
	UserConfig string `help:"Per-user exceptions configuration path" default:"ws_private.conf"`
	Verbose    bool   `short:"v" help:"Enable verbose logging"`

	Allocate struct {
		Name          string `arg:"" help:"Workspace name"`
		Duration      int    `short:"d" help:"Requested lifetime in days (0 uses the policy maximum)"`
		Filesystem    string `short:"F" help:"Workspace area to allocate in"`
		Extend        bool   `short:"x" help:"Extend an existing workspace instead of reusing it"`
		User          string `short:"u" help:"Act on another owner's workspace (allocation requires root, extension requires access to the directory)"`
		Reminder      int    `short:"r" help:"Days before expiry a reminder mail should be sent"`
		Mailaddress   string `short:"m" help:"Address for reminder mails"`
		MaxExtensions int    `default:"-1" help:"Override the extension count (root only)"`
	} `cmd:"" help:"Allocate, reuse or extend a workspace; prints its directory on stdout"`

	Release struct {
		Name       string `arg:"" help:"Workspace name"`
		Filesystem string `short:"F" help:"Workspace area the workspace lives in"`
	} `cmd:"" help:"Release a workspace into the area's trash"`

	Restore struct {
		TrashedName string `arg:"" help:"Trashed name as listed by 'ws list', form <user>-<name>-<timestamp>"`
		Target      string `arg:"" help:"Existing target workspace to restore into"`
		Filesystem  string `short:"F" help:"Workspace area the workspace lives in"`
	} `cmd:"" help:"Restore a trashed workspace into an existing target workspace"`

	List struct {
		Filesystem string `short:"F" help:"Workspace area to list"`
	} `cmd:"" help:"List restorable workspaces of the caller"`
}

func main() {
	kctx := kong.Parse(&CLI)

	// Stdout carries only the workspace path, everything else goes to the
	// error stream so batch scripts can capture the path.
	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	adapter := wserrors.NewCLIErrorAdapter(CLI.Verbose, logger)
	adapter.HandleError(run(kctx.Command()))
}

func run(command string) error {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return err
	}

	bracket := privilege.Detect(cfg.DBUID)

	caller, err := identity.Current()
	if err != nil {
		return err
	}

	exceptions, err := config.LoadUserExceptions(CLI.UserConfig)
	if err != nil {
		return err
	}

	resolver := policy.NewResolver(cfg, exceptions)

	ctx := observability.NewInvocation(context.Background())
	ctx = observability.WithUser(ctx, caller.Username)

	switch command {
	case "allocate <name>":
		return runAllocate(ctx, cfg, caller, resolver, bracket)
	case "release <name>":
		return runRelease(ctx, cfg, caller, resolver, bracket)
	case "restore <trashed-name> <target>":
		return runRestore(ctx, cfg, caller, resolver, bracket)
	case "list":
		return runList(cfg, caller, resolver, bracket)
	default:
		return wserrors.ValidationFailed("command", fmt.Sprintf("unknown command %q", command))
	}
}

func newManager(ctx context.Context, cfg *config.Config, caller *identity.Identity,
	resolver *policy.Resolver, bracket privilege.Bracket, area string) (*lifecycle.Manager, context.Context, error) {

	res, err := resolver.Resolve(caller, area)
	if err != nil {
		return nil, ctx, err
	}
	ctx = observability.WithArea(ctx, res.AreaName)
	return lifecycle.NewManager(cfg, caller, res, bracket), ctx, nil
}

func runAllocate(ctx context.Context, cfg *config.Config, caller *identity.Identity,
	resolver *policy.Resolver, bracket privilege.Bracket) error {

	opts := lifecycle.AllocateOptions{
		Name:         CLI.Allocate.Name,
		DurationDays: CLI.Allocate.Duration,
		TargetUser:   CLI.Allocate.User,
		Extend:       CLI.Allocate.Extend,
		Reminder:     CLI.Allocate.Reminder,
		MailAddress:  CLI.Allocate.Mailaddress,
	}

	if CLI.Allocate.MaxExtensions >= 0 {
		if !caller.IsAdmin() {
			return wserrors.ValidationFailed("max-extensions",
				"only the administrator may override the extension count")
		}
		override := CLI.Allocate.MaxExtensions
		opts.MaxExtensionsOverride = &override
	}

	if CLI.Allocate.User != "" && !CLI.Allocate.Extend && !caller.IsAdmin() {
		return wserrors.ValidationFailed("user",
			"only the administrator may allocate on behalf of another user")
	}

	manager, ctx, err := newManager(ctx, cfg, caller, resolver, bracket, CLI.Allocate.Filesystem)
	if err != nil {
		return err
	}

	result, err := manager.Allocate(ctx, opts)
	if err != nil {
		return err
	}

	fmt.Println(result.Directory)
	fmt.Fprintf(os.Stderr, "remaining extensions  : %d\n", result.Extensions)
	fmt.Fprintf(os.Stderr, "remaining time in days: %d\n", remainingDays(result.Expiration))
	return nil
}

func runRelease(ctx context.Context, cfg *config.Config, caller *identity.Identity,
	resolver *policy.Resolver, bracket privilege.Bracket) error {

	manager, ctx, err := newManager(ctx, cfg, caller, resolver, bracket, CLI.Release.Filesystem)
	if err != nil {
		return err
	}

	trashed, err := manager.Release(ctx, CLI.Release.Name)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "workspace released as %s\n", trashed)
	return nil
}

func runRestore(ctx context.Context, cfg *config.Config, caller *identity.Identity,
	resolver *policy.Resolver, bracket privilege.Bracket) error {

	manager, ctx, err := newManager(ctx, cfg, caller, resolver, bracket, CLI.Restore.Filesystem)
	if err != nil {
		return err
	}

	return manager.Restore(ctx, CLI.Restore.TrashedName, CLI.Restore.Target)
}

func runList(cfg *config.Config, caller *identity.Identity,
	resolver *policy.Resolver, bracket privilege.Bracket) error {

	manager, _, err := newManager(context.Background(), cfg, caller, resolver, bracket, CLI.List.Filesystem)
	if err != nil {
		return err
	}

	names, err := manager.ListRestorable()
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Println(name)
	}
	return nil
}

// remainingDays converts an absolute epoch expiry to whole days from now.
func remainingDays(expiration int64) int64 {
	return (expiration - nowUnix()) / (24 * 3600)
}
