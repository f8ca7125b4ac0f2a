package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/liangyou/golatest/internal/config"
	"github.com/liangyou/golatest/internal/logging"
	"github.com/liangyou/golatest/internal/version"
	"github.com/liangyou/golatest/pkg/models"
)

// CheckService 描述版本检查能力。
type CheckService interface {
	Check(ctx context.Context) models.CheckReport
}

// InstallService 描述完整的安装流程。
type InstallService interface {
	Run(ctx context.Context) (models.Outcome, error)
}

// Services 是一次命令运行所需的服务。
type Services struct {
	Checker  CheckService
	Pipeline InstallService
}

// Wiring 根据配置组装服务，progress 为 nil 时不显示下载进度。
type Wiring func(cfg models.Config, logger *log.Logger, progress version.ProgressFunc) Services

// App 持有命令共享的依赖。
type App struct {
	wire       Wiring
	configOpts []config.Option
}

// NewApp 创建 CLI 应用。
func NewApp(wire Wiring, opts ...config.Option) *App {
	if wire == nil {
		wire = DefaultWiring
	}
	return &App{wire: wire, configOpts: opts}
}

// RootCommand 构造 golatest 根命令。
func (a *App) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "golatest",
		Short: "Keep the local Go toolchain on the latest stable release",
		Long: `golatest compares the go on PATH with the latest stable release from go.dev
and installs the official archive (or the macOS package when run as root) after
verifying its SHA256 checksum.`,
	}
	root.PersistentFlags().BoolP("quiet", "q", false, "only print errors")
	root.PersistentFlags().BoolP("verbose", "v", false, "print debug logs for every stage")

	root.AddCommand(a.checkCommand(), a.installCommand(), versionCommand())
	return root
}

func (a *App) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether the installed go is the latest stable release",
		Long: `Report whether the installed go is the latest stable release.

Exit codes: 0 up to date, 10 update available, 11 local newer or prerelease,
12 network error, 13 not installed, 14 unparseable local version, 15 unexpected.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags(), a.configOpts...)
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("✗ ")+err.Error())
				return &ExitError{Code: CheckUnexpected, Err: err}
			}
			logger := logging.New(cmd.ErrOrStderr(), logging.Options{Quiet: cfg.Quiet, Verbose: cfg.Verbose})

			report := a.wire(cfg, logger, nil).Checker.Check(cmd.Context())
			if !cfg.Quiet || report.Result == models.NetworkError || report.Result == models.ParseError {
				fmt.Fprintln(cmd.ErrOrStderr(), statusLine(report))
			}

			code := CheckExitCode(report.Result)
			if code == CheckUpToDate {
				return nil
			}
			return &ExitError{Code: code, Err: report.Err}
		},
	}
}

func (a *App) installCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install the latest stable go when the local one is missing or outdated",
		Long: `Install the latest stable go when the local one is missing or outdated.

As root the toolchain goes to /usr/local/go (the .pkg installer on macOS);
otherwise to <prefix>/go with prefix defaulting to ~/.local.

Exit codes: 0 success or nothing to do, 1 environment error, 2 network or
download error, 3 checksum mismatch, 4 install failure, 5 post-install mismatch.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stderr := cmd.ErrOrStderr()
			cfg, err := config.Load(cmd.Flags(), a.configOpts...)
			if err != nil {
				fmt.Fprintln(stderr, ErrorStyle.Render("✗ ")+err.Error())
				return &ExitError{Code: InstallEnvironment, Err: err}
			}
			logger := logging.New(stderr, logging.Options{Quiet: cfg.Quiet, Verbose: cfg.Verbose})

			var progress version.ProgressFunc
			var bar *downloadProgress
			if !cfg.Quiet && !cfg.DryRun {
				bar = newDownloadProgress(stderr)
				progress = bar.Update
			}

			outcome, err := a.wire(cfg, logger, progress).Pipeline.Run(cmd.Context())
			if bar != nil {
				bar.Finish()
			}
			if err != nil {
				fmt.Fprintln(stderr, failureLine(err))
				return &ExitError{Code: InstallExitCode(err), Err: err}
			}

			if outcome.Plan != nil {
				printPlan(cmd.OutOrStdout(), outcome.Plan)
				return nil
			}
			if !cfg.Quiet {
				printOutcome(stderr, outcome)
			}
			return nil
		},
	}
	cmd.Flags().Bool("dry-run", false, "print the download URL, checksum source and install method without changing anything")
	cmd.Flags().BoolP("force", "f", false, "install even when go is managed by a package manager")
	cmd.Flags().String("prefix", "", "install prefix when not running as root (default ~/.local)")
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the golatest version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "golatest version %s\n", cmd.Root().Version)
		},
	}
}

func statusLine(r models.CheckReport) string {
	switch r.Result {
	case models.UpToDate:
		return SuccessStyle.Render("✓ ") + "go is up to date (" + VersionStyle.Render(r.Local) + ")"
	case models.UpdateAvailable:
		return WarningStyle.Render("↑ ") + fmt.Sprintf("update available: %s → %s", r.Local, VersionStyle.Render(r.Latest))
	case models.LocalNewerOrPrerelease:
		return MutedStyle.Render("• ") + fmt.Sprintf("local %s is newer than or a prerelease of %s", VersionStyle.Render(r.Local), r.Latest)
	case models.NotInstalled:
		return WarningStyle.Render("✗ ") + "go is not installed; latest is " + VersionStyle.Render(r.Latest)
	case models.NetworkError:
		return ErrorStyle.Render("✗ ") + "could not determine the latest release: " + errText(r.Err)
	case models.ParseError:
		return ErrorStyle.Render("✗ ") + "could not read the local go version: " + errText(r.Err)
	default:
		return ErrorStyle.Render("✗ ") + "unexpected check result " + r.Result.String()
	}
}

func failureLine(err error) string {
	return ErrorStyle.Render("✗ ") + err.Error()
}

func printPlan(w io.Writer, plan *models.Plan) {
	fmt.Fprintln(w, MutedStyle.Render("dry run, nothing was changed"))
	fmt.Fprintln(w, LabelStyle.Render("version")+VersionStyle.Render(plan.Version))
	fmt.Fprintln(w, LabelStyle.Render("download")+plan.DownloadURL)
	fmt.Fprintln(w, LabelStyle.Render("checksum")+plan.ChecksumURL)
	fmt.Fprintln(w, LabelStyle.Render("method")+plan.Method.String())
	fmt.Fprintln(w, LabelStyle.Render("prefix")+plan.Prefix)
	if plan.PathAdjust != "" {
		fmt.Fprintln(w, LabelStyle.Render("path")+plan.PathAdjust)
	}
}

func printOutcome(w io.Writer, out models.Outcome) {
	if !out.Installed {
		fmt.Fprintln(w, statusLine(out.Check))
		return
	}
	fmt.Fprintln(w, SuccessStyle.Render("✓ ")+"installed "+VersionStyle.Render(out.Check.Latest)+" to "+out.Target.Root)
	if out.Advisory != "" {
		fmt.Fprintln(w, WarningStyle.Render("! ")+out.Advisory)
	}
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
