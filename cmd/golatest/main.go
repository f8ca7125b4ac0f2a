package main

import (
	"context"
	"errors"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"

	"github.com/liangyou/golatest/internal/cli"
)

// 通过 -ldflags "-X main.appVersion=..." 注入。
var appVersion = "dev"

func main() {
	root := cli.NewApp(cli.DefaultWiring).RootCommand()
	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(appVersion),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
		fang.WithErrorHandler(cli.ErrorHandler),
	); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}
