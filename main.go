package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run 构建命令树并执行；日志写到 stderr，--verbose 时输出调试信息。
func run(ctx context.Context, args []string) error {
	logger := newLogger(log.InfoLevel)
	root := newRootCmd(logger)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
