package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fosdem/vrsink/lib/config"
	"github.com/fosdem/vrsink/lib/glthread"
	vrlog "github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/player"
	"github.com/fosdem/vrsink/lib/window"
)

func init() {
	// The OpenGL stuff must be in one thread
	runtime.LockOSThread()
}

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <config file>", os.Args[0])
	}
	cfg, err := config.Parse(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}
	level, err := vrlog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	vrlog.Setup(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := glthread.New()
	glCtx, glCancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		defer glCancel()
		result <- player.Run(ctx, cfg, os.Args[1], queue)
	}()

	_ = queue.Run(glCtx, window.PollEvents)
	if err := <-result; err != nil {
		log.Fatal(err)
	}
}
