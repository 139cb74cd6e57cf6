package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/fosdem/vrsink/lib/config"
	"github.com/fosdem/vrsink/lib/glthread"
	"github.com/fosdem/vrsink/lib/player"
	"github.com/fosdem/vrsink/lib/source/stdinsource"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/fosdem/vrsink/lib/window"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	titlePtr := flag.String("title", "vrsink", "Window title")
	widthPtr := flag.Uint("width", 1920, "Width of the input frames")
	heightPtr := flag.Uint("height", 1080, "Height of the input frames")
	ratePtr := flag.Uint("rate", 60, "Framerate limiter on the input data")
	formatPtr := flag.String("format", "RGB", "Pixel format of the input data")
	modePtr := flag.String("mode", "mono", "Multiview layout of the input data")
	outModePtr := flag.String("output-mode", "", "Multiview layout to show stereo input in")
	flag.Parse()

	srcCfg := &stdinsource.Config{
		Width:  int(*widthPtr),
		Height: int(*heightPtr),
		FPS:    int(*ratePtr),
	}
	if err := srcCfg.Format.UnmarshalText([]byte(*formatPtr)); err != nil {
		log.Fatal(err)
	}
	if err := srcCfg.Mode.UnmarshalText([]byte(*modePtr)); err != nil {
		log.Fatal(err)
	}
	sinkCfg := config.SinkCfg{Name: "vrsink"}
	if *outModePtr != "" {
		var out video.MultiviewMode
		if err := out.UnmarshalText([]byte(*outModePtr)); err != nil {
			log.Fatal(err)
		}
		sinkCfg.OutputMode = &out
	}

	cfg := &config.Config{
		Window: config.WindowCfg{Title: *titlePtr, Width: srcCfg.Width, Height: srcCfg.Height},
		Sink:   sinkCfg,
		Source: &config.SourceCfg{SourceCfgStub: config.SourceCfgStub{Type: "stdin"}, Cfg: srcCfg},
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid arguments: %s", err)
	}
	log.Printf("Accepting %s\n", srcCfg.Info())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue := glthread.New()
	glCtx, glCancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		defer glCancel()
		result <- player.Run(ctx, cfg, "", queue)
	}()

	_ = queue.Run(glCtx, window.PollEvents)
	if err := <-result; err != nil {
		log.Fatal(err)
	}
}
