package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fosdem/vrsink/lib/source/imgsource"
	"github.com/fosdem/vrsink/lib/source/stdinsource"
	"github.com/fosdem/vrsink/lib/testsrc"
	"github.com/fosdem/vrsink/lib/video"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullConfig = `
log_level: debug
window:
  title: stereo preview
  width: 800
  height: 600
sink:
  name: preview
  force_aspect_ratio: false
  pixel_aspect_ratio: 16/15
  output_multiview_mode: side-by-side
  output_multiview_downmix_mode: red-cyan-dubois
  render_rectangle: {x: 10, y: 20, w: 300, h: 200}
source:
  type: testsrc
  pattern: checkers-8
  width: 640
  height: 480
  fps: 25
  multiview_mode: frame-by-frame
filters:
  - type: channelextract
    channel: 2
  - type: transformation
    yrotation: 30
    zfar: 50
    background: "#ff0000"
api:
  bind: 127.0.0.1:8000
  enable_profiler: true
`

func writeConfig(t *testing.T, dir, contents string) string {
	t.Helper()
	path := filepath.Join(dir, "vrsink.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestParseFullConfig(t *testing.T) {
	cfg, err := Parse(writeConfig(t, t.TempDir(), fullConfig))
	require.NoError(t, err)

	assert.Equal(t, "stereo preview", cfg.Window.Title)
	assert.Equal(t, 800, cfg.Window.Width)

	props := cfg.Sink.Properties()
	assert.False(t, props.ForceAspectRatio)
	assert.True(t, props.IgnoreAlpha, "default kept")
	assert.Equal(t, 16, props.ParN)
	assert.Equal(t, 15, props.ParD)
	assert.Equal(t, video.ModeSideBySide, props.OutputMode)
	assert.Equal(t, video.DownmixRedCyanDubois, props.Downmix)
	require.NotNil(t, props.RenderRect)
	assert.Equal(t, video.Rectangle{X: 10, Y: 20, W: 300, H: 200}, *props.RenderRect)

	src, ok := cfg.Source.Cfg.(*testsrc.Config)
	require.True(t, ok)
	assert.Equal(t, testsrc.PatternCheckers8, src.Pattern)
	assert.Equal(t, 25, src.FPS)
	assert.Equal(t, video.ModeFrameByFrame, src.Mode)

	require.Len(t, cfg.Filters, 2)
	ce, ok := cfg.Filters[0].Cfg.(*ChannelExtractCfg)
	require.True(t, ok)
	assert.Equal(t, uint(2), ce.Channel)
	tr, ok := cfg.Filters[1].Cfg.(*TransformationCfg)
	require.True(t, ok)
	assert.Equal(t, float32(30), tr.YRotation)
	assert.Equal(t, 50.0, tr.ZFar)
	assert.Equal(t, float32(1), tr.Red)
	assert.Equal(t, float32(0), tr.Green)
	assert.Equal(t, 45.0, tr.Fovy, "default kept")

	require.NotNil(t, cfg.Api)
	assert.Equal(t, "127.0.0.1:8000", cfg.Api.Bind)
	assert.True(t, cfg.Api.EnableProfiler)
	assert.Contains(t, cfg.String(), "side-by-side")
}

func TestDefaults(t *testing.T) {
	cfg, err := Parse(writeConfig(t, t.TempDir(), "source:\n  type: testsrc\n"))
	require.NoError(t, err)
	assert.Equal(t, "vrsink", cfg.Window.Title)
	assert.Equal(t, 1280, cfg.Window.Width)
	assert.Equal(t, "vrsink", cfg.Sink.Name)
	assert.Nil(t, cfg.Api)

	props := cfg.Sink.Properties()
	assert.True(t, props.ForceAspectRatio)
	assert.Equal(t, video.ModeMono, props.OutputMode)
}

func TestImagePathIsRelativeToConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Parse(writeConfig(t, dir, "source:\n  type: image\n  path: card.png\n  inotify: true\n"))
	require.NoError(t, err)

	img, ok := cfg.Source.Cfg.(*imgsource.Config)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "card.png"), img.Path)
	assert.True(t, img.Inotify)
}

func TestStdinSource(t *testing.T) {
	cfg, err := Parse(writeConfig(t, t.TempDir(), "source:\n  type: stdin\n  width: 640\n  height: 480\n  format: RGBA\n"))
	require.NoError(t, err)

	in, ok := cfg.Source.Cfg.(*stdinsource.Config)
	require.True(t, ok)
	assert.Equal(t, 640, in.Width)
	assert.Equal(t, video.FormatRGBA, in.Format)
	assert.Equal(t, 60, in.FPS)
}

func TestInvalidConfigs(t *testing.T) {
	cases := map[string]string{
		"no source":         "window:\n  width: 10\n  height: 10\n",
		"unknown source":    "source:\n  type: v4l\n",
		"unknown filter":    "source:\n  type: testsrc\nfilters:\n  - type: blur\n",
		"bad channel":       "source:\n  type: testsrc\nfilters:\n  - type: channelextract\n    channel: 4\n",
		"two transforms":    "source:\n  type: testsrc\nfilters:\n  - type: transformation\n  - type: transformation\n",
		"bad background":    "source:\n  type: testsrc\nfilters:\n  - type: transformation\n    background: red\n",
		"bad fovy":          "source:\n  type: testsrc\nfilters:\n  - type: transformation\n    fovy: 200\n",
		"bad ratio":         "source:\n  type: testsrc\nsink:\n  pixel_aspect_ratio: wide\n",
		"bad rect":          "source:\n  type: testsrc\nsink:\n  render_rectangle: {x: 0, y: 0, w: 0, h: 10}\n",
		"bad mode":          "source:\n  type: testsrc\nsink:\n  output_multiview_mode: sideways\n",
		"empty bind":        "source:\n  type: testsrc\napi:\n  enable_profiler: true\n",
		"bad log level":     "source:\n  type: testsrc\nlog_level: chatty\n",
		"ffmpeg no command": "source:\n  type: ffmpeg_stdout\n  width: 10\n  height: 10\n",
		"gst no pipeline":   "source:\n  type: gst\n",
		"stdin no size":     "source:\n  type: stdin\n",
	}
	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(writeConfig(t, t.TempDir(), contents))
			assert.Error(t, err)
		})
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "source:\n  type: testsrc\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reloaded := make(chan *Config, 1)
	require.NoError(t, Watch(ctx, path, func(c *Config) { reloaded <- c }))

	require.NoError(t, os.WriteFile(path, []byte("source:\n  type: testsrc\nsink:\n  ignore_alpha: false\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.False(t, cfg.Sink.Properties().IgnoreAlpha)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}
}

func TestImagePathExpansion(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("VRSINK_CARDS", "/srv/cards")

	cases := []struct {
		path string
		want string
	}{
		{"~/card.png", filepath.Join(home, "card.png")},
		{"$VRSINK_CARDS/card.png", "/srv/cards/card.png"},
		{"/abs/../card.png", "/card.png"},
	}
	for _, c := range cases {
		cfg, err := Parse(writeConfig(t, t.TempDir(), "source:\n  type: image\n  path: "+c.path+"\n"))
		require.NoError(t, err, c.path)
		img, ok := cfg.Source.Cfg.(*imgsource.Config)
		require.True(t, ok)
		assert.Equal(t, c.want, img.Path, c.path)
	}

	got, err := resolvePath("", "/base")
	require.NoError(t, err)
	assert.Empty(t, got)
}
