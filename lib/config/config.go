package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fosdem/vrsink/lib/filters/channelextract"
	"github.com/fosdem/vrsink/lib/filters/transformation"
	"github.com/fosdem/vrsink/lib/log"
	"github.com/fosdem/vrsink/lib/sink"
	"github.com/fosdem/vrsink/lib/source/ffmpegsource"
	"github.com/fosdem/vrsink/lib/source/gstsource"
	"github.com/fosdem/vrsink/lib/source/imgsource"
	"github.com/fosdem/vrsink/lib/source/stdinsource"
	"github.com/fosdem/vrsink/lib/testsrc"
	"github.com/fosdem/vrsink/lib/utils"
	"github.com/fosdem/vrsink/lib/video"
	yaml "github.com/goccy/go-yaml"
)

type Config struct {
	Window   WindowCfg
	Sink     SinkCfg
	Source   *SourceCfg
	Filters  []*FilterCfg
	Api      *ApiCfg
	LogLevel string `yaml:"log_level"`
}

func Parse(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %s", filename, err)
	}
	defer f.Close()

	absFilename, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("somehow, %s is malformed: %w", filename, err)
	}
	UnmarshalBase = filepath.Dir(absFilename)

	m := yaml.NewDecoder(f)
	cfg := &Config{}
	err = m.Decode(cfg)
	if err != nil {
		return nil, err
	}
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Source == nil {
		return fmt.Errorf("a source must be defined")
	}
	if err := c.Source.Validate(); err != nil {
		return fmt.Errorf("source is invalid: %w", err)
	}
	if err := c.Window.Validate(); err != nil {
		return fmt.Errorf("window is invalid: %w", err)
	}
	if err := c.Sink.Validate(); err != nil {
		return fmt.Errorf("sink is invalid: %w", err)
	}

	transformations := 0
	for i, flt := range c.Filters {
		if err := flt.Validate(); err != nil {
			return fmt.Errorf("filter %d (%s) is invalid: %w", i, flt.Type, err)
		}
		if _, ok := flt.Cfg.(*TransformationCfg); ok {
			transformations++
		}
	}
	if transformations > 1 {
		return fmt.Errorf("only one transformation filter can be used")
	}

	if c.Api != nil {
		if err := c.Api.Validate(); err != nil {
			return fmt.Errorf("api is invalid: %w", err)
		}
	}
	if c.LogLevel != "" {
		if _, err := log.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Window: %s (%dx%d)\n", c.Window.Title, c.Window.Width, c.Window.Height))

	props := c.Sink.Properties()
	b.WriteString(fmt.Sprintf("\nSink %s:\n", c.Sink.Name))
	b.WriteString(fmt.Sprintf("  output: %s/%s, downmix %s\n", props.OutputMode, props.OutputFlags, props.Downmix))
	b.WriteString(fmt.Sprintf("  force aspect ratio: %t, ignore alpha: %t\n", props.ForceAspectRatio, props.IgnoreAlpha))

	b.WriteString(fmt.Sprintf("\nSource: %s\n", c.Source.Type))

	if len(c.Filters) > 0 {
		b.WriteString("\nFilters:\n")
		for _, f := range c.Filters {
			b.WriteString(fmt.Sprintf("  %s\n", f.Type))
		}
	}
	if c.Api != nil {
		b.WriteString(fmt.Sprintf("\nApi: %s\n", c.Api.Bind))
	}
	return b.String()
}

type Valid interface {
	Validate() error
}

type WindowCfg struct {
	Title      string
	Width      int
	Height     int
	Fullscreen bool
}

func (w *WindowCfg) Validate() error {
	if w.Title == "" {
		w.Title = "vrsink"
	}
	if w.Width == 0 && w.Height == 0 {
		w.Width, w.Height = 1280, 720
	}
	if w.Width < 1 || w.Height < 1 {
		return fmt.Errorf("window size must be at least 1x1, got %dx%d", w.Width, w.Height)
	}
	return nil
}

// SinkCfg only overrides the properties that are set.
type SinkCfg struct {
	Name             string
	ForceAspectRatio *bool                 `yaml:"force_aspect_ratio"`
	PixelAspectRatio string                `yaml:"pixel_aspect_ratio"`
	HandleEvents     *bool                 `yaml:"handle_events"`
	IgnoreAlpha      *bool                 `yaml:"ignore_alpha"`
	OutputMode       *video.MultiviewMode  `yaml:"output_multiview_mode"`
	OutputFlags      *video.MultiviewFlags `yaml:"output_multiview_flags"`
	Downmix          *video.DownmixMode    `yaml:"output_multiview_downmix_mode"`
	RenderRectangle  *video.Rectangle      `yaml:"render_rectangle"`
}

func parseRatio(s string) (int, int, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, fmt.Errorf("%q is not a ratio like 1/1", s)
	}
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, 0, fmt.Errorf("bad numerator in %q: %w", s, err)
	}
	d, err := strconv.Atoi(strings.TrimSpace(den))
	if err != nil {
		return 0, 0, fmt.Errorf("bad denominator in %q: %w", s, err)
	}
	return n, d, nil
}

func (s *SinkCfg) Validate() error {
	if s.Name == "" {
		s.Name = "vrsink"
	}
	if s.PixelAspectRatio != "" {
		if _, _, err := parseRatio(s.PixelAspectRatio); err != nil {
			return err
		}
	}
	p := s.Properties()
	return p.Validate()
}

// Properties applies the configured values on top of the sink defaults.
func (s *SinkCfg) Properties() sink.Properties {
	p := sink.DefaultProperties()
	if s.ForceAspectRatio != nil {
		p.ForceAspectRatio = *s.ForceAspectRatio
	}
	if s.PixelAspectRatio != "" {
		if n, d, err := parseRatio(s.PixelAspectRatio); err == nil {
			p.ParN, p.ParD = n, d
		}
	}
	if s.HandleEvents != nil {
		p.HandleEvents = *s.HandleEvents
	}
	if s.IgnoreAlpha != nil {
		p.IgnoreAlpha = *s.IgnoreAlpha
	}
	if s.OutputMode != nil {
		p.OutputMode = *s.OutputMode
	}
	if s.OutputFlags != nil {
		p.OutputFlags = *s.OutputFlags
	}
	if s.Downmix != nil {
		p.Downmix = *s.Downmix
	}
	if s.RenderRectangle != nil {
		r := *s.RenderRectangle
		p.RenderRect = &r
	}
	return p
}

type SourceCfgStub struct {
	Type string
}

type SourceCfg struct {
	SourceCfgStub
	Cfg Valid
}

func (s *SourceCfg) UnmarshalYAML(b []byte) error {
	err := yaml.Unmarshal(b, &s.SourceCfgStub)
	if err != nil {
		return err
	}

	switch s.Type {
	case "testsrc":
		cfg := testsrc.Config{}
		s.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	case "gst":
		cfg := gstsource.Config{}
		s.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	case "image":
		cfg := imgsource.Config{}
		s.Cfg = &cfg
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return err
		}
		var paths struct{ Path CfgPath }
		if err := yaml.Unmarshal(b, &paths); err != nil {
			return err
		}
		cfg.Path = string(paths.Path)
		return nil
	case "ffmpeg_stdout":
		cfg := ffmpegsource.Config{}
		s.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	case "stdin":
		cfg := stdinsource.Config{}
		s.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	default:
		return fmt.Errorf("unknown source type: %s", s.Type)
	}
}

func (s *SourceCfg) Validate() error {
	if s.Cfg == nil {
		return fmt.Errorf("source type must be specified")
	}
	return s.Cfg.Validate()
}

type FilterCfgStub struct {
	Type string
}

type FilterCfg struct {
	FilterCfgStub
	Cfg Valid
}

type TransformationCfg struct {
	transformation.Params `yaml:",inline"`
	// Background overrides red, green and blue with a #rrggbb colour.
	Background string `yaml:"background"`
}

type ChannelExtractCfg struct {
	Channel uint
}

func (f *FilterCfg) UnmarshalYAML(b []byte) error {
	err := yaml.Unmarshal(b, &f.FilterCfgStub)
	if err != nil {
		return err
	}

	switch f.Type {
	case "transformation":
		cfg := TransformationCfg{Params: transformation.DefaultParams()}
		f.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	case "channelextract":
		cfg := ChannelExtractCfg{}
		f.Cfg = &cfg
		return yaml.Unmarshal(b, &cfg)
	default:
		return fmt.Errorf("unknown filter type: %s", f.Type)
	}
}

func (f *FilterCfg) Validate() error {
	if f.Cfg == nil {
		return fmt.Errorf("filter type must be specified")
	}
	return f.Cfg.Validate()
}

func (t *TransformationCfg) Validate() error {
	if t.Background != "" {
		c, err := utils.ColourParse(t.Background)
		if err != nil {
			return err
		}
		t.Red, t.Green, t.Blue = utils.ColourFloats(c)
	}
	return t.Params.Validate()
}

func (c *ChannelExtractCfg) Validate() error {
	if c.Channel > channelextract.ChannelBlue {
		return fmt.Errorf("channel must be between 0 and %d", channelextract.ChannelBlue)
	}
	return nil
}

type ApiCfg struct {
	Bind           string
	EnableProfiler bool `yaml:"enable_profiler"`
}

func (a *ApiCfg) Validate() error {
	if a.Bind == "" {
		return fmt.Errorf("api bind address must be specified")
	}
	return nil
}
