package video

import (
	"fmt"
	"strings"
)

type MultiviewMode int

const (
	ModeNone MultiviewMode = iota - 1
	ModeMono
	ModeLeft
	ModeRight
	ModeSideBySide
	ModeTopBottom
	ModeFrameByFrame
)

var modeNames = map[MultiviewMode]string{
	ModeNone:         "none",
	ModeMono:         "mono",
	ModeLeft:         "left",
	ModeRight:        "right",
	ModeSideBySide:   "side-by-side",
	ModeTopBottom:    "top-bottom",
	ModeFrameByFrame: "frame-by-frame",
}

func ParseMultiviewMode(s string) (MultiviewMode, error) {
	if s == "" {
		return ModeMono, nil
	}
	for m, name := range modeNames {
		if strings.EqualFold(name, s) {
			return m, nil
		}
	}
	return ModeNone, fmt.Errorf("unknown multiview mode: %s", s)
}

func (m MultiviewMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("MultiviewMode(%d)", int(m))
}

// IsMono reports whether a stream in this mode carries a single view.
func (m MultiviewMode) IsMono() bool {
	switch m {
	case ModeNone, ModeMono, ModeLeft, ModeRight:
		return true
	default:
		return false
	}
}

// Views is the number of output frames one converted bundle occupies.
func (m MultiviewMode) Views() int {
	if m == ModeFrameByFrame {
		return 2
	}
	return 1
}

type MultiviewFlags uint32

const (
	FlagsNone           MultiviewFlags = 0
	FlagsRightViewFirst MultiviewFlags = 1 << 0
	FlagsLeftFlipped    MultiviewFlags = 1 << 1
	FlagsLeftFlopped    MultiviewFlags = 1 << 2
	FlagsRightFlipped   MultiviewFlags = 1 << 3
	FlagsRightFlopped   MultiviewFlags = 1 << 4
	FlagsHalfAspect     MultiviewFlags = 1 << 14
	FlagsMixedMono      MultiviewFlags = 1 << 15
)

var flagNames = []struct {
	flag MultiviewFlags
	name string
}{
	{FlagsRightViewFirst, "right-view-first"},
	{FlagsLeftFlipped, "left-flipped"},
	{FlagsLeftFlopped, "left-flopped"},
	{FlagsRightFlipped, "right-flipped"},
	{FlagsRightFlopped, "right-flopped"},
	{FlagsHalfAspect, "half-aspect"},
	{FlagsMixedMono, "mixed-mono"},
}

// ParseMultiviewFlags accepts "none", or flag names joined with '+'.
func ParseMultiviewFlags(s string) (MultiviewFlags, error) {
	if s == "" || s == "none" {
		return FlagsNone, nil
	}
	var flags MultiviewFlags
outer:
	for _, part := range strings.Split(s, "+") {
		part = strings.TrimSpace(part)
		for _, fn := range flagNames {
			if fn.name == part {
				flags |= fn.flag
				continue outer
			}
		}
		return FlagsNone, fmt.Errorf("unknown multiview flag: %s", part)
	}
	return flags, nil
}

func (f MultiviewFlags) String() string {
	if f == FlagsNone {
		return "none"
	}
	var parts []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
		}
	}
	return strings.Join(parts, "+")
}

type DownmixMode int

const (
	DownmixGreenMagentaDubois DownmixMode = iota
	DownmixRedCyanDubois
	DownmixAmberBlueDubois
)

var downmixNames = map[DownmixMode]string{
	DownmixGreenMagentaDubois: "green-magenta-dubois",
	DownmixRedCyanDubois:      "red-cyan-dubois",
	DownmixAmberBlueDubois:    "amber-blue-dubois",
}

func ParseDownmixMode(s string) (DownmixMode, error) {
	if s == "" {
		return DownmixGreenMagentaDubois, nil
	}
	for m, name := range downmixNames {
		if name == s {
			return m, nil
		}
	}
	return DownmixGreenMagentaDubois, fmt.Errorf("unknown downmix mode: %s", s)
}

func (d DownmixMode) String() string {
	if name, ok := downmixNames[d]; ok {
		return name
	}
	return fmt.Sprintf("DownmixMode(%d)", int(d))
}

func (m MultiviewMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MultiviewMode) UnmarshalText(b []byte) error {
	parsed, err := ParseMultiviewMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (f MultiviewFlags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *MultiviewFlags) UnmarshalText(b []byte) error {
	parsed, err := ParseMultiviewFlags(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (d DownmixMode) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *DownmixMode) UnmarshalText(b []byte) error {
	parsed, err := ParseDownmixMode(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
