package log

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func TestConfig_Options(t *testing.T) {
	c := apply(config{},
		WithLevel(LevelWarn),
		WithFormat(FormatText),
		WithCaller(true),
		WithPretty(false),
		nil,
	)

	if c.level != LevelWarn {
		t.Errorf("level = %v, want %v", c.level, LevelWarn)
	}
	if c.format != FormatText {
		t.Errorf("format = %v, want %v", c.format, FormatText)
	}
	if !c.caller {
		t.Error("caller disabled, want enabled")
	}
	if c.pretty {
		t.Error("pretty enabled, want disabled")
	}
}

func TestConfig_Options_DoNotAlias(t *testing.T) {
	base := makeConfig(nil)
	derived := apply(base, WithLevel(LevelError))

	if base.level != DefaultLevel {
		t.Errorf("base level changed to %v", base.level)
	}
	if derived.level != LevelError {
		t.Errorf("derived level = %v, want %v", derived.level, LevelError)
	}
}

func TestLevel_String(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelTrace, "trace"},
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{LevelInfo + 2, "info+2"},
		{LevelTrace + 2, "trace+2"},
		{LevelTrace - 2, "trace-2"},
		{LevelError + 4, "error+4"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{" TRACE ", LevelTrace},
		{"debug", LevelDebug},
		{"INFO", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"debug+1", LevelDebug + 1},
		{"bogus", DefaultLevel},
		{"", DefaultLevel},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestLevels_RoundTrip(t *testing.T) {
	names := slices.Collect(Levels())

	want := []string{"trace", "debug", "info", "warn", "error"}
	if !slices.Equal(names, want) {
		t.Fatalf("Levels() = %v, want %v", names, want)
	}

	for _, name := range names {
		if got := ParseLevel(name).String(); got != name {
			t.Errorf("ParseLevel(%q).String() = %q", name, got)
		}
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"json", FormatJSON},
		{" Text ", FormatText},
		{"yaml", DefaultFormat},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseFormat(tt.in); got != tt.want {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"json", "text"}) {
		t.Errorf("Formats() = %v", got)
	}
}

func TestConfig_formatTime_FormatsTimestamp(t *testing.T) {
	now := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	tests := []struct {
		name        string
		layout      string
		contains    []string
		notContains []string
	}{
		{
			name:        "rfc3339 named layout",
			layout:      "RFC3339",
			contains:    []string{"2023-10-15T14:30:45Z"},
			notContains: []string{".123", ".456", ".789"},
		},
		{
			name:     "rfc3339 nano named layout",
			layout:   "RFC3339Nano",
			contains: []string{"2023-10-15T14:30:45.123456789Z"},
		},
		{
			name:     "named layout ignores punctuation and case",
			layout:   "Date-Time",
			contains: []string{"2023-10-15 14:30:45"},
		},
		{
			name:     "custom layout is used verbatim",
			layout:   "   2006-01-02 15:04:05.000Z07:00",
			contains: []string{"   2023-10-15 14:30:45.123Z"},
		},
		{
			name:     "unknown name is a literal layout",
			layout:   "UNKNOWN_FORMAT",
			contains: []string{"UNKNOWN_FORMAT"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := WithTimeLayout(tt.layout)(config{})
			result := c.formatTime(now)

			for _, s := range tt.contains {
				if !strings.Contains(result, s) {
					t.Errorf("expected %q to contain %q", result, s)
				}
			}

			for _, s := range tt.notContains {
				if strings.Contains(result, s) {
					t.Errorf("expected %q not to contain %q", result, s)
				}
			}
		})
	}
}

func TestConfig_formatTime_DisablesTimestamp(t *testing.T) {
	now := time.Date(2023, 10, 15, 14, 30, 45, 123456789, time.UTC)

	for _, layout := range []string{"", "   \t  ", "none", "NONE"} {
		t.Run(layout, func(t *testing.T) {
			c := WithTimeLayout(layout)(config{})

			if result := c.formatTime(now); result != "" {
				t.Errorf("layout %q: expected empty timestamp, got %q", layout, result)
			}
		})
	}
}

func BenchmarkConfig_formatTime(b *testing.B) {
	for _, layout := range []string{"RFC3339", "RFC3339Nano"} {
		b.Run(layout, func(b *testing.B) {
			c := WithTimeLayout(layout)(config{})
			now := time.Now()

			for b.Loop() {
				_ = c.formatTime(now)
			}
		})
	}
}
