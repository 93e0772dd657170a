package report

import (
	"fmt"

	"github.com/asaskevich/govalidator"
	"github.com/jekabolt/grbpwr-reports/internal/entity"
)

// Config tunes the aggregation engine.
type Config struct {
	// DefaultLimit is the group limit of definitions created without one.
	DefaultLimit int `mapstructure:"default_limit"`
	// DetailLimit caps detail rows of definitions without a limit.
	DetailLimit    int    `mapstructure:"detail_limit"`
	UndefinedLabel string `mapstructure:"undefined_label"`
	// IncludeUndefinedInTotals counts records without a group value in the
	// denominators of breakdown percentages and funnel totals.
	IncludeUndefinedInTotals bool `mapstructure:"include_undefined_in_totals"`
	// Timezone is the IANA zone "now" is read in when resolving time windows.
	Timezone     string   `mapstructure:"timezone"`
	FunnelColors []string `mapstructure:"funnel_colors"`
	LeadsColor   string   `mapstructure:"leads_color"`
	WonColor     string   `mapstructure:"won_color"`
	LostColor    string   `mapstructure:"lost_color"`
}

const (
	defaultDetailLimit = 100
	defaultUndefined   = "Undefined"
)

var defaultFunnelColors = []string{"#4e79a7", "#f28e2b", "#76b7b2", "#edc948", "#b07aa1", "#9c755f"}

func (c Config) withDefaults() Config {
	if c.DefaultLimit <= 0 {
		c.DefaultLimit = entity.DefaultReportLimit
	}
	if c.DetailLimit <= 0 {
		c.DetailLimit = defaultDetailLimit
	}
	if c.UndefinedLabel == "" {
		c.UndefinedLabel = defaultUndefined
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if len(c.FunnelColors) == 0 {
		c.FunnelColors = defaultFunnelColors
	}
	if c.LeadsColor == "" {
		c.LeadsColor = "#bab0ac"
	}
	if c.WonColor == "" {
		c.WonColor = "#59a14f"
	}
	if c.LostColor == "" {
		c.LostColor = "#e15759"
	}
	return c
}

// Validate checks the presentation settings of c.
func (c Config) Validate() error {
	colors := append([]string{c.LeadsColor, c.WonColor, c.LostColor}, c.FunnelColors...)
	for _, color := range colors {
		if color != "" && !govalidator.IsHexcolor(color) {
			return fmt.Errorf("invalid color %q", color)
		}
	}
	if c.DefaultLimit < 0 || c.DetailLimit < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	return nil
}
