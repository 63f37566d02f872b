package policy

import (
	"fmt"
	"os"

	"github.com/plotwatch/plotwatch/internal/alerting/model"
	"gopkg.in/yaml.v3"
)

// Policy is the process-wide alerting policy: the severity ramp, the
// severity-to-channel table, and optional default thresholds. Loaded once at
// startup and injected into the classifier and dispatcher; never mutated.
type Policy struct {
	Severity SeverityRamp                `yaml:"severity"`
	Channels map[model.Severity][]string `yaml:"channels"`
	Defaults Defaults                    `yaml:"defaults"`
}

// SeverityRamp holds the deviation-percentage cut-offs for the classifier.
// Anything below MediumPct classifies as low.
type SeverityRamp struct {
	CriticalPct float64 `yaml:"critical_pct"`
	HighPct     float64 `yaml:"high_pct"`
	MediumPct   float64 `yaml:"medium_pct"`
}

// Defaults optionally supplies thresholds for plots with none configured.
// The engine only applies them when Apply is set.
type Defaults struct {
	Apply      bool               `yaml:"apply"`
	Thresholds model.ThresholdSet `yaml:"thresholds"`
}

func ptr(v float64) *float64 { return &v }

// Default returns the compiled-in policy.
func Default() *Policy {
	return &Policy{
		Severity: SeverityRamp{CriticalPct: 50, HighPct: 25, MediumPct: 10},
		Channels: map[model.Severity][]string{
			model.SeverityLow:      {},
			model.SeverityMedium:   {"email"},
			model.SeverityHigh:     {"email", "webhook"},
			model.SeverityCritical: {"email", "webhook"},
		},
		Defaults: Defaults{
			Apply: false,
			Thresholds: model.ThresholdSet{
				Temperature:  &model.ThresholdRange{Min: ptr(10), Max: ptr(35)},
				Humidity:     &model.ThresholdRange{Min: ptr(30), Max: ptr(80)},
				SoilMoisture: &model.ThresholdRange{Min: ptr(20), Max: ptr(80)},
			},
		},
	}
}

// Load reads a YAML policy file over the compiled-in defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (*Policy, error) {
	p := Default()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return p, nil
}

func (p *Policy) validate() error {
	if p.Severity.CriticalPct < p.Severity.HighPct || p.Severity.HighPct < p.Severity.MediumPct {
		return fmt.Errorf("severity ramp must be ordered: critical >= high >= medium")
	}
	for sev, chans := range p.Channels {
		if !sev.Valid() {
			return fmt.Errorf("unknown severity %q in channel table", sev)
		}
		for _, ch := range chans {
			if ch != "email" && ch != "webhook" {
				return fmt.Errorf("unknown channel %q for severity %s", ch, sev)
			}
		}
	}
	return nil
}

// ChannelsFor returns the default channels for a severity.
func (p *Policy) ChannelsFor(sev model.Severity) []string {
	return p.Channels[sev]
}
