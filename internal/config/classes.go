package config

import (
	"fmt"
	"os"
	"time"

	"farmstead/internal/domain/farm"

	"gopkg.in/yaml.v3"
)

type classFile struct {
	Classes []classEntry `yaml:"classes" validate:"required,min=1,dive"`
}

type classEntry struct {
	Name           string  `yaml:"name" validate:"required,lowercase,alphanum,max=32"`
	MinInvestment  float64 `yaml:"min_investment" validate:"gt=0"`
	GrowthDuration string  `yaml:"growth_duration" validate:"required"`
	BaseYieldRate  float64 `yaml:"base_yield_rate" validate:"gte=0,lte=10"`
}

func LoadClassTable(path string) (farm.ClassTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read class table %s: %w", path, err)
	}
	table, err := ParseClassTable(data)
	if err != nil {
		return nil, fmt.Errorf("class table %s: %w", path, err)
	}
	return table, nil
}

// ParseClassTable decodes a YAML class list. Durations use Go syntax ("72h").
func ParseClassTable(data []byte) (farm.ClassTable, error) {
	var f classFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if err := validateStruct(&f); err != nil {
		return nil, err
	}
	out := make(farm.ClassTable, len(f.Classes))
	for _, e := range f.Classes {
		class := farm.ParsePlotClass(e.Name)
		if _, dup := out[class]; dup {
			return nil, fmt.Errorf("duplicate plot class %q", class)
		}
		d, err := time.ParseDuration(e.GrowthDuration)
		if err != nil {
			return nil, fmt.Errorf("plot class %q: growth_duration: %w", class, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("plot class %q: negative growth_duration", class)
		}
		out[class] = farm.ClassSpec{
			MinInvestment:  e.MinInvestment,
			GrowthDuration: d,
			BaseYieldRate:  e.BaseYieldRate,
		}
	}
	return out, nil
}
