package farm

import (
	"sort"
	"strings"
	"time"
)

type PlotClass string

const (
	ClassSprout  PlotClass = "sprout"
	ClassOrchard PlotClass = "orchard"
	ClassGrove   PlotClass = "grove"
)

type ClassSpec struct {
	MinInvestment  float64       `json:"min_investment"`
	GrowthDuration time.Duration `json:"growth_duration"`
	BaseYieldRate  float64       `json:"base_yield_rate"`
}

type ClassTable map[PlotClass]ClassSpec

var defaultClasses = ClassTable{
	ClassSprout: {
		MinInvestment:  10,
		GrowthDuration: 24 * time.Hour,
		BaseYieldRate:  0.05,
	},
	ClassOrchard: {
		MinInvestment:  100,
		GrowthDuration: 3 * 24 * time.Hour,
		BaseYieldRate:  0.10,
	},
	ClassGrove: {
		MinInvestment:  1000,
		GrowthDuration: 7 * 24 * time.Hour,
		BaseYieldRate:  0.15,
	},
}

func DefaultClassTable() ClassTable {
	out := make(ClassTable, len(defaultClasses))
	for k, v := range defaultClasses {
		out[k] = v
	}
	return out
}

func ParsePlotClass(raw string) PlotClass {
	return PlotClass(strings.ToLower(strings.TrimSpace(raw)))
}

func (t ClassTable) Lookup(class PlotClass) (ClassSpec, bool) {
	spec, ok := t[class]
	return spec, ok
}

func (t ClassTable) Classes() []PlotClass {
	out := make([]PlotClass, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
