// Package risk combines breaking-change, coverage, diff-size, doc-staleness,
// config, and impact-breadth signals into a single weighted 0-100 score and
// four-level bucket. Each factor is named, carries a fixed weight, and a
// human-readable description of why it fired.
package risk

import (
	"math"
	"strings"

	"github.com/ducdmdev/prpulse/internal/breaking"
	"github.com/ducdmdev/prpulse/internal/categorize"
	"github.com/ducdmdev/prpulse/internal/prdiff"
)

// Level is the closed four-bucket risk classification.
type Level string

const (
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelCritical Level = "critical"
)

// Factor is one weighted contributor to the overall score.
type Factor struct {
	Name        string
	Score       int
	Weight      float64
	Description string
	Details     string
}

// Assessment is the aggregate risk output.
type Assessment struct {
	Score   int
	Level   Level
	Factors []Factor
}

// Inputs bundles every signal the six factors are computed from.
type Inputs struct {
	BreakingChanges         []breaking.Change
	CoverageRatio           float64
	ChangedFiles            []prdiff.ChangedFile
	StaleReferenceCount     int
	IndirectlyAffectedCount int
}

// Aggregate computes the weighted RiskAssessment. The six weights sum to
// 1.0 by construction; see TestWeightsSumToOne for the invariant check.
func Aggregate(in Inputs) Assessment {
	factors := []Factor{
		breakingFactor(in.BreakingChanges),
		untestedFactor(in.CoverageRatio),
		diffSizeFactor(in.ChangedFiles),
		staleDocsFactor(in.StaleReferenceCount),
		configFactor(in.ChangedFiles),
		impactBreadthFactor(in.IndirectlyAffectedCount),
	}

	var weighted float64
	for _, f := range factors {
		weighted += float64(f.Score) * f.Weight
	}
	score := int(math.Round(weighted))

	return Assessment{Score: score, Level: levelFor(score), Factors: factors}
}

func levelFor(score int) Level {
	switch {
	case score <= 25:
		return LevelLow
	case score <= 50:
		return LevelMedium
	case score <= 75:
		return LevelHigh
	default:
		return LevelCritical
	}
}

func breakingFactor(changes []breaking.Change) Factor {
	var hasHigh, hasMedium, hasLow bool
	for _, c := range changes {
		switch c.Severity {
		case breaking.High:
			hasHigh = true
		case breaking.Medium:
			hasMedium = true
		case breaking.Low:
			hasLow = true
		}
	}
	score := 0
	switch {
	case hasHigh:
		score = 100
	case hasMedium:
		score = 60
	case hasLow:
		score = 30
	}
	return Factor{
		Name:        "breaking_changes",
		Score:       score,
		Weight:      0.30,
		Description: "severity of the riskiest breaking change to the public export surface",
		Details:     countsDetail(len(changes)),
	}
}

func untestedFactor(coverageRatio float64) Factor {
	score := int(math.Round((1 - coverageRatio) * 100))
	return Factor{
		Name:        "untested_changes",
		Score:       score,
		Weight:      0.25,
		Description: "share of changed source files with no corresponding test update",
	}
}

func diffSizeFactor(files []prdiff.ChangedFile) Factor {
	total := 0
	for _, f := range files {
		total += f.Additions + f.Deletions
	}
	var score int
	switch {
	case total < 100:
		score = 0
	case total < 500:
		score = 50
	case total <= 1000:
		score = 80
	default:
		score = 100
	}
	return Factor{
		Name:        "diff_size",
		Score:       score,
		Weight:      0.15,
		Description: "total additions plus deletions across the PR",
	}
}

func staleDocsFactor(staleCount int) Factor {
	score := staleCount * 20
	if score > 100 {
		score = 100
	}
	return Factor{
		Name:        "stale_documentation",
		Score:       score,
		Weight:      0.10,
		Description: "documentation references pointing at removed or renamed entities",
	}
}

var criticalConfigBasenames = map[string]bool{
	"dockerfile":              true,
	"docker-compose.yml":      true,
	"docker-compose.yaml":     true,
	"makefile":                true,
	"turbo.json":              true,
	"nx.json":                 true,
	"lerna.json":              true,
	"pnpm-workspace.yaml":     true,
	"webpack.config.js":       true,
	"webpack.config.ts":       true,
	"rollup.config.js":        true,
	"rollup.config.ts":        true,
	"vite.config.js":          true,
	"vite.config.ts":          true,
}

func configFactor(files []prdiff.ChangedFile) Factor {
	anyConfig := false
	anyCritical := false
	for _, f := range files {
		if f.Category != categorize.Config {
			continue
		}
		anyConfig = true
		if isCriticalConfigPath(f.Path) {
			anyCritical = true
		}
	}
	score := 0
	switch {
	case anyCritical:
		score = 100
	case anyConfig:
		score = 50
	}
	return Factor{
		Name:        "config_changes",
		Score:       score,
		Weight:      0.10,
		Description: "whether changed config files touch CI/build-critical surfaces",
	}
}

func isCriticalConfigPath(p string) bool {
	base := strings.ToLower(p)
	if idx := strings.LastIndex(base, "/"); idx >= 0 {
		if strings.Contains(base[:idx+1], ".github/workflows/") {
			return true
		}
		base = base[idx+1:]
	} else if strings.Contains(p, ".github/workflows/") {
		return true
	}
	return criticalConfigBasenames[base]
}

func impactBreadthFactor(indirectlyAffected int) Factor {
	score := indirectlyAffected * 10
	if score > 100 {
		score = 100
	}
	return Factor{
		Name:        "impact_breadth",
		Score:       score,
		Weight:      0.10,
		Description: "number of files transitively reachable through the reverse import graph",
	}
}

func countsDetail(n int) string {
	if n == 0 {
		return "no breaking changes"
	}
	if n == 1 {
		return "1 breaking change"
	}
	return "multiple breaking changes"
}

// WeightSum returns the sum of the six fixed factor weights; used by tests
// to assert the Σweight = 1.0 invariant without hardcoding it twice.
func WeightSum() float64 {
	return 0.30 + 0.25 + 0.15 + 0.10 + 0.10 + 0.10
}
