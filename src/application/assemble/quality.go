package assemble

import (
	"strings"

	"golang.org/x/exp/slices"

	"github.com/input-output-hk/quaestor/src/domain"
)

var flagOrder = []domain.QualityFlag{
	domain.FlagQualityConflict,
	domain.FlagMissingMarker,
	domain.FlagDuplicateCase,
	domain.FlagLowQualitySpec,
}

// inspect runs the quality gate over the rendered suite and its case blocks.
func inspect(conventions *Conventions, content string, blocks []string) (flags []domain.QualityFlag) {
	if conventions.fixture != nil && len(conventions.SharedFixtures) > 0 {
		for _, match := range conventions.fixture.FindAllStringSubmatch(content, -1) {
			if len(match) > 1 && slices.Contains(conventions.SharedFixtures, match[1]) {
				flags = append(flags, domain.FlagQualityConflict)
				break
			}
		}
	}

markers:
	for _, block := range blocks {
		for _, rule := range conventions.Markers {
			if rule.trigger.MatchString(block) && !strings.Contains(block, rule.Marker) {
				flags = append(flags, domain.FlagMissingMarker)
				break markers
			}
		}
	}

	if conventions.caseName != nil {
		seen := map[string]struct{}{}
		for _, match := range conventions.caseName.FindAllStringSubmatch(content, -1) {
			if len(match) < 2 {
				continue
			}
			if _, dup := seen[match[1]]; dup {
				flags = append(flags, domain.FlagDuplicateCase)
				break
			}
			seen[match[1]] = struct{}{}
		}
	}

	return flags
}

func sortFlags(flags []domain.QualityFlag) []domain.QualityFlag {
	sorted := make([]domain.QualityFlag, 0, len(flags))
	for _, flag := range flagOrder {
		if slices.Contains(flags, flag) {
			sorted = append(sorted, flag)
		}
	}
	return sorted
}
