package formula

import "github.com/huangsam/tally/core/measure"

// DefaultFormulas returns the built-in formulas. Sums come before the
// averages that read them.
func DefaultFormulas() []Formula {
	sums := []string{
		measure.LinesKey,
		measure.GeneratedLinesKey,
		measure.NclocKey,
		measure.GeneratedNclocKey,
		measure.FilesKey,
		measure.ClassesKey,
		measure.PackagesKey,
		measure.FunctionsKey,
		measure.AccessorsKey,
		measure.StatementsKey,
		measure.PublicAPIKey,
		measure.CommentLinesKey,
		measure.PublicUndocumentedAPIKey,
		measure.ComplexityKey,
		measure.ComplexityInClassesKey,
		measure.ComplexityInFunctionsKey,
		measure.LinesToCoverKey,
		measure.UncoveredLinesKey,
		measure.ConditionsToCoverKey,
		measure.UncoveredConditionsKey,
		measure.ItLinesToCoverKey,
		measure.ItUncoveredLinesKey,
		measure.ItConditionsToCoverKey,
		measure.ItUncoveredConditionsKey,
		measure.OverallLinesToCoverKey,
		measure.OverallUncoveredLinesKey,
		measure.OverallConditionsToCoverKey,
		measure.OverallUncoveredConditionsKey,
		measure.DirectoryCyclesKey,
		measure.DirectoryTanglesKey,
		measure.DirectoryFeedbackEdgesKey,
		measure.DirectoryEdgesWeightKey,
	}

	formulas := make([]Formula, 0, len(sums)+3)
	for _, key := range sums {
		formulas = append(formulas, NewSum(key))
	}
	return append(formulas,
		NewAverage(measure.FileComplexityKey, measure.ComplexityKey, measure.FilesKey),
		NewAverage(measure.ClassComplexityKey, measure.ComplexityInClassesKey, measure.ClassesKey).
			WithFallback(measure.ComplexityKey),
		NewAverage(measure.FunctionComplexityKey, measure.ComplexityInFunctionsKey, measure.FunctionsKey).
			WithFallback(measure.ComplexityKey),
	)
}
