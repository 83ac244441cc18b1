package measure

// Core metric keys.
const (
	LinesKey                 = "lines"
	GeneratedLinesKey        = "generated_lines"
	NclocKey                 = "ncloc"
	GeneratedNclocKey        = "generated_ncloc"
	FilesKey                 = "files"
	ClassesKey               = "classes"
	PackagesKey              = "packages"
	FunctionsKey             = "functions"
	AccessorsKey             = "accessors"
	StatementsKey            = "statements"
	PublicAPIKey             = "public_api"
	CommentLinesKey          = "comment_lines"
	PublicUndocumentedAPIKey = "public_undocumented_api"
	ComplexityKey            = "complexity"
	FileComplexityKey        = "file_complexity"
	ComplexityInClassesKey   = "complexity_in_classes"
	ClassComplexityKey       = "class_complexity"
	ComplexityInFunctionsKey = "complexity_in_functions"
	FunctionComplexityKey    = "function_complexity"

	LinesToCoverKey        = "lines_to_cover"
	UncoveredLinesKey      = "uncovered_lines"
	ConditionsToCoverKey   = "conditions_to_cover"
	UncoveredConditionsKey = "uncovered_conditions"

	ItLinesToCoverKey        = "it_lines_to_cover"
	ItUncoveredLinesKey      = "it_uncovered_lines"
	ItConditionsToCoverKey   = "it_conditions_to_cover"
	ItUncoveredConditionsKey = "it_uncovered_conditions"

	OverallLinesToCoverKey        = "overall_lines_to_cover"
	OverallUncoveredLinesKey      = "overall_uncovered_lines"
	OverallConditionsToCoverKey   = "overall_conditions_to_cover"
	OverallUncoveredConditionsKey = "overall_uncovered_conditions"

	DirectoryCyclesKey        = "package_cycles"
	DirectoryTanglesKey       = "package_tangles"
	DirectoryFeedbackEdgesKey = "package_feedback_edges"
	DirectoryEdgesWeightKey   = "package_edges_weight"

	TechnicalDebtKey = "sqale_index"
)

func zeroBest() *float64 {
	z := 0.0
	return &z
}

func intMetric(key, name string) Metric {
	return Metric{Key: key, Name: name, Kind: Int}
}

// DefaultMetrics returns the built-in metric definitions.
func DefaultMetrics() []Metric {
	return []Metric{
		intMetric(LinesKey, "Lines"),
		intMetric(GeneratedLinesKey, "Generated Lines"),
		intMetric(NclocKey, "Lines of Code"),
		intMetric(GeneratedNclocKey, "Generated Lines of Code"),
		intMetric(FilesKey, "Files"),
		intMetric(ClassesKey, "Classes"),
		intMetric(PackagesKey, "Packages"),
		intMetric(FunctionsKey, "Functions"),
		intMetric(AccessorsKey, "Accessors"),
		intMetric(StatementsKey, "Statements"),
		intMetric(PublicAPIKey, "Public API"),
		intMetric(CommentLinesKey, "Comment Lines"),
		intMetric(PublicUndocumentedAPIKey, "Public Undocumented API"),
		intMetric(ComplexityKey, "Complexity"),
		{Key: FileComplexityKey, Name: "Complexity / File", Kind: Double},
		intMetric(ComplexityInClassesKey, "Complexity in Classes"),
		{Key: ClassComplexityKey, Name: "Complexity / Class", Kind: Double},
		intMetric(ComplexityInFunctionsKey, "Complexity in Functions"),
		{Key: FunctionComplexityKey, Name: "Complexity / Function", Kind: Double},

		intMetric(LinesToCoverKey, "Lines to Cover"),
		{Key: UncoveredLinesKey, Name: "Uncovered Lines", Kind: Int, BestValueOptimized: true, BestValue: zeroBest()},
		intMetric(ConditionsToCoverKey, "Conditions to Cover"),
		{Key: UncoveredConditionsKey, Name: "Uncovered Conditions", Kind: Int, BestValueOptimized: true, BestValue: zeroBest()},

		intMetric(ItLinesToCoverKey, "IT Lines to Cover"),
		{Key: ItUncoveredLinesKey, Name: "IT Uncovered Lines", Kind: Int, BestValueOptimized: true, BestValue: zeroBest()},
		intMetric(ItConditionsToCoverKey, "IT Conditions to Cover"),
		{Key: ItUncoveredConditionsKey, Name: "IT Uncovered Conditions", Kind: Int, BestValueOptimized: true, BestValue: zeroBest()},

		intMetric(OverallLinesToCoverKey, "Overall Lines to Cover"),
		{Key: OverallUncoveredLinesKey, Name: "Overall Uncovered Lines", Kind: Int, BestValueOptimized: true, BestValue: zeroBest()},
		intMetric(OverallConditionsToCoverKey, "Overall Conditions to Cover"),
		{Key: OverallUncoveredConditionsKey, Name: "Overall Uncovered Conditions", Kind: Int, BestValueOptimized: true, BestValue: zeroBest()},

		{Key: DirectoryCyclesKey, Name: "Directory Cycles", Kind: Int, BestValueOptimized: true, BestValue: zeroBest()},
		intMetric(DirectoryTanglesKey, "Directory Tangles"),
		intMetric(DirectoryFeedbackEdgesKey, "Directory Feedback Edges"),
		intMetric(DirectoryEdgesWeightKey, "Directory Edges Weight"),

		{Key: TechnicalDebtKey, Name: "Technical Debt", Kind: Long, BestValueOptimized: true, BestValue: zeroBest()},
	}
}

// NewDefaultMetricRepository returns a repository over DefaultMetrics.
func NewDefaultMetricRepository() *MapMetricRepository {
	repo, err := NewMetricRepository(DefaultMetrics()...)
	if err != nil {
		panic(err) // built-in catalog is static
	}
	return repo
}
