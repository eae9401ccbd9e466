package observability

// Metric name prefixes
const (
	MetricPrefix = "wagerbot"
)

// Metric names
const (
	BetsCreatedTotal   = MetricPrefix + ".bets.created_total"
	BetsSettledTotal   = MetricPrefix + ".bets.settled_total"
	BetsDeletedTotal   = MetricPrefix + ".bets.deleted_total"
	BetsActive         = MetricPrefix + ".bets.active"
	ChoicesTotal       = MetricPrefix + ".choices.recorded_total"
	OutcomesTotal      = MetricPrefix + ".stats.outcomes_total"
	CommandErrorsTotal = MetricPrefix + ".commands.errors_total"
)

// Label keys
const (
	LabelOutcome   = "outcome"
	LabelChanged   = "changed"
	LabelCommand   = "command"
	LabelErrorKind = "error_kind"
)
