package observability

// Metric name prefixes
const (
	MetricPrefix = "arena"
)

// Metric names
const (
	// HTTP metrics
	HTTPRequestsTotal   = MetricPrefix + ".http.requests_total"
	HTTPRequestDuration = MetricPrefix + ".http.request_duration"

	// Escrow metrics
	HoldsTotal       = MetricPrefix + ".escrow.holds_total"
	HeldAmountActive = MetricPrefix + ".escrow.held_amount"

	// Match metrics
	MatchTransitionsTotal = MetricPrefix + ".matches.transitions_total"
	SettlementsTotal      = MetricPrefix + ".matches.settlements_total"
	PlatformFeesCollected = MetricPrefix + ".matches.platform_fees_collected"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"

	// Reconciliation metrics
	DuplicatesRemovedTotal = MetricPrefix + ".reconciliation.duplicates_removed_total"

	// Security metrics
	EmergencyAccessTotal = MetricPrefix + ".security.emergency_access_total"

	// NATS metrics
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelType      = "type"
	LabelEventType = "event_type"
	LabelStatus    = "status"
	LabelOutcome   = "outcome"
	LabelOperation = "operation"

	LabelRoute  = "route"
	LabelMethod = "method"
	LabelCode   = "code"
)
