package observability

// Metric name prefixes
const (
	MetricPrefix = "jackpot"
)

// Metric names
const (
	// Ledger operation metrics
	OperationsTotal = MetricPrefix + ".operations_total"

	// Lottery metrics
	TicketsSoldTotal = MetricPrefix + ".tickets.sold_total"
	DrawsTotal       = MetricPrefix + ".draws_total"
	DrawWinners      = MetricPrefix + ".draws.winners"

	// Balance metrics
	BalanceTransactionsTotal = MetricPrefix + ".balance.transactions_total"
	BalanceAmountMoved       = MetricPrefix + ".balance.amount_moved"
)

// Label keys
const (
	LabelOperation = "operation"
	LabelResult    = "result"
	LabelType      = "type"
	LabelOutcome   = "outcome"
)

// Label values
const (
	ResultSuccess = "success"
	ResultError   = "error"

	OutcomeClosed = "closed"
	OutcomeNoWin  = "no_winner"
)
