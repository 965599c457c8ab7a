package services

import "jackpot/domain/entities"

// NoopLedgerMetrics discards all measurements
type NoopLedgerMetrics struct{}

func (NoopLedgerMetrics) RecordOperation(string, error)                            {}
func (NoopLedgerMetrics) RecordBalanceTransaction(entities.TransactionType, int64) {}
func (NoopLedgerMetrics) RecordTicketSold(int64)                                   {}
func (NoopLedgerMetrics) RecordDraw(bool, int)                                     {}
