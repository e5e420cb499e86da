package model

import (
	"fmt"
	"math/rand"
	"time"
)

// NewApplicationNumber returns APP-YYYYMM-NNNNNN. Uniqueness is enforced by the caller.
func NewApplicationNumber(now time.Time) string {
	return fmt.Sprintf("APP-%04d%02d-%06d", now.Year(), int(now.Month()), rand.Intn(1_000_000))
}

// NewTransactionID returns TXN-<epoch-ms>-NNNN.
func NewTransactionID(now time.Time) string {
	return fmt.Sprintf("TXN-%d-%04d", now.UnixMilli(), rand.Intn(10_000))
}

func NewRefundNumber(now time.Time) string {
	return fmt.Sprintf("REF-%04d-%05d", now.Year(), rand.Intn(100_000))
}

func NewTicketNumber(now time.Time) string {
	return fmt.Sprintf("TKT-%04d-%05d", now.Year(), rand.Intn(100_000))
}
