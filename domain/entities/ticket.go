package entities

import "time"

// Ticket is a write-once bet of NumberCount numbers on one jackpot
type Ticket struct {
	ID            int64     `db:"id" json:"id"`
	AccountID     string    `db:"account_id" json:"accountId"`
	JackpotID     int64     `db:"jackpot_id" json:"jackpotId"`
	PickedNumbers Numbers   `db:"picked_numbers" json:"pickedNumbers"`
	CreatedAt     time.Time `db:"created_at" json:"createdTime"`
}
