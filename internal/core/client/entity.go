package client

import "time"

// ContactInfo は顧客の連絡先情報です。
type ContactInfo struct {
	Email                 *string
	Phone                 string
	ContactPersonPosition string
	Address               *string
	MapLocation           *string
}

// Client は案件の発注元となる顧客エンティティです。
type Client struct {
	ID          string
	Name        string
	ContactInfo ContactInfo
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
