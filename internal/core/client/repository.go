package client

import "context"

// Repository は顧客エンティティの永続化を行うインターフェースです。
type Repository interface {
	Create(ctx context.Context, client *Client) (*Client, error)
	FindByID(ctx context.Context, id string) (*Client, error)
}
