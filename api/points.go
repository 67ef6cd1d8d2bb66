package api

import "context"

// PointsBalances returns the customer's per-seller balances. The backend
// pre-aggregates; the client never sums transactions itself. An empty slice
// is a normal result for a new customer.
func (c *Client) PointsBalances(ctx context.Context) ([]Balance, error) {
	var res struct {
		Balances []Balance `json:"balances"`
	}
	if err := c.do(ctx, "GET", "/points/balance", nil, nil, &res); err != nil {
		return nil, err
	}
	if res.Balances == nil {
		res.Balances = []Balance{}
	}
	return res.Balances, nil
}

// PointsTransactions returns the customer's points history, newest first.
func (c *Client) PointsTransactions(ctx context.Context) ([]Transaction, error) {
	var res struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := c.do(ctx, "GET", "/points/transactions", nil, nil, &res); err != nil {
		return nil, err
	}
	if res.Transactions == nil {
		res.Transactions = []Transaction{}
	}
	return res.Transactions, nil
}
