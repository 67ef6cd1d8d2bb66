package api

import "context"

// SellerStats fetches the dashboard aggregates for the authenticated seller.
func (c *Client) SellerStats(ctx context.Context) (*SellerStats, error) {
	var stats SellerStats
	if err := c.do(ctx, "GET", "/dashboard/seller-stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	if stats.LastFiveScans == nil {
		stats.LastFiveScans = []ScanRecord{}
	}
	return &stats, nil
}
