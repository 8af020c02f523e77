package constants

const (
	GetStatusByApiKey = `
	SELECT key, label, status FROM api_keys WHERE key = $1
	`

	InsertApiKey = `
	INSERT INTO api_keys (key, label, status) VALUES ($1, $2, true)
	`

	FinanceSummary = `
	SELECT
		(SELECT COALESCE(SUM(balance), 0) FROM profiles) AS total_balance,
		(SELECT COUNT(*) FROM withdrawal_requests WHERE status = 'pending') AS pending_withdrawals,
		(SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests WHERE status = 'pending') AS pending_amount,
		(SELECT COALESCE(SUM(amount), 0) FROM withdrawal_requests WHERE status = 'completed') AS paid_out,
		(SELECT COALESCE(SUM(amount), 0) FROM payouts) AS total_payouts
	`
)
