package dto

type AuthResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type MeResponse struct {
	User  any      `json:"user"`
	Roles []string `json:"roles"`
}

type BalanceResponse struct {
	FiscalYearID int64 `json:"fiscal_year_id"`
	BalanceCents int64 `json:"balance_cents"`
}
