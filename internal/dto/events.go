package dto

// Mail event keys consumed by the mail service.
const (
	EventVerifyEmail   = "user.verify_email"
	EventResetPassword = "user.reset_password"
)

// OTPEmailEvent is published for every issued code. The mail service owns
// templating and transport; this service only hands over the code.
type OTPEmailEvent struct {
	EventID   string `json:"event_id"`
	AccountID uint   `json:"account_id"`
	Email     string `json:"email"`
	Code      string `json:"code"`
	Purpose   string `json:"purpose"`
	ExpiresAt string `json:"expires_at"`
}
