package templates

// PasswordResetLinkData holds variables for the user.password_reset_link scenario.
type PasswordResetLinkData struct {
	AppName          string
	ResetURL         string
	ExpiresInMinutes int
	SupportEmail     string
}

// PasswordResetLink is the typed handle for the user.password_reset_link template.
var PasswordResetLink = Expect[PasswordResetLinkData]("user.password_reset_link")
