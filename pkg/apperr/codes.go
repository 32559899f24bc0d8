package apperr

// Code is a machine-facing error code. Codes are part of the public API
// contract and must stay stable across releases; clients branch on them.
type Code string

const (
	CodeEmailAlreadyExists   Code = "EMAIL_ALREADY_EXISTS"
	CodeProfileAlreadyExists Code = "PROFILE_ALREADY_EXISTS"
	CodeInvitationInvalid    Code = "INVITATION_INVALID"
	CodeTokenExpired         Code = "TOKEN_EXPIRED"
	CodeTokenInvalid         Code = "TOKEN_INVALID"
)
