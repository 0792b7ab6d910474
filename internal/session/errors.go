package session

// CredentialError is a login rejected by the remote API. The message is
// the upstream's own and is safe to show to the user.
type CredentialError struct {
	Message string
}

func (e *CredentialError) Error() string { return e.Message }

// RegistrationError is a registration rejected by the remote API
// (duplicate email, validation failure).
type RegistrationError struct {
	Message string
}

func (e *RegistrationError) Error() string { return e.Message }
