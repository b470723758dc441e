package gdx

// AuthError indica falha na obtenção do token de acesso junto ao broker.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return "cannot obtain token: " + e.Err.Error()
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ProfileError indica que o broker não devolveu um perfil utilizável.
// Result nulo é o sinal de MToken expirado ou inválido, e não um erro de
// transporte; os dois casos precisam permanecer distinguíveis do AuthError.
type ProfileError struct {
	Expired bool
	Err     error
}

func (e *ProfileError) Error() string {
	if e.Expired {
		return "token expired or invalid"
	}
	return "profile exchange failed: " + e.Err.Error()
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

// UpstreamError indica falha em chamada downstream sem lógica de decisão.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return "upstream call failed: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
