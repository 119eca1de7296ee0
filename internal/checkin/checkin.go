// Package checkin holds the request-scoped check-in value model and the
// encoding of outcomes into the status redirect the QR client lands on.
package checkin

import "net/url"

// Attempt is one inbound check-in attempt. It is built once per request and
// never persisted.
type Attempt struct {
	DeviceID string
	UserID   string
	GymID    string
	// GymNumericID is the partner API's numeric form of GymID, parsed before
	// any outbound call is made.
	GymNumericID int
	// Timestamp is the server's clock reading at receipt, in milliseconds
	// since epoch. Client-supplied times are never trusted.
	Timestamp int64
}

// Decision is the abuse policy verdict for one attempt. Reason is only
// meaningful when Allowed is false and is never shown verbatim to the user.
type Decision struct {
	Allowed bool
	Reason  string
}

// Status is the client-visible result of a check-in attempt.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusDeclined Status = "declined"
)

// ErrorKind classifies why an attempt was declined.
type ErrorKind string

const (
	ErrConfig            ErrorKind = "CONFIG_ERROR"
	ErrMissingInfo       ErrorKind = "MISSING_INFO"
	ErrAiRestriction     ErrorKind = "AI_RESTRICTION"
	ErrPolicyUnavailable ErrorKind = "POLICY_UNAVAILABLE"
	ErrGympassValidation ErrorKind = "GYMPASS_VALIDATION_ERROR"
	ErrGympassAPI        ErrorKind = "GYMPASS_API_ERROR"
)

// Message returns the localized user-facing text for a declined outcome.
func (k ErrorKind) Message() string {
	switch k {
	case ErrAiRestriction:
		return "Restrição da IA: Limite de taxa de check-in excedido ou atividade suspeita."
	case ErrGympassValidation:
		return "Erro de Validação Gympass: Não foi possível validar seu check-in com o Gympass. Verifique se você já fez check-in no app Gympass."
	case ErrMissingInfo:
		return "Requisição Inválida: Faltam informações obrigatórias (ID do Usuário ou ID do Dispositivo nos cabeçalhos da requisição)."
	case ErrGympassAPI:
		return "Erro ao comunicar com a API do Gympass. Tente novamente mais tarde."
	case ErrPolicyUnavailable:
		return "Serviço de verificação indisponível. Tente novamente mais tarde."
	case ErrConfig:
		return "Erro de configuração do servidor. Contacte o administrador."
	default:
		return "Ocorreu um erro inesperado. Por favor, tente novamente."
	}
}

// RedirectURL builds the status page target for an outcome. The message
// parameter is only set on declines. An unparsable appURL degrades to a
// relative redirect rather than failing the request.
func RedirectURL(appURL string, status Status, kind ErrorKind) string {
	u, err := url.Parse(appURL)
	if err != nil {
		u = &url.URL{}
	}
	u.Path = "/check-in-status"
	u.Fragment = ""

	q := url.Values{}
	q.Set("status", string(status))
	if status == StatusDeclined {
		q.Set("message", kind.Message())
	}
	u.RawQuery = q.Encode()
	return u.String()
}
