package citizen

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/gestaozabele/identidade/internal/gdx"
)

// Estados percorridos pelo login; o trace registra o último alcançado.
const (
	StateStart           = "START"
	StateTokenObtained   = "TOKEN_OBTAINED"
	StateProfileResolved = "PROFILE_RESOLVED"
	StateReconciled      = "RECONCILED"
	StateExists          = "EXISTS"
	StateNeedsRegister   = "NEEDS_REGISTER"
	StateFailed          = "FAILED"
)

// Status devolvidos ao app no desfecho do login.
const (
	StatusExists       = "exists"
	StatusNeedRegister = "need_register"
)

type store interface {
	FindRefByCitizenID(ctx context.Context, citizenID string) (*Ref, error)
	UpsertProfile(ctx context.Context, c Citizen) error
	UpsertRegistration(ctx context.Context, c Citizen) (*Citizen, error)
	GetByCitizenOrUser(ctx context.Context, citizenID, userID string) (*Citizen, error)
}

type broker interface {
	AccessToken(ctx context.Context) (string, error)
	ResolveProfile(ctx context.Context, appID, mToken, accessToken string) (gdx.Profile, error)
}

// Service orquestra o vínculo entre o usuário do app e o registro local.
type Service struct {
	store        store
	broker       broker
	redirectBase string
}

// NewService cria uma nova instância de Service.
func NewService(store store, broker broker, redirectBase string) *Service {
	return &Service{store: store, broker: broker, redirectBase: redirectBase}
}

// LoginTrace acumula o resultado de cada transição do login. Acompanha a
// resposta como diagnóstico de suporte, nunca como dado de controle.
type LoginTrace struct {
	TraceID         string `json:"traceId"`
	State           string `json:"state"`
	TokenObtained   bool   `json:"tokenObtained"`
	ProfileResolved bool   `json:"profileResolved"`
	CitizenID       string `json:"citizenId,omitempty"`
	UserID          string `json:"userId,omitempty"`
	CitizenFound    bool   `json:"citizenFound"`
	ProfileSaved    bool   `json:"profileSaved"`
	Error           string `json:"error,omitempty"`
}

// LoginResult é o desfecho do login: perfil já vinculado ou registro pendente.
type LoginResult struct {
	Status      string
	RedirectURL string
	Prefill     *Prefill
}

// Prefill carrega os campos do perfil, inalterados, para pré-popular o
// formulário de registro no app.
type Prefill struct {
	AppID        string `json:"appId"`
	UserID       string `json:"userId"`
	CitizenID    string `json:"citizenId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DateOfBirth  string `json:"dateOfBirth"`
	Mobile       string `json:"mobile"`
	Email        string `json:"email"`
	Notification string `json:"notification"`
}

// RegistrationInput reúne os dados pessoais e de endereço do formulário.
type RegistrationInput struct {
	AppID        string
	UserID       string
	CitizenID    string
	FirstName    string
	LastName     string
	DateOfBirth  string
	Mobile       string
	Email        string
	Notification string
	AddressLine1 string
	AddressLine2 string
	Subdistrict  string
	District     string
	Province     string
	Postcode     string
}

// Login executa a sequência token → perfil → reconciliação e decide o fluxo.
// Validação acontece antes de qualquer chamada de rede ou de banco. O trace
// é devolvido tanto no sucesso quanto na falha.
func (s *Service) Login(ctx context.Context, appID, mToken string) (*LoginResult, *LoginTrace, error) {
	var missing []string
	if strings.TrimSpace(appID) == "" {
		missing = append(missing, "appId")
	}
	if strings.TrimSpace(mToken) == "" {
		missing = append(missing, "mToken")
	}
	if len(missing) > 0 {
		return nil, nil, &ValidationError{Group: GroupRequest, Fields: missing}
	}

	trace := &LoginTrace{TraceID: uuid.NewString(), State: StateStart}

	token, err := s.broker.AccessToken(ctx)
	if err != nil {
		return nil, fail(trace, err), err
	}
	trace.State = StateTokenObtained
	trace.TokenObtained = true

	profile, err := s.broker.ResolveProfile(ctx, appID, mToken, token)
	if err != nil {
		return nil, fail(trace, err), err
	}
	trace.State = StateProfileResolved
	trace.ProfileResolved = true
	trace.CitizenID = profile.CitizenID
	trace.UserID = profile.UserID

	// O branch usa a existência anterior ao upsert; o upsert em si roda em
	// todo login para manter o perfil atualizado com os dados do broker.
	found := true
	if _, err := s.store.FindRefByCitizenID(ctx, profile.CitizenID); err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, fail(trace, err), err
		}
		found = false
	}
	trace.State = StateReconciled
	trace.CitizenFound = found

	if err := s.store.UpsertProfile(ctx, profileRecord(profile)); err != nil {
		return nil, fail(trace, err), err
	}
	trace.ProfileSaved = true

	if found {
		trace.State = StateExists
		return &LoginResult{
			Status:      StatusExists,
			RedirectURL: s.redirectURL(appID, profile.UserID, profile.CitizenID),
		}, trace, nil
	}

	trace.State = StateNeedsRegister
	return &LoginResult{
		Status: StatusNeedRegister,
		Prefill: &Prefill{
			AppID:        appID,
			UserID:       profile.UserID,
			CitizenID:    profile.CitizenID,
			FirstName:    profile.FirstName,
			LastName:     profile.LastName,
			DateOfBirth:  profile.DateOfBirth,
			Mobile:       profile.Mobile,
			Email:        profile.Email,
			Notification: profile.Notification,
		},
	}, trace, nil
}

// Register valida e persiste um registro completo de forma idempotente.
// Os grupos pessoal e de endereço são reportados separadamente.
func (s *Service) Register(ctx context.Context, input RegistrationInput) (string, error) {
	var personal []string
	if strings.TrimSpace(input.CitizenID) == "" {
		personal = append(personal, "citizenId")
	}
	if strings.TrimSpace(input.FirstName) == "" {
		personal = append(personal, "firstName")
	}
	if strings.TrimSpace(input.LastName) == "" {
		personal = append(personal, "lastName")
	}
	if len(personal) > 0 {
		return "", &ValidationError{Group: GroupPersonal, Fields: personal}
	}

	var address []string
	if strings.TrimSpace(input.AddressLine1) == "" {
		address = append(address, "addressLine1")
	}
	if strings.TrimSpace(input.Subdistrict) == "" {
		address = append(address, "subdistrict")
	}
	if strings.TrimSpace(input.District) == "" {
		address = append(address, "district")
	}
	if strings.TrimSpace(input.Province) == "" {
		address = append(address, "province")
	}
	if strings.TrimSpace(input.Postcode) == "" {
		address = append(address, "postcode")
	}
	if len(address) > 0 {
		return "", &ValidationError{Group: GroupAddress, Fields: address}
	}

	record := Citizen{
		UserID:       input.UserID,
		CitizenID:    input.CitizenID,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		DateOfBirth:  input.DateOfBirth,
		Mobile:       input.Mobile,
		Email:        input.Email,
		Notification: input.Notification,
		AddressLine1: strPtr(input.AddressLine1),
		AddressLine2: optionalPtr(input.AddressLine2),
		Subdistrict:  strPtr(input.Subdistrict),
		District:     strPtr(input.District),
		Province:     strPtr(input.Province),
		Postcode:     strPtr(input.Postcode),
	}

	stored, err := s.store.UpsertRegistration(ctx, record)
	if err != nil {
		return "", err
	}

	return s.redirectURL(input.AppID, stored.UserID, stored.CitizenID), nil
}

// Lookup busca o registro completo; citizenId tem precedência sobre userId.
func (s *Service) Lookup(ctx context.Context, citizenID, userID string) (*Citizen, error) {
	citizenID = strings.TrimSpace(citizenID)
	userID = strings.TrimSpace(userID)
	if citizenID == "" && userID == "" {
		return nil, &ValidationError{Group: GroupRequest, Fields: []string{"citizenId", "userId"}}
	}
	return s.store.GetByCitizenOrUser(ctx, citizenID, userID)
}

func (s *Service) redirectURL(appID, userID, citizenID string) string {
	q := url.Values{}
	q.Set("appId", appID)
	q.Set("userId", userID)
	q.Set("citizenId", citizenID)
	return s.redirectBase + "?" + q.Encode()
}

func fail(trace *LoginTrace, err error) *LoginTrace {
	trace.State = StateFailed
	trace.Error = err.Error()
	return trace
}

func profileRecord(p gdx.Profile) Citizen {
	return Citizen{
		UserID:       p.UserID,
		CitizenID:    p.CitizenID,
		FirstName:    p.FirstName,
		LastName:     p.LastName,
		DateOfBirth:  p.DateOfBirth,
		Mobile:       p.Mobile,
		Email:        p.Email,
		Notification: p.Notification,
	}
}

func strPtr(s string) *string {
	s = strings.TrimSpace(s)
	return &s
}

func optionalPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
