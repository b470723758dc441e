package citizen

import (
	"context"
	"errors"
	"net/url"
	"reflect"
	"testing"

	"github.com/gestaozabele/identidade/internal/gdx"
)

type stubStore struct {
	refs           map[string]Ref
	records        map[string]Citizen
	profileUpserts []Citizen
	regUpserts     []Citizen
	findErr        error
	upsertErr      error
	lookupCitizen  string
	lookupUser     string
}

func (s *stubStore) FindRefByCitizenID(ctx context.Context, citizenID string) (*Ref, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if ref, ok := s.refs[citizenID]; ok {
		return &ref, nil
	}
	return nil, ErrNotFound
}

func (s *stubStore) UpsertProfile(ctx context.Context, c Citizen) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.profileUpserts = append(s.profileUpserts, c)
	return nil
}

func (s *stubStore) UpsertRegistration(ctx context.Context, c Citizen) (*Citizen, error) {
	if s.upsertErr != nil {
		return nil, s.upsertErr
	}
	s.regUpserts = append(s.regUpserts, c)
	stored := c
	stored.IsRegistered = true
	return &stored, nil
}

func (s *stubStore) GetByCitizenOrUser(ctx context.Context, citizenID, userID string) (*Citizen, error) {
	s.lookupCitizen = citizenID
	s.lookupUser = userID
	key := citizenID
	if key == "" {
		key = userID
	}
	if record, ok := s.records[key]; ok {
		return &record, nil
	}
	return nil, ErrNotFound
}

type stubBroker struct {
	token      string
	tokenErr   error
	profile    gdx.Profile
	profileErr error
	tokenCalls int
}

func (b *stubBroker) AccessToken(ctx context.Context) (string, error) {
	b.tokenCalls++
	if b.tokenErr != nil {
		return "", b.tokenErr
	}
	return b.token, nil
}

func (b *stubBroker) ResolveProfile(ctx context.Context, appID, mToken, accessToken string) (gdx.Profile, error) {
	if b.profileErr != nil {
		return gdx.Profile{}, b.profileErr
	}
	return b.profile, nil
}

var testProfile = gdx.Profile{
	UserID:       "U1",
	CitizenID:    "1100200300",
	FirstName:    "A",
	LastName:     "B",
	DateOfBirth:  "01/01/1990",
	Mobile:       "0812345678",
	Email:        "a@b.c",
	Notification: "Y",
}

const redirectBase = "https://apps.example/eservice.html"

func TestLoginMissingInput(t *testing.T) {
	store := &stubStore{}
	broker := &stubBroker{token: "tok", profile: testProfile}
	svc := NewService(store, broker, redirectBase)

	_, trace, err := svc.Login(context.Background(), "", "")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("esperado *ValidationError, veio %T (%v)", err, err)
	}
	if validationErr.Group != GroupRequest {
		t.Fatalf("grupo = %q", validationErr.Group)
	}
	if trace != nil {
		t.Fatalf("trace deveria ser nulo antes de qualquer transição")
	}
	if broker.tokenCalls != 0 {
		t.Fatalf("broker não deveria ser chamado, chamadas = %d", broker.tokenCalls)
	}
	if len(store.profileUpserts) != 0 {
		t.Fatalf("nenhum upsert esperado")
	}
}

func TestLoginExistingCitizen(t *testing.T) {
	store := &stubStore{refs: map[string]Ref{"1100200300": {UserID: "U1", CitizenID: "1100200300"}}}
	broker := &stubBroker{token: "tok", profile: testProfile}
	svc := NewService(store, broker, redirectBase)

	result, trace, err := svc.Login(context.Background(), "app-1", "mt-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Status != StatusExists {
		t.Fatalf("status = %q", result.Status)
	}

	parsed, err := url.Parse(result.RedirectURL)
	if err != nil {
		t.Fatalf("redirect inválido: %v", err)
	}
	q := parsed.Query()
	if q.Get("appId") != "app-1" || q.Get("userId") != "U1" || q.Get("citizenId") != "1100200300" {
		t.Fatalf("query = %v", q)
	}

	if trace.State != StateExists || !trace.CitizenFound || !trace.ProfileSaved {
		t.Fatalf("trace = %+v", trace)
	}
	if len(store.profileUpserts) != 1 {
		t.Fatalf("upserts = %d", len(store.profileUpserts))
	}
	if store.profileUpserts[0].CitizenID != "1100200300" {
		t.Fatalf("upsert = %+v", store.profileUpserts[0])
	}
}

func TestLoginNeedsRegister(t *testing.T) {
	store := &stubStore{}
	broker := &stubBroker{token: "tok", profile: testProfile}
	svc := NewService(store, broker, redirectBase)

	result, trace, err := svc.Login(context.Background(), "app-1", "mt-1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Status != StatusNeedRegister {
		t.Fatalf("status = %q", result.Status)
	}

	want := &Prefill{
		AppID:        "app-1",
		UserID:       "U1",
		CitizenID:    "1100200300",
		FirstName:    "A",
		LastName:     "B",
		DateOfBirth:  "01/01/1990",
		Mobile:       "0812345678",
		Email:        "a@b.c",
		Notification: "Y",
	}
	if !reflect.DeepEqual(result.Prefill, want) {
		t.Fatalf("prefill = %+v", result.Prefill)
	}

	if trace.State != StateNeedsRegister || trace.CitizenFound {
		t.Fatalf("trace = %+v", trace)
	}
	// Mesmo sem registro prévio o perfil é persistido no login.
	if len(store.profileUpserts) != 1 {
		t.Fatalf("upserts = %d", len(store.profileUpserts))
	}
}

func TestLoginTokenFailure(t *testing.T) {
	store := &stubStore{}
	broker := &stubBroker{tokenErr: &gdx.AuthError{Err: errors.New("boom")}}
	svc := NewService(store, broker, redirectBase)

	_, trace, err := svc.Login(context.Background(), "app-1", "mt-1")
	var authErr *gdx.AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("esperado *gdx.AuthError, veio %T (%v)", err, err)
	}
	if trace.State != StateFailed || trace.TokenObtained {
		t.Fatalf("trace = %+v", trace)
	}
	if len(store.profileUpserts) != 0 {
		t.Fatalf("nenhum upsert esperado após falha de token")
	}
}

func TestLoginProfileExpired(t *testing.T) {
	store := &stubStore{}
	broker := &stubBroker{token: "tok", profileErr: &gdx.ProfileError{Expired: true}}
	svc := NewService(store, broker, redirectBase)

	_, trace, err := svc.Login(context.Background(), "app-1", "mt-1")
	var profileErr *gdx.ProfileError
	if !errors.As(err, &profileErr) {
		t.Fatalf("esperado *gdx.ProfileError, veio %T (%v)", err, err)
	}
	// Falha de perfil é distinta da falha de token: o token foi obtido.
	if !trace.TokenObtained || trace.ProfileResolved {
		t.Fatalf("trace = %+v", trace)
	}
	if trace.State != StateFailed {
		t.Fatalf("state = %q", trace.State)
	}
}

func TestLoginStoreFailure(t *testing.T) {
	store := &stubStore{findErr: &StoreError{Err: errors.New("conexão recusada")}}
	broker := &stubBroker{token: "tok", profile: testProfile}
	svc := NewService(store, broker, redirectBase)

	_, trace, err := svc.Login(context.Background(), "app-1", "mt-1")
	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatalf("esperado *StoreError, veio %T (%v)", err, err)
	}
	if trace.State != StateFailed || !trace.ProfileResolved {
		t.Fatalf("trace = %+v", trace)
	}
}

func validRegistration() RegistrationInput {
	return RegistrationInput{
		AppID:        "app-1",
		UserID:       "U1",
		CitizenID:    "1100200300",
		FirstName:    "A",
		LastName:     "B",
		DateOfBirth:  "01/01/1990",
		Mobile:       "0812345678",
		Email:        "a@b.c",
		Notification: "Y",
		AddressLine1: "123/4 Rua Principal",
		Subdistrict:  "Centro",
		District:     "Zabelê",
		Province:     "PB",
		Postcode:     "58515000",
	}
}

func TestRegisterMissingPersonal(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, &stubBroker{}, redirectBase)

	input := validRegistration()
	input.CitizenID = ""
	input.FirstName = ""

	_, err := svc.Register(context.Background(), input)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("esperado *ValidationError, veio %T (%v)", err, err)
	}
	if validationErr.Group != GroupPersonal {
		t.Fatalf("grupo = %q", validationErr.Group)
	}
	if len(store.regUpserts) != 0 {
		t.Fatalf("nenhuma persistência esperada")
	}
}

func TestRegisterMissingAddress(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, &stubBroker{}, redirectBase)

	input := validRegistration()
	input.Postcode = ""

	_, err := svc.Register(context.Background(), input)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("esperado *ValidationError, veio %T (%v)", err, err)
	}
	if validationErr.Group != GroupAddress {
		t.Fatalf("grupo = %q, esperado address", validationErr.Group)
	}
	if len(validationErr.Fields) != 1 || validationErr.Fields[0] != "postcode" {
		t.Fatalf("fields = %v", validationErr.Fields)
	}
	if len(store.regUpserts) != 0 {
		t.Fatalf("nenhuma persistência esperada")
	}
}

func TestRegisterSuccess(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, &stubBroker{}, redirectBase)

	redirectURL, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	parsed, err := url.Parse(redirectURL)
	if err != nil {
		t.Fatalf("redirect inválido: %v", err)
	}
	q := parsed.Query()
	if q.Get("userId") != "U1" || q.Get("citizenId") != "1100200300" {
		t.Fatalf("query = %v", q)
	}

	if len(store.regUpserts) != 1 {
		t.Fatalf("upserts = %d", len(store.regUpserts))
	}
	record := store.regUpserts[0]
	if record.AddressLine1 == nil || *record.AddressLine1 != "123/4 Rua Principal" {
		t.Fatalf("addressLine1 = %v", record.AddressLine1)
	}
	// Linha 2 vazia vira NULL, não string vazia.
	if record.AddressLine2 != nil {
		t.Fatalf("addressLine2 = %v", record.AddressLine2)
	}
}

func TestRegisterIdempotentPayload(t *testing.T) {
	store := &stubStore{}
	svc := NewService(store, &stubBroker{}, redirectBase)

	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("primeiro register: %v", err)
	}
	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("segundo register: %v", err)
	}

	if len(store.regUpserts) != 2 {
		t.Fatalf("upserts = %d", len(store.regUpserts))
	}
	if !reflect.DeepEqual(store.regUpserts[0], store.regUpserts[1]) {
		t.Fatalf("payloads divergentes:\n%+v\n%+v", store.regUpserts[0], store.regUpserts[1])
	}
}

func TestLookupRequiresKey(t *testing.T) {
	svc := NewService(&stubStore{}, &stubBroker{}, redirectBase)

	_, err := svc.Lookup(context.Background(), "", "  ")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("esperado *ValidationError, veio %T (%v)", err, err)
	}
}

func TestLookupCitizenIDPrecedence(t *testing.T) {
	store := &stubStore{records: map[string]Citizen{"1100200300": {CitizenID: "1100200300", UserID: "U1"}}}
	svc := NewService(store, &stubBroker{}, redirectBase)

	record, err := svc.Lookup(context.Background(), "1100200300", "U-outro")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if record.CitizenID != "1100200300" {
		t.Fatalf("record = %+v", record)
	}
	if store.lookupCitizen != "1100200300" {
		t.Fatalf("chave usada = %q", store.lookupCitizen)
	}
}

func TestLookupNotFound(t *testing.T) {
	svc := NewService(&stubStore{}, &stubBroker{}, redirectBase)

	_, err := svc.Lookup(context.Background(), "999", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("esperado ErrNotFound, veio %v", err)
	}
}
