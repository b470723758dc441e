package gdx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client encapsula chamadas ao broker de identidade do governo (GDX).
type Client struct {
	httpClient     *http.Client
	authURL        string
	profileURL     string
	notifyURL      string
	consumerKey    string
	consumerSecret string
	agentID        string
}

// Config descreve credenciais e endpoints essenciais para o cliente.
type Config struct {
	AuthURL        string
	ProfileURL     string
	NotifyURL      string
	ConsumerKey    string
	ConsumerSecret string
	AgentID        string
}

// Profile é o payload de perfil devolvido pela troca de MToken.
type Profile struct {
	UserID       string `json:"userId"`
	CitizenID    string `json:"citizenId"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	DateOfBirth  string `json:"dateOfBirthString"`
	Mobile       string `json:"mobile"`
	Email        string `json:"email"`
	Notification string `json:"notification"`
}

// New cria um novo cliente com as credenciais estáticas do convênio.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AuthURL) == "" {
		return nil, errors.New("gdx: auth url obrigatória")
	}
	if strings.TrimSpace(cfg.ProfileURL) == "" {
		return nil, errors.New("gdx: profile url obrigatória")
	}
	if strings.TrimSpace(cfg.ConsumerKey) == "" {
		return nil, errors.New("gdx: consumer key obrigatória")
	}
	if strings.TrimSpace(cfg.ConsumerSecret) == "" {
		return nil, errors.New("gdx: consumer secret obrigatório")
	}
	if strings.TrimSpace(cfg.AgentID) == "" {
		return nil, errors.New("gdx: agent id obrigatório")
	}

	return &Client{
		httpClient:     &http.Client{Timeout: 15 * time.Second},
		authURL:        strings.TrimSpace(cfg.AuthURL),
		profileURL:     strings.TrimSpace(cfg.ProfileURL),
		notifyURL:      strings.TrimSpace(cfg.NotifyURL),
		consumerKey:    cfg.ConsumerKey,
		consumerSecret: cfg.ConsumerSecret,
		agentID:        cfg.AgentID,
	}, nil
}

// AccessToken obtém um token de acesso de curta duração.
// Cada operação orquestrada autentica de novo; o token nunca é cacheado.
func (c *Client) AccessToken(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("ConsumerSecret", c.consumerSecret)
	q.Set("AgentID", c.agentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.authURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", &AuthError{Err: err}
	}
	req.Header.Set("Consumer-Key", c.consumerKey)
	req.Header.Set("Content-Type", "application/json")

	var payload struct {
		Result string `json:"Result"`
	}
	if err := c.do(req, &payload); err != nil {
		return "", &AuthError{Err: err}
	}
	if payload.Result == "" {
		return "", &AuthError{Err: errors.New("resposta sem token")}
	}
	return payload.Result, nil
}

// ResolveProfile troca o MToken do app pelo perfil do cidadão.
// Result nulo significa MToken expirado ou inválido.
func (c *Client) ResolveProfile(ctx context.Context, appID, mToken, accessToken string) (Profile, error) {
	body := map[string]any{"AppId": appID, "MToken": mToken}

	req, err := c.newRequest(ctx, http.MethodPost, c.profileURL, body)
	if err != nil {
		return Profile{}, &ProfileError{Err: err}
	}
	req.Header.Set("Token", accessToken)

	var payload struct {
		Result *Profile `json:"result"`
	}
	if err := c.do(req, &payload); err != nil {
		return Profile{}, &ProfileError{Err: err}
	}
	if payload.Result == nil {
		return Profile{}, &ProfileError{Expired: true}
	}
	return *payload.Result, nil
}

// Notify repassa uma notificação push pelo broker. Proxy puro: sem retry e
// sem lógica de decisão; a falha vira UpstreamError para o chamador.
func (c *Client) Notify(ctx context.Context, appID, userID, message string) error {
	if c.notifyURL == "" {
		return &UpstreamError{Err: errors.New("endpoint de notificação não configurado")}
	}

	token, err := c.AccessToken(ctx)
	if err != nil {
		return err
	}

	body := map[string]any{
		"appId":        appID,
		"data":         []map[string]any{{"message": message, "userId": userID}},
		"sendDateTime": nil,
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.notifyURL, body)
	if err != nil {
		return &UpstreamError{Err: err}
	}
	req.Header.Set("Token", token)

	if err := c.do(req, nil); err != nil {
		return &UpstreamError{Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Consumer-Key", c.consumerKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("gdx: status %d", resp.StatusCode)
	}

	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
