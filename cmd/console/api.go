package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/uuid"
	"github.com/jwebster45206/roleplay-engine/pkg/state"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// Result mirrors the API's turn response.
type Result struct {
	GameState *state.GameState `json:"game_state"`
	Notices   []state.Notice   `json:"notices"`
	Message   string           `json:"message,omitempty"`
}

type setupListing struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiClient struct {
	client  *http.Client
	baseURL string
}

func newAPIClient(client *http.Client, baseURL string) *apiClient {
	return &apiClient{client: client, baseURL: baseURL}
}

// call sends body as JSON and decodes the response into out when the
// status matches want.
func (a *apiClient) call(method, path string, body any, want int, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != want {
		var errorResp ErrorResponse
		if err := json.Unmarshal(data, &errorResp); err != nil || errorResp.Error == "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(data))
		}
		return fmt.Errorf("%s", errorResp.Error)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

func (a *apiClient) healthy() bool {
	resp, err := a.client.Get(a.baseURL + "/health")
	if err != nil {
		return false
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()
	return resp.StatusCode == http.StatusOK
}

func (a *apiClient) listSetups() ([]setupListing, error) {
	var setups []setupListing
	if err := a.call(http.MethodGet, "/v1/setups", nil, http.StatusOK, &setups); err != nil {
		return nil, err
	}
	sort.Slice(setups, func(i, j int) bool { return setups[i].Name < setups[j].Name })
	return setups, nil
}

func (a *apiClient) createGame(setupID string) (*Result, error) {
	var res Result
	err := a.call(http.MethodPost, "/v1/gamestate", map[string]string{"setup_id": setupID}, http.StatusCreated, &res)
	return &res, err
}

func (a *apiClient) getGame(id uuid.UUID) (*state.GameState, error) {
	var gs state.GameState
	if err := a.call(http.MethodGet, "/v1/gamestate/"+id.String(), nil, http.StatusOK, &gs); err != nil {
		return nil, err
	}
	return &gs, nil
}

// operation runs a POST turn endpoint such as action, undo or reroll.
func (a *apiClient) operation(id uuid.UUID, op string, body any) (*Result, error) {
	var res Result
	if err := a.call(http.MethodPost, fmt.Sprintf("/v1/gamestate/%s/%s", id, op), body, http.StatusOK, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (a *apiClient) action(id uuid.UUID, text string) (*Result, error) {
	return a.operation(id, "action", map[string]string{"action": text})
}

func (a *apiClient) summary(id uuid.UUID) (string, error) {
	var resp struct {
		Summary string `json:"summary"`
	}
	if err := a.call(http.MethodGet, fmt.Sprintf("/v1/gamestate/%s/summary", id), nil, http.StatusOK, &resp); err != nil {
		return "", err
	}
	return resp.Summary, nil
}

func (a *apiClient) save(id uuid.UUID, slot string) error {
	body := map[string]string{"slot": slot, "game_state_id": id.String()}
	return a.call(http.MethodPost, "/v1/saves", body, http.StatusCreated, nil)
}
