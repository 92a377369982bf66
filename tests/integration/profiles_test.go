//go:build integration

package integration_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"
)

func putJSON(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPut, testServer.URL+path, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("build PUT %s: %v", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT %s: %v", path, err)
	}
	return resp
}

func TestProfileLifecycle(t *testing.T) {
	const path = "/api/v1/profiles/lifecycle-user"

	// Unknown user is a 404.
	resp, err := http.Get(testServer.URL + path)
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown user: expected 404, got %d", resp.StatusCode)
	}

	// Upsert preferences.
	resp = putJSON(t, path, map[string]any{
		"favorite_genres": []string{"noir", "sci-fi"},
		"liked_titles":    []string{"Chinatown"},
	})
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("PUT: expected 200, got %d", resp.StatusCode)
	}

	// Read back.
	getResp, err := http.Get(testServer.URL + path)
	if err != nil {
		t.Fatalf("GET profile: %v", err)
	}
	defer func() { _ = getResp.Body.Close() }()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("GET after PUT: expected 200, got %d", getResp.StatusCode)
	}

	var p struct {
		UserID      string `json:"user_id"`
		Preferences struct {
			FavoriteGenres []string `json:"favorite_genres"`
		} `json:"preferences"`
	}
	if err := json.NewDecoder(getResp.Body).Decode(&p); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if p.UserID != "lifecycle-user" {
		t.Errorf("user_id = %q", p.UserID)
	}
	if len(p.Preferences.FavoriteGenres) != 2 {
		t.Errorf("favorite_genres = %v, want 2 entries", p.Preferences.FavoriteGenres)
	}

	// Delete, then the profile is gone.
	req, err := http.NewRequest(http.MethodDelete, testServer.URL+path, http.NoBody)
	if err != nil {
		t.Fatalf("build DELETE: %v", err)
	}
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE profile: %v", err)
	}
	_ = delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent && delResp.StatusCode != http.StatusOK {
		t.Fatalf("DELETE: expected 2xx, got %d", delResp.StatusCode)
	}

	finalResp, err := http.Get(testServer.URL + path)
	if err != nil {
		t.Fatalf("GET after delete: %v", err)
	}
	_ = finalResp.Body.Close()
	if finalResp.StatusCode != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", finalResp.StatusCode)
	}
}
