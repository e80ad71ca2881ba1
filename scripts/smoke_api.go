//go:build ignore

// Exercises a running mock document service end to end:
//
//	go run ./cmd/mockapi &
//	go run scripts/smoke_api.go
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/golang-jwt/jwt/v5"
)

var baseURL = envOr("API_URL", "http://localhost:8000")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Pretty print JSON helper
func prettyPrint(raw []byte) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		fmt.Println(string(raw))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

// Request helper
func sendRequest(method, path, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func fail(format string, args ...interface{}) {
	color.Red(format, args...)
	os.Exit(1)
}

func main() {
	color.Cyan("Smoke testing %s\n", baseURL)

	// The mock service does not verify provider signatures.
	idToken, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "smoke-user",
		"email": "smoke@example.com",
		"name":  "Smoke Test",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("smoke"))

	color.Yellow("\n1. Login")
	resp, body, err := sendRequest(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"idToken": idToken})
	if err != nil || resp.StatusCode != http.StatusOK {
		fail("Failed: %v %s", err, body)
	}
	var login struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &login)
	color.Green("Status: %s", resp.Status)

	color.Yellow("\n2. Create document")
	resp, body, err = sendRequest(http.MethodPost, "/api/v1/documents", login.Token, map[string]string{"name": "Smoke.pdf"})
	if err != nil || resp.StatusCode != http.StatusCreated {
		fail("Failed: %v %s", err, body)
	}
	var doc struct {
		Id string `json:"id"`
	}
	_ = json.Unmarshal(body, &doc)
	color.Green("Status: %s (id %s)", resp.Status, doc.Id)

	color.Yellow("\n3. Poll until ready")
	for i := 0; i < 30; i++ {
		resp, body, err = sendRequest(http.MethodGet, "/api/v1/documents/"+doc.Id, login.Token, nil)
		if err != nil || resp.StatusCode != http.StatusOK {
			fail("Failed: %v %s", err, body)
		}
		var st struct {
			Status   string `json:"status"`
			Progress int    `json:"progress"`
		}
		_ = json.Unmarshal(body, &st)
		fmt.Printf("  %s %d%%\n", st.Status, st.Progress)
		if st.Status != "processing" {
			break
		}
		time.Sleep(2 * time.Second)
	}
	prettyPrint(body)

	color.Yellow("\n4. Delete")
	resp, body, err = sendRequest(http.MethodDelete, "/api/v1/documents/"+doc.Id, login.Token, nil)
	if err != nil || resp.StatusCode != http.StatusOK {
		fail("Failed: %v %s", err, body)
	}
	color.Green("Status: %s", resp.Status)

	resp, _, _ = sendRequest(http.MethodGet, "/api/v1/documents/"+doc.Id, login.Token, nil)
	if resp.StatusCode != http.StatusNotFound {
		fail("Expected 404 after delete, got %s", resp.Status)
	}
	color.Green("\nAll checks passed")
}
