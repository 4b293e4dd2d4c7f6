package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"telemed/internal/entities"
)

// SymptomService proxies the third-party symptom-analysis API. The call
// is opaque: the result payload is passed through untouched.
type SymptomService struct {
	Client *http.Client
}

func NewSymptomService() *SymptomService {
	return &SymptomService{Client: &http.Client{Timeout: 15 * time.Second}}
}

func (s *SymptomService) Check(ctx context.Context, req entities.SymptomCheckRequest) (json.RawMessage, error) {
	apiKey := os.Getenv("RAPIDAPI_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RAPIDAPI_KEY not configured")
	}
	host := os.Getenv("RAPIDAPI_HOST")
	if host == "" {
		host = "ai-medical-diagnosis-api-symptoms-to-results.p.rapidapi.com"
	}

	payload := map[string]any{
		"symptoms": req.Symptoms,
		"patientInfo": map[string]any{
			"age":    req.Age,
			"gender": req.Gender,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("https://%s/analyzeSymptomsAndDiagnose?noqueue=1", host)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-RapidAPI-Key", apiKey)
	httpReq.Header.Set("X-RapidAPI-Host", host)

	resp, err := s.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("symptom analysis request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("symptom analysis returned status %d", resp.StatusCode)
	}

	var out entities.SymptomCheckResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding symptom analysis response: %w", err)
	}
	return out.Result, nil
}
