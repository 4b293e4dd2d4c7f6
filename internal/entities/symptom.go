package entities

import "encoding/json"

type SymptomCheckRequest struct {
	Symptoms []string `json:"symptoms"`
	Age      int      `json:"age"`
	Gender   string   `json:"gender"`
}

type SymptomCheckResponse struct {
	Result json.RawMessage `json:"result"`
}
