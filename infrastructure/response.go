package infrastructure

import "encoding/json"

/*
JobDescriptor describes the upload a client must perform against the
job-scheduling system. JSONData is kept raw so it can be re-emitted
without reordering keys or losing number precision
*/
type JobDescriptor struct {
	URL      string            `json:"url"`
	Headers  map[string]string `json:"headers"`
	Filename string            `json:"filename"`
	JSONData json.RawMessage   `json:"jsonData"`
}

// SaveRequest is the body accepted by the minerva save resource
type SaveRequest struct {
	Environment string          `json:"ambiente"`
	Token       string          `json:"token"`
	Filename    string          `json:"filename"`
	JSONData    json.RawMessage `json:"jsonData"`
}

type SaveResponse struct {
	Success      bool           `json:"success"`
	Message      string         `json:"message"`
	Filename     string         `json:"filename"`
	Environment  string         `json:"ambiente"`
	Location     string         `json:"location"`
	ControlMInfo *JobDescriptor `json:"controlMInfo"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
