package hermes

import (
	"encoding/json"
	"fmt"

	infra "github.com/Apiara/ControlMBridge/infrastructure"
)

const (
	UploadSucceededMessage  = "Control-M executed successfully from client"
	UploadFailedMessage     = "Error executing Control-M from client"
	ProcessSucceededMessage = "process completed"
	ProcessFailedMessage    = "process failed"
)

/*
OperationResult is the envelope returned by every client operation. On
failure Error is set and Status holds the HTTP status of the failed
exchange when one was received, nil otherwise
*/
type OperationResult struct {
	Success bool        `json:"success"`
	Status  *int        `json:"status"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message"`
}

func uploadSucceeded(status int, data interface{}) OperationResult {
	return OperationResult{
		Success: true,
		Status:  &status,
		Data:    data,
		Message: UploadSucceededMessage,
	}
}

func uploadFailed(err error) OperationResult {
	result := OperationResult{
		Success: false,
		Error:   err.Error(),
		Message: UploadFailedMessage,
	}
	if status, ok := infra.StatusCodeOf(err); ok {
		result.Status = &status
	}
	return result
}

/*
CombinedResult is the outcome of a full Run. APIResponse and ControlMResult
are only present when the primary API call succeeded
*/
type CombinedResult struct {
	APIResponse    *PrimaryResponse `json:"apiResponse,omitempty"`
	ControlMResult *OperationResult `json:"controlMResult,omitempty"`
	Success        bool             `json:"success"`
	Error          string           `json:"error,omitempty"`
	Message        string           `json:"message"`
}

func processFailed(err error) CombinedResult {
	return CombinedResult{
		Success: false,
		Error:   err.Error(),
		Message: ProcessFailedMessage,
	}
}

/*
PrimaryResponse is the decoded body of a successful primary API call.
Every field of the body is retained and re-encoded unchanged
*/
type PrimaryResponse struct {
	Success      bool
	ControlMInfo *infra.JobDescriptor

	fields map[string]json.RawMessage
}

// Field returns the raw value of a top level response field
func (p *PrimaryResponse) Field(name string) (json.RawMessage, bool) {
	raw, ok := p.fields[name]
	return raw, ok
}

func (p *PrimaryResponse) UnmarshalJSON(data []byte) error {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	success := false
	if raw, ok := fields["success"]; ok {
		var flag interface{}
		if err := json.Unmarshal(raw, &flag); err != nil {
			return err
		}
		success = truthy(flag)
	}

	var descriptor *infra.JobDescriptor
	if raw, ok := fields["controlMInfo"]; ok && string(raw) != "null" {
		descriptor = &infra.JobDescriptor{}
		if err := json.Unmarshal(raw, descriptor); err != nil {
			return fmt.Errorf("invalid controlMInfo: %w", err)
		}
	}

	p.Success = success
	p.ControlMInfo = descriptor
	p.fields = fields
	return nil
}

func (p PrimaryResponse) MarshalJSON() ([]byte, error) {
	if p.fields != nil {
		return json.Marshal(p.fields)
	}
	return json.Marshal(struct {
		Success      bool                 `json:"success"`
		ControlMInfo *infra.JobDescriptor `json:"controlMInfo,omitempty"`
	}{p.Success, p.ControlMInfo})
}

// truthy follows JSON truthiness: false, null, 0, "", [] and {} are false
func truthy(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case float64:
		return v != 0
	case string:
		return v != ""
	case []interface{}:
		return len(v) > 0
	case map[string]interface{}:
		return len(v) > 0
	}
	return true
}
