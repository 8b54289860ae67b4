package hermes

import (
	"errors"
	"fmt"
	"net/http"

	infra "github.com/Apiara/ControlMBridge/infrastructure"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrPrimaryRejected   = errors.New("primary API reported failure")
	ErrMissingDescriptor = errors.New("primary API response carries no controlMInfo")
)

/*
Client asks a primary API which Control-M upload to perform and then
performs it. One http.Client is reused for every call a Client makes
*/
type Client struct {
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a Client. A nil logger discards all output
func NewClient(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		client: &http.Client{Timeout: infra.RequestTimeout},
		logger: logger.Named("hermes"),
	}
}

/*
Invoke posts requestBody as JSON to apiURL. An error is returned unless the
API answers 200 OK with a truthy success field
*/
func (c *Client) Invoke(apiURL string, requestBody interface{}) (*PrimaryResponse, error) {
	return c.invoke(c.logger, apiURL, requestBody)
}

func (c *Client) invoke(logger *zap.Logger, apiURL string, requestBody interface{}) (*PrimaryResponse, error) {
	logger.Info("calling primary API", zap.String("url", apiURL))

	var apiResponse PrimaryResponse
	err := infra.PostJSON(apiURL, requestBody, c.client, infra.JSONBodyDecoder, &apiResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to call primary API(%s): %w", apiURL, err)
	}
	if !apiResponse.Success {
		return nil, fmt.Errorf("primary API(%s): %w", apiURL, ErrPrimaryRejected)
	}

	logger.Info("primary API call succeeded", zap.String("url", apiURL))
	return &apiResponse, nil
}

/*
Run calls the primary API and uploads the descriptor it returns. A failed
primary call yields a failure envelope; otherwise the combined result is
returned whatever the upload outcome
*/
func (c *Client) Run(apiURL string, requestData interface{}) CombinedResult {
	logger := c.logger.With(zap.String("run_id", uuid.NewString()))

	apiResponse, err := c.invoke(logger, apiURL, requestData)
	if err == nil && apiResponse.ControlMInfo == nil {
		err = ErrMissingDescriptor
	}
	if err != nil {
		logger.Error("process failed", zap.Error(err))
		return processFailed(err)
	}

	uploadResult := c.upload(logger, *apiResponse.ControlMInfo)
	return CombinedResult{
		APIResponse:    apiResponse,
		ControlMResult: &uploadResult,
		Success:        true,
		Message:        ProcessSucceededMessage,
	}
}
