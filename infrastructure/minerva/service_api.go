package minerva

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	infra "github.com/Apiara/ControlMBridge/infrastructure"
	"go.uber.org/zap"
)

// maxRequestBytes bounds the body accepted by the save resource
const maxRequestBytes = 10 << 20

const (
	SaveSucceededMessage = "definitions saved, upload them with controlMInfo"
	UsageMessage         = "API for saving Control-M definitions documents"
)

// DefaultEnvironments maps each environment to its Control-M deploy URL
func DefaultEnvironments() map[string]string {
	return map[string]string{
		infra.DevelopmentEnvironment: "https://controlms1de01:8446/automation-api/deploy",
		infra.QAEnvironment:          "https://controlms2qa01:8446/automation-api/deploy",
	}
}

type usageResponse struct {
	Message   string            `json:"message"`
	Endpoints map[string]string `json:"endpoints"`
	Example   infra.SaveRequest `json:"example"`
}

func writeJSON(resp http.ResponseWriter, status int, body interface{}, logger *zap.Logger) {
	resp.Header().Set(infra.ContentTypeHeader, infra.JSONContentType)
	resp.WriteHeader(status)
	if err := json.NewEncoder(resp).Encode(body); err != nil {
		logger.Error("failed to write response", zap.Error(err))
	}
}

func writeError(resp http.ResponseWriter, status int, msg string, logger *zap.Logger) {
	writeJSON(resp, status, &infra.ErrorResponse{Success: false, Error: msg}, logger)
}

// isMissing reports whether a raw JSON field is absent or holds a falsy scalar
func isMissing(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return true
	}
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return false
	}
	switch v := value.(type) {
	case nil:
		return true
	case bool:
		return !v
	case float64:
		return v == 0
	case string:
		return v == ""
	}
	return false
}

/*
parseDefinitions accepts either a JSON document or a string holding one and
returns the document
*/
func parseDefinitions(raw json.RawMessage) (json.RawMessage, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		return raw, nil
	}
	if !json.Valid([]byte(text)) {
		return nil, fmt.Errorf("jsonData string is not a JSON document")
	}
	return json.RawMessage(text), nil
}

func environmentNames(environments map[string]string) string {
	names := make([]string, 0, len(environments))
	for name := range environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

/*
handleSaveRequest stores the definitions of a save request and answers with
the descriptor a client needs to deploy them
*/
func handleSaveRequest(resp http.ResponseWriter, req *http.Request,
	environments map[string]string, store DefinitionStore, logger *zap.Logger) {
	if req.Method != http.MethodPost {
		resp.Header().Set("Allow", http.MethodPost)
		writeError(resp, http.StatusMethodNotAllowed, "only POST is supported", logger)
		return
	}

	var request infra.SaveRequest
	body := http.MaxBytesReader(resp, req.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&request); err != nil {
		writeError(resp, http.StatusBadRequest, "request body must be a JSON object", logger)
		return
	}
	if request.Environment == "" || request.Token == "" || request.Filename == "" || isMissing(request.JSONData) {
		writeError(resp, http.StatusBadRequest,
			`fields "ambiente", "token", "filename" and "jsonData" are required`, logger)
		return
	}

	deployURL, ok := environments[request.Environment]
	if !ok {
		writeError(resp, http.StatusBadRequest,
			fmt.Sprintf(`field "ambiente" must be one of: %s`, environmentNames(environments)), logger)
		return
	}

	definitions, err := parseDefinitions(request.JSONData)
	if err != nil {
		writeError(resp, http.StatusBadRequest, `field "jsonData" must contain valid JSON`, logger)
		return
	}

	filename := request.Filename
	if !strings.HasSuffix(filename, infra.DefinitionFileExtension) {
		filename += infra.DefinitionFileExtension
	}

	location, err := store.Save(request.Environment, filename, definitions)
	if err != nil {
		logger.Error("failed to save definitions", zap.String("filename", filename), zap.Error(err))
		writeError(resp, http.StatusInternalServerError, "internal error while saving definitions", logger)
		return
	}
	logger.Info("definitions saved",
		zap.String("filename", filename),
		zap.String("ambiente", request.Environment),
		zap.String("location", location))

	writeJSON(resp, http.StatusOK, &infra.SaveResponse{
		Success:     true,
		Message:     SaveSucceededMessage,
		Filename:    filename,
		Environment: request.Environment,
		Location:    location,
		ControlMInfo: &infra.JobDescriptor{
			URL:      deployURL,
			Headers:  map[string]string{infra.AuthorizationHeader: "Bearer " + request.Token},
			Filename: filename,
			JSONData: definitions,
		},
	}, logger)
}

// NewServiceHandler creates the handler serving the save and usage resources
func NewServiceHandler(environments map[string]string, store DefinitionStore, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("minerva")
	serviceAPI := http.NewServeMux()

	// Save definitions and describe their upload
	serviceAPI.HandleFunc(infra.MinervaServiceAPISaveResource,
		func(resp http.ResponseWriter, req *http.Request) {
			handleSaveRequest(resp, req, environments, store, logger)
		})

	// Usage document
	serviceAPI.HandleFunc(infra.MinervaServiceAPIUsageResource,
		func(resp http.ResponseWriter, req *http.Request) {
			if req.URL.Path != infra.MinervaServiceAPIUsageResource {
				http.NotFound(resp, req)
				return
			}
			writeJSON(resp, http.StatusOK, &usageResponse{
				Message: UsageMessage,
				Endpoints: map[string]string{
					"POST " + infra.MinervaServiceAPISaveResource: "Saves a definitions document and returns its controlMInfo",
				},
				Example: infra.SaveRequest{
					Environment: infra.DevelopmentEnvironment,
					Token:       "my-token-123",
					Filename:    "my-file",
					JSONData:    json.RawMessage(`{"name":"example","value":123}`),
				},
			}, logger)
		})

	return serviceAPI
}

/*
StartServiceAPI starts the API that accepts definitions documents and tells
clients how to deploy them
*/
func StartServiceAPI(listenAddr string, environments map[string]string,
	store DefinitionStore, logger *zap.Logger) error {
	return http.ListenAndServe(listenAddr, NewServiceHandler(environments, store, logger))
}
