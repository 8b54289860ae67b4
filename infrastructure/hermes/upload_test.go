package hermes

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	infra "github.com/Apiara/ControlMBridge/infrastructure"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type receivedUpload struct {
	filename    string
	contentType string
	content     []byte
	header      http.Header
}

// newUploadServer records the definitions part of each request and answers with status/contentType/body
func newUploadServer(t *testing.T, status int, contentType, body string) (*httptest.Server, *[]receivedUpload) {
	received := make([]receivedUpload, 0)
	server := httptest.NewServer(http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("Failed to parse multipart form: %v", err)
			resp.WriteHeader(http.StatusBadRequest)
			return
		}
		file, fileHeader, err := req.FormFile(infra.DefinitionsFileField)
		if err != nil {
			t.Errorf("Missing definitions file: %v", err)
			resp.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		content, err := io.ReadAll(file)
		if err != nil {
			t.Errorf("Failed to read definitions file: %v", err)
		}

		received = append(received, receivedUpload{
			filename:    fileHeader.Filename,
			contentType: fileHeader.Header.Get(infra.ContentTypeHeader),
			content:     content,
			header:      req.Header.Clone(),
		})

		if contentType != "" {
			resp.Header().Set(infra.ContentTypeHeader, contentType)
		}
		resp.WriteHeader(status)
		io.WriteString(resp, body)
	}))
	t.Cleanup(server.Close)
	return server, &received
}

func testDescriptor(url string) infra.JobDescriptor {
	return infra.JobDescriptor{
		URL:      url,
		Headers:  map[string]string{infra.AuthorizationHeader: "Bearer secret"},
		Filename: "f.json",
		JSONData: json.RawMessage(`{"a":1}`),
	}
}

func TestUploadJSONResponse(t *testing.T) {
	server, received := newUploadServer(t, http.StatusCreated, "application/json; charset=utf-8", `{"ok":true}`)
	client := NewClient(zaptest.NewLogger(t))

	result := client.Upload(testDescriptor(server.URL))
	require.True(t, result.Success, "Upload failed: %s", result.Error)
	require.NotNil(t, result.Status)
	assert.Equal(t, http.StatusCreated, *result.Status)
	assert.Equal(t, UploadSucceededMessage, result.Message)
	assert.Empty(t, result.Error)

	data, ok := result.Data.(json.RawMessage)
	require.True(t, ok, "Expected JSON data, got %T", result.Data)
	assert.JSONEq(t, `{"ok":true}`, string(data))

	require.Len(t, *received, 1)
	upload := (*received)[0]
	assert.Equal(t, "f.json", upload.filename)
	assert.Equal(t, infra.JSONContentType, upload.contentType)
	assert.Equal(t, "Bearer secret", upload.header.Get(infra.AuthorizationHeader))
	assert.True(t, strings.HasPrefix(upload.header.Get(infra.ContentTypeHeader), "multipart/form-data; boundary="))
	assert.Equal(t, "{\n  \"a\": 1\n}", string(upload.content))
}

func TestUploadRemoteErrorIsNotFailure(t *testing.T) {
	server, _ := newUploadServer(t, http.StatusBadRequest, "text/plain", "invalid definitions")
	client := NewClient(nil)

	result := client.Upload(testDescriptor(server.URL))
	assert.True(t, result.Success)
	require.NotNil(t, result.Status)
	assert.Equal(t, http.StatusBadRequest, *result.Status)
	assert.Equal(t, "invalid definitions", result.Data)
}

func TestUploadConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	result := NewClient(nil).Upload(testDescriptor(url))
	assert.False(t, result.Success)
	assert.Nil(t, result.Status)
	assert.NotEmpty(t, result.Error)
	assert.Equal(t, UploadFailedMessage, result.Message)
	assert.Nil(t, result.Data)

	encoded, err := json.Marshal(result)
	require.NoError(t, err)
	assert.Contains(t, string(encoded), `"status":null`)
}

func TestUploadUnencodableDefinitions(t *testing.T) {
	server, received := newUploadServer(t, http.StatusOK, "", "")
	descriptor := testDescriptor(server.URL)
	descriptor.JSONData = nil

	result := NewClient(nil).Upload(descriptor)
	assert.False(t, result.Success)
	assert.Nil(t, result.Status)
	assert.Contains(t, result.Error, "failed to encode definitions")
	assert.Empty(t, *received, "No request should be sent")
}

func TestUploadInvalidJSONResponseKeepsStatus(t *testing.T) {
	server, _ := newUploadServer(t, http.StatusBadGateway, infra.JSONContentType, "<html>gateway</html>")

	result := NewClient(nil).Upload(testDescriptor(server.URL))
	assert.False(t, result.Success)
	require.NotNil(t, result.Status)
	assert.Equal(t, http.StatusBadGateway, *result.Status)
}

func TestUploadIsIdempotent(t *testing.T) {
	server, received := newUploadServer(t, http.StatusOK, infra.JSONContentType, `{"deployed":["job"]}`)
	client := NewClient(nil)
	descriptor := testDescriptor(server.URL)

	first := client.Upload(descriptor)
	second := client.Upload(descriptor)
	assert.True(t, cmp.Equal(first, second), "Results differ: %s", cmp.Diff(first, second))
	require.Len(t, *received, 2)
	assert.Equal(t, (*received)[0].content, (*received)[1].content)
}

func TestUploadDefinitionsRoundTrip(t *testing.T) {
	definitions := `{"zeta":{"Type":"SimpleFolder","Jobs":[{"n":12345678901234567890},{"f":1.50}]},` +
		`"alpha":"código é","empty":{},"list":[]}`
	server, received := newUploadServer(t, http.StatusOK, "", "ok")
	descriptor := testDescriptor(server.URL)
	descriptor.JSONData = json.RawMessage(definitions)

	result := NewClient(nil).Upload(descriptor)
	require.True(t, result.Success, result.Error)
	require.Len(t, *received, 1)
	content := (*received)[0].content

	var sent, expected interface{}
	require.NoError(t, json.Unmarshal(content, &sent))
	require.NoError(t, json.Unmarshal([]byte(definitions), &expected))
	assert.True(t, cmp.Equal(expected, sent), cmp.Diff(expected, sent))

	// Key order and number text survive unchanged
	text := string(content)
	assert.Less(t, strings.Index(text, `"zeta"`), strings.Index(text, `"alpha"`))
	assert.Contains(t, text, "12345678901234567890")
	assert.Contains(t, text, "1.50")
	assert.Contains(t, text, "\n  \"zeta\": {\n    \"Type\": \"SimpleFolder\",")
}

func TestEncodeDefinitionsFormEscapesFilename(t *testing.T) {
	body, contentType, err := encodeDefinitionsForm(`we"ird.json`, json.RawMessage(`[]`))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(contentType, "multipart/form-data"))
	assert.Contains(t, body.String(), `filename="we\"ird.json"`)
	assert.Contains(t, body.String(), `name="definitionsFile"`)
}
