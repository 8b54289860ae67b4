package hermes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	infra "github.com/Apiara/ControlMBridge/infrastructure"
	"go.uber.org/zap"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

/*
Upload posts descriptor.JSONData as the definitionsFile part of a multipart
form. It never fails outright: any completed exchange is a successful result
carrying the remote status, anything else a failed one
*/
func (c *Client) Upload(descriptor infra.JobDescriptor) OperationResult {
	return c.upload(c.logger, descriptor)
}

func (c *Client) upload(logger *zap.Logger, descriptor infra.JobDescriptor) OperationResult {
	logger.Info("executing Control-M upload", zap.String("url", descriptor.URL))

	status, data, err := c.postDefinitions(descriptor)
	if err != nil {
		logger.Error("Control-M upload failed", zap.String("url", descriptor.URL), zap.Error(err))
		return uploadFailed(err)
	}

	logger.Info("Control-M upload completed", zap.String("url", descriptor.URL), zap.Int("status", status))
	return uploadSucceeded(status, data)
}

// postDefinitions returns the response status and its decoded body
func (c *Client) postDefinitions(descriptor infra.JobDescriptor) (int, interface{}, error) {
	body, contentType, err := encodeDefinitionsForm(descriptor.Filename, descriptor.JSONData)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequest(http.MethodPost, descriptor.URL, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set(infra.ContentTypeHeader, contentType)
	for name, value := range descriptor.Headers {
		req.Header.Set(name, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to upload definitions to %s: %w", descriptor.URL, err)
	}
	defer resp.Body.Close()

	var text string
	if err = infra.StringBodyDecoder(resp.Body, &text); err != nil {
		return 0, nil, &infra.StatusError{
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to read upload response: %w", err),
		}
	}

	if !infra.IsJSONContentType(resp.Header.Get(infra.ContentTypeHeader)) {
		return resp.StatusCode, text, nil
	}
	if !json.Valid([]byte(text)) {
		return 0, nil, &infra.StatusError{
			StatusCode: resp.StatusCode,
			Err:        errors.New("upload response announced JSON but body is not valid JSON"),
		}
	}
	return resp.StatusCode, json.RawMessage(text), nil
}

/*
encodeDefinitionsForm renders definitions with 2 space indentation and wraps
it in a single file part form. Returns the form body and its content type
*/
func encodeDefinitionsForm(filename string, definitions json.RawMessage) (*bytes.Buffer, string, error) {
	var content bytes.Buffer
	if err := json.Indent(&content, definitions, "", "  "); err != nil {
		return nil, "", fmt.Errorf("failed to encode definitions: %w", err)
	}

	body := &bytes.Buffer{}
	form := multipart.NewWriter(body)

	partHeader := make(textproto.MIMEHeader)
	partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		infra.DefinitionsFileField, quoteEscaper.Replace(filename)))
	partHeader.Set(infra.ContentTypeHeader, infra.JSONContentType)

	part, err := form.CreatePart(partHeader)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create definitions part: %w", err)
	}
	if _, err = part.Write(content.Bytes()); err != nil {
		return nil, "", fmt.Errorf("failed to write definitions part: %w", err)
	}
	if err = form.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close definitions form: %w", err)
	}
	return body, form.FormDataContentType(), nil
}
