// ABOUTME: Document upload and identity verification calls
// ABOUTME: Multipart uploads return server-side URLs consumed by the verify call

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// UploadCNIC uploads one side of a CNIC image and returns its server URL.
// Front and back go through the same endpoint; the backend does not
// distinguish the sides at upload time.
func (c *Client) UploadCNIC(ctx context.Context, path string) (string, error) {
	return c.uploadFile(ctx, "/upload-cnic", path)
}

// UploadSelfie uploads a selfie image and returns its server URL.
func (c *Client) UploadSelfie(ctx context.Context, path string) (string, error) {
	return c.uploadFile(ctx, "/upload-selfie", path)
}

// verifyRequest is the JSON body sent to POST /verify-face.
type verifyRequest struct {
	SessionID   string `json:"session_id"`
	CNICURL     string `json:"cnic_url"`
	CNICBackURL string `json:"cnic_back_url"`
	SelfieURL   string `json:"selfie_url"`
}

// verifyResponse is the JSON response from POST /verify-face.
type verifyResponse struct {
	Verified bool `json:"verified"`
}

// VerifyFace asks the backend to match the uploaded documents against the
// selfie. A false result is a normal outcome, not an error.
func (c *Client) VerifyFace(ctx context.Context, sessionID, cnicURL, cnicBackURL, selfieURL string) (bool, error) {
	req := verifyRequest{
		SessionID:   sessionID,
		CNICURL:     cnicURL,
		CNICBackURL: cnicBackURL,
		SelfieURL:   selfieURL,
	}
	var out verifyResponse
	if err := c.postJSON(ctx, "/verify-face", req, &out); err != nil {
		return false, fmt.Errorf("verifying identity: %w", err)
	}
	return out.Verified, nil
}

// uploadResponse is the JSON response from the upload endpoints.
type uploadResponse struct {
	URL string `json:"url"`
}

// uploadFile posts the file at path as a multipart "file" field.
func (c *Client) uploadFile(ctx context.Context, apiPath, filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("building multipart form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("reading document: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPath, &body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.setCommonHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", c.decodeError(resp)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("parsing upload response: %w", err)
	}

	c.logger.Debug("document uploaded", "endpoint", apiPath, "url", out.URL)
	return out.URL, nil
}
