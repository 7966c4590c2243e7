// Package ipfs pins token logos through Pinata and turns ipfs:// URIs into
// gateway URLs.
package ipfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/tickertool/ticker-tool/internal/constants"
)

const DefaultPinataEndpoint = "https://api.pinata.cloud/pinning/pinFileToIPFS"

// ErrNotConfigured is returned when no Pinata JWT is set.
var ErrNotConfigured = errors.New("ipfs upload is not configured")

type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

type PinataUploader struct {
	httpClient *http.Client
	endpoint   string
	jwt        string
}

func NewPinataUploader(endpoint, jwt string) *PinataUploader {
	if strings.TrimSpace(endpoint) == "" {
		endpoint = DefaultPinataEndpoint
	}
	return &PinataUploader{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		endpoint:   endpoint,
		jwt:        strings.TrimSpace(jwt),
	}
}

type pinResponse struct {
	IpfsHash  string `json:"IpfsHash"`
	PinSize   int64  `json:"PinSize"`
	Timestamp string `json:"Timestamp"`
}

// Upload posts r as the multipart "file" field and returns the CID.
func (u *PinataUploader) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if u.jwt == "" {
		return "", ErrNotConfigured
	}
	if strings.TrimSpace(filename) == "" {
		filename = "logo"
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+u.jwt)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("pinFileToIPFS: status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var out pinResponse
	if err := json.Unmarshal(bodyBytes, &out); err != nil {
		return "", fmt.Errorf("decode pin response: %w", err)
	}
	if out.IpfsHash == "" {
		return "", fmt.Errorf("pin response has no IpfsHash")
	}
	return out.IpfsHash, nil
}

func URI(cid string) string {
	return constants.IPFSScheme + strings.TrimSpace(cid)
}

// GatewayURL rewrites ipfs://<cid> to gateway+<cid>. Other URLs pass through.
func GatewayURL(gateway, uri string) string {
	uri = strings.TrimSpace(uri)
	if !strings.HasPrefix(uri, constants.IPFSScheme) {
		return uri
	}
	if gateway == "" {
		gateway = constants.DefaultIPFSGateway
	}
	if !strings.HasSuffix(gateway, "/") {
		gateway += "/"
	}
	return gateway + strings.TrimPrefix(uri, constants.IPFSScheme)
}
