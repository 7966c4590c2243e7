package ipfs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadPostsMultipartWithBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer jwt-123", r.Header.Get("Authorization"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "logo.png", hdr.Filename)
		assert.Equal(t, "PNGDATA", string(b))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"IpfsHash":"QmCid","PinSize":7,"Timestamp":"2024-01-01T00:00:00Z"}`))
	}))
	defer srv.Close()

	u := NewPinataUploader(srv.URL, "jwt-123")
	cid, err := u.Upload(context.Background(), "logo.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "QmCid", cid)
}

func TestUploadErrors(t *testing.T) {
	_, err := NewPinataUploader("", "").Upload(context.Background(), "x", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad jwt", http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err = NewPinataUploader(srv.URL, "jwt").Upload(context.Background(), "x", strings.NewReader("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestGatewayURL(t *testing.T) {
	assert.Equal(t, "ipfs://QmCid", URI("QmCid"))
	assert.Equal(t, "https://gateway.pinata.cloud/ipfs/QmCid", GatewayURL("", "ipfs://QmCid"))
	assert.Equal(t, "https://gw.example/ipfs/QmCid", GatewayURL("https://gw.example/ipfs", "ipfs://QmCid"))
	assert.Equal(t, "https://cdn.example/logo.png", GatewayURL("", "https://cdn.example/logo.png"))
	assert.Equal(t, "", GatewayURL("", ""))
}
