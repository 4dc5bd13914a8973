package verification

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/thereayou/wallet-profile/internal/config"
)

const (
	HeaderDigest = "X-Auth-Digest"
	HeaderSDKID  = "X-Sdk-Id"

	agePath    = "/age"
	maxRetries = 2
)

var (
	ErrInvalidImage = errors.New("image must be base64 encoded")
	ErrInvalidKey   = errors.New("unsupported private key")
)

// APIError ответ сервиса не 2xx
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("age verification api: status %d: %s", e.Status, e.Body)
}

type AgeScore struct {
	Age      float64 `json:"age"`
	StDev    float64 `json:"st_dev"`
	AgeCheck string  `json:"age_check"`
}

type Result struct {
	Age AgeScore `json:"age"`
}

func (r *Result) Passed() bool {
	return strings.EqualFold(r.Age.AgeCheck, "pass")
}

type request struct {
	Image     string `json:"img"`
	Threshold int    `json:"threshold"`
	Operator  string `json:"operator"`
}

type Client struct {
	baseURL   *url.URL
	sdkID     string
	key       *rsa.PrivateKey
	threshold int
	operator  string
	http      *http.Client
	backoff   func() retry.Backoff
}

func NewClient(cfg config.VerificationConfig, key *rsa.PrivateKey) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   base,
		sdkID:     cfg.SDKID,
		key:       key,
		threshold: cfg.Threshold,
		operator:  cfg.Operator,
		http:      &http.Client{Timeout: timeout},
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(maxRetries, retry.NewExponential(200*time.Millisecond))
		},
	}, nil
}

// NewFromConfig возвращает nil без ошибки, если проверка возраста не настроена
func NewFromConfig(cfg config.VerificationConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, nil
	}
	pemBytes, err := os.ReadFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("read key: %w", err)
	}
	key, err := ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, err
	}
	return NewClient(cfg, key)
}

// ParsePrivateKey понимает PKCS#1 и PKCS#8
func ParsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ErrInvalidKey
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, ErrInvalidKey
	}
	return key, nil
}

// NormalizeImage убирает data-URL префикс и проверяет base64
func NormalizeImage(image string) (string, error) {
	image = strings.TrimSpace(image)
	if i := strings.Index(image, ";base64,"); strings.HasPrefix(image, "data:") && i >= 0 {
		image = image[i+len(";base64,"):]
	}
	if image == "" {
		return "", ErrInvalidImage
	}
	if _, err := base64.StdEncoding.DecodeString(image); err != nil {
		return "", ErrInvalidImage
	}
	return image, nil
}

// EstimateAge отправляет фото в сервис и возвращает оценку возраста
func (c *Client) EstimateAge(ctx context.Context, image string) (*Result, error) {
	img, err := NormalizeImage(image)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(request{Image: img, Threshold: c.threshold, Operator: c.operator})
	if err != nil {
		return nil, err
	}

	var result Result
	err = retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		resp, err := c.do(ctx, body)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return retry.RetryableError(err)
		}

		if resp.StatusCode >= 500 {
			return retry.RetryableError(&APIError{Status: resp.StatusCode, Body: string(payload)})
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &APIError{Status: resp.StatusCode, Body: string(payload)}
		}
		return json.Unmarshal(payload, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) do(ctx context.Context, body []byte) (*http.Response, error) {
	endpoint := *c.baseURL
	endpoint.Path += agePath
	q := url.Values{}
	q.Set("sdkId", c.sdkID)
	q.Set("nonce", uuid.NewString())
	q.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	endpoint.RawQuery = q.Encode()

	digest, err := Sign(c.key, http.MethodPost, endpoint.RequestURI(), body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderSDKID, c.sdkID)
	req.Header.Set(HeaderDigest, digest)

	return c.http.Do(req)
}

// SigningPayload строка вида METHOD&path?query&base64(body)
func SigningPayload(method, requestURI string, body []byte) string {
	payload := method + "&" + requestURI
	if len(body) > 0 {
		payload += "&" + base64.StdEncoding.EncodeToString(body)
	}
	return payload
}

func Sign(key *rsa.PrivateKey, method, requestURI string, body []byte) (string, error) {
	hash := sha256.Sum256([]byte(SigningPayload(method, requestURI, body)))
	sig, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA256, hash[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}
