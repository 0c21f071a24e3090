package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"oss-callback/internal/common/errors"
	"oss-callback/internal/common/logging"
	"oss-callback/internal/signature"
)

const (
	// MsgMissingHeaders is returned when either callback header is absent.
	MsgMissingHeaders = "Failed: authorization or x-oss-pub-key-url field"
	// MsgVerifyFailed is returned when the signature does not match.
	MsgVerifyFailed = "Failed: verify"
)

var okBody = []byte(`{"Status":"OK"}`)

// KeyResolver fetches the public key named by a callback's key URL header.
type KeyResolver interface {
	Resolve(ctx context.Context, headerValue string) (signature.PublicKeyMaterial, error)
}

// BreakerStatus is the view of the key fetch circuit breaker the health report needs.
type BreakerStatus interface {
	Name() string
	IsOpen() bool
}

// CallbackConfig bounds what a single callback may consume.
type CallbackConfig struct {
	MaxBodyBytes    int64
	BodyReadTimeout time.Duration
}

// DefaultCallbackConfig returns the limits used when none are configured
func DefaultCallbackConfig() CallbackConfig {
	return CallbackConfig{
		MaxBodyBytes:    1 << 20,
		BodyReadTimeout: 10 * time.Second,
	}
}

// CallbackHandler verifies upload callbacks sent by the storage provider.
// It holds no per-callback state; every request is verified from scratch.
type CallbackHandler struct {
	resolver KeyResolver
	config   CallbackConfig
	logger   logging.Logger
	breaker  BreakerStatus
}

// NewCallbackHandler creates a handler that resolves keys through resolver.
func NewCallbackHandler(resolver KeyResolver, config CallbackConfig, logger logging.Logger) *CallbackHandler {
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultCallbackConfig().MaxBodyBytes
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &CallbackHandler{
		resolver: resolver,
		config:   config,
		logger:   logger,
	}
}

// ReportBreaker includes b's state in the health report.
func (h *CallbackHandler) ReportBreaker(b BreakerStatus) {
	h.breaker = b
}

// HandleCallback verifies one callback and answers 200 {"Status":"OK"} or 400 <reason>.
func (h *CallbackHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	authHeader := r.Header.Get(signature.HeaderAuthorization)
	keyHeader := r.Header.Get(signature.HeaderPubKeyURL)

	if authHeader == "" || keyHeader == "" {
		err := errors.MissingHeaderError(MsgMissingHeaders)
		result := signature.Classify(err)
		h.respond(w, result)
		h.logOutcome(ctx, result, err, "", start)
		return
	}

	h.limitBody(w, r)

	err := h.verify(ctx, r, authHeader, keyHeader)
	result := signature.Classify(err)
	h.respond(w, result)
	h.logOutcome(ctx, result, err, keyHost(keyHeader), start)
}

// verify runs key resolution, signature extraction and canonical string
// construction concurrently. The first failure aborts the others.
func (h *CallbackHandler) verify(ctx context.Context, r *http.Request, authHeader, keyHeader string) error {
	var (
		key       signature.PublicKeyMaterial
		sig       signature.SignatureToken
		canonical []byte
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		k, err := h.resolver.Resolve(gctx, keyHeader)
		if err != nil {
			return err
		}
		key = k
		return nil
	})

	g.Go(func() error {
		s, err := signature.ExtractSignature(authHeader)
		if err != nil {
			return err
		}
		sig = s
		return nil
	})

	g.Go(func() error {
		body, err := signature.ReadBody(r.Body, h.config.MaxBodyBytes)
		if err != nil {
			return err
		}
		c, err := signature.BuildCanonical(r.URL.EscapedPath(), signature.QueryString(r.URL), body)
		if err != nil {
			return err
		}
		canonical = c
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	if !signature.Verify(key, sig, canonical) {
		return errors.VerificationError(MsgVerifyFailed)
	}
	return nil
}

// limitBody bounds the request body by size and, where the connection
// supports it, by a read deadline.
func (h *CallbackHandler) limitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)

	if h.config.BodyReadTimeout <= 0 {
		return
	}
	rc := http.NewResponseController(w)
	if err := rc.SetReadDeadline(time.Now().Add(h.config.BodyReadTimeout)); err != nil && !stderrors.Is(err, http.ErrNotSupported) {
		h.logger.WithContext(r.Context()).Debug("Could not set body read deadline", logging.Err(err))
	}
}

func (h *CallbackHandler) respond(w http.ResponseWriter, result signature.Result) {
	if result.Outcome == signature.Verified {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(okBody)))
		w.WriteHeader(http.StatusOK)
		w.Write(okBody)
		return
	}

	body := []byte(result.Reason)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusBadRequest)
	w.Write(body)
}

func (h *CallbackHandler) logOutcome(ctx context.Context, result signature.Result, err error, host string, start time.Time) {
	fields := []logging.Field{
		logging.String("outcome", result.Outcome.String()),
		logging.Duration("duration", time.Since(start)),
	}
	if host != "" {
		fields = append(fields, logging.String("key_host", host))
	}

	logger := h.logger.WithContext(ctx)
	if result.Outcome == signature.Verified {
		logger.Info("Callback verified", fields...)
		return
	}

	fields = append(fields,
		logging.String("reason", result.Reason),
		logging.String("error_type", string(errors.GetType(err))),
		logging.Err(err),
	)
	logger.Warn("Callback refused", fields...)
}

// keyHost returns the host of the key URL header for logging, or "".
func keyHost(headerValue string) string {
	u, err := signature.DecodeKeyURL(headerValue)
	if err != nil {
		return ""
	}
	return u.Host
}

// HandleNonCallback answers anything that is not a callback with an empty 200.
func (h *CallbackHandler) HandleNonCallback(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// HealthCheck reports that the listener is up. An open key fetch breaker
// marks the service degraded.
func (h *CallbackHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
	}

	if h.breaker != nil {
		state := "closed"
		if h.breaker.IsOpen() {
			state = "open"
			health["status"] = "degraded"
		}
		health["breakers"] = map[string]string{h.breaker.Name(): state}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}
