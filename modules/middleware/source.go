// Copyright 2025 Nhat-Nguyen Nguyen
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"forum/modules/clock"
)

// SourceHeader carries the signed token identifying a trusted caller.
const SourceHeader = "X-Request-Source"

type (
	// TokenVerifier returns the payload of a token it signed.
	TokenVerifier interface {
		Verify(token string) ([]byte, error)
	}

	// SourceClaims is the payload of a request source token.
	SourceClaims struct {
		Issuer    string `json:"iss"`
		ExpiresAt int64  `json:"exp"`
	}

	// SourceRejectedHandler writes the response for an untrusted request.
	SourceRejectedHandler func(w http.ResponseWriter, r *http.Request, reason string)
)

// ValidateRequestSource admits only requests carrying an unexpired token signed
// by verifier. When issuers is non-empty the token's issuer must be listed.
func ValidateRequestSource(
	verifier TokenVerifier,
	clk clock.Clock,
	issuers []string,
	rejected SourceRejectedHandler,
) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reason := checkSource(r, verifier, clk, issuers)
			if reason != "" {
				slog.WarnContext(r.Context(), "request source rejected",
					slog.String("middleware", "request_source"),
					slog.String("path", r.URL.Path),
					slog.String("reason", reason),
				)
				rejected(w, r, reason)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func checkSource(r *http.Request, verifier TokenVerifier, clk clock.Clock, issuers []string) string {
	token := r.Header.Get(SourceHeader)
	if token == "" {
		return "missing source token"
	}
	payload, err := verifier.Verify(token)
	if err != nil {
		return "invalid source token"
	}
	var claims SourceClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "malformed source token"
	}
	if claims.ExpiresAt == 0 || !clk.Now().Before(time.Unix(claims.ExpiresAt, 0)) {
		return "expired source token"
	}
	if len(issuers) > 0 && !slices.Contains(issuers, claims.Issuer) {
		return "unknown source"
	}
	return ""
}
