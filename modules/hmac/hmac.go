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

package hmac

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

type HMACConfig struct {
	Secret string `env:"SECRET,notEmpty" validate:"min=16"`
}

// HMACSigner produces compact tokens of the form base64url(payload) + "." + base64url(mac).
type HMACSigner struct {
	key []byte
}

var (
	ErrMissingKey   = errors.New("missing hmac key")
	ErrInvalidToken = errors.New("invalid token")
)

var enc = base64.RawURLEncoding

func NewHMACSigner(secKey []byte) (*HMACSigner, error) {
	if len(secKey) == 0 {
		return nil, ErrMissingKey
	}
	key := make([]byte, len(secKey))
	copy(key, secKey)
	return &HMACSigner{key: key}, nil
}

func (h *HMACSigner) mac(payloadB64 string) []byte {
	m := hmac.New(sha256.New, h.key)
	_, _ = m.Write([]byte(payloadB64))
	return m.Sum(nil)
}

func (h *HMACSigner) Sign(payload []byte) (string, error) {
	payloadB64 := enc.EncodeToString(payload)
	return payloadB64 + "." + enc.EncodeToString(h.mac(payloadB64)), nil
}

// Verify checks the signature and returns the decoded payload.
func (h *HMACSigner) Verify(token string) ([]byte, error) {
	payloadB64, sigB64, ok := strings.Cut(token, ".")
	if !ok || payloadB64 == "" || strings.Contains(sigB64, ".") {
		return nil, ErrInvalidToken
	}
	got, err := enc.DecodeString(sigB64)
	if err != nil || !hmac.Equal(h.mac(payloadB64), got) {
		return nil, ErrInvalidToken
	}
	payload, err := enc.DecodeString(payloadB64)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return payload, nil
}
