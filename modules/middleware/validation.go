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
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	nethttpmiddleware "github.com/oapi-codegen/nethttp-middleware"
)

// ValidationErrorHandler writes the response for a request that failed OpenAPI validation.
type ValidationErrorHandler func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, statusCode int)

// SpecLoadErrorHandler writes the response when the OpenAPI document could not be loaded.
type SpecLoadErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type specEntry struct {
	once sync.Once
	doc  *openapi3.T
	err  error
}

var specs sync.Map // map[string]*specEntry

// LoadSpec parses and validates the OpenAPI document at specPath once per path.
func LoadSpec(fsys fs.FS, specPath string) (*openapi3.T, error) {
	v, _ := specs.LoadOrStore(specPath, &specEntry{})
	entry := v.(*specEntry)
	entry.once.Do(func() {
		data, err := fs.ReadFile(fsys, specPath)
		if err != nil {
			entry.err = fmt.Errorf("openapi: read %s: %w", specPath, err)
			return
		}
		loader := openapi3.NewLoader()
		doc, err := loader.LoadFromData(data)
		if err != nil {
			entry.err = fmt.Errorf("openapi: parse %s: %w", specPath, err)
			return
		}
		if err := doc.Validate(loader.Context); err != nil {
			entry.err = fmt.Errorf("openapi: invalid %s: %w", specPath, err)
			return
		}
		entry.doc = doc
	})
	return entry.doc, entry.err
}

// OpenAPIValidation validates requests against the document at specPath.
// Schema violations in bodies are reported as 422, everything else as 400.
func OpenAPIValidation(
	specFS fs.FS,
	specPath string,
	errorHandler ValidationErrorHandler,
	loadErrorHandler SpecLoadErrorHandler,
) func(http.Handler) http.Handler {
	spec, err := LoadSpec(specFS, specPath)
	if err != nil {
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				loadErrorHandler(w, r, err)
			})
		}
	}

	opts := &nethttpmiddleware.Options{
		Options: openapi3filter.Options{
			MultiError:         true,
			AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		},
		DoNotValidateServers:  true,
		SilenceServersWarning: true,
		ErrorHandlerWithOpts: func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, eopts nethttpmiddleware.ErrorHandlerOpts) {
			status := eopts.StatusCode
			if status == 0 {
				status = http.StatusBadRequest
			}
			if InferBodyValidationStatus(err) == http.StatusUnprocessableEntity {
				status = http.StatusUnprocessableEntity
			}
			errorHandler(ctx, err, w, r, status)
		},
	}

	return nethttpmiddleware.OapiRequestValidatorWithOptions(spec, opts)
}
