// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/vechain/poe/builtin/reverts"
	"github.com/vechain/poe/poe"
)

type httpError struct {
	cause  error
	status int
}

func (e *httpError) Error() string {
	return e.cause.Error()
}

// HTTPError create an error with http status code.
func HTTPError(cause error, status int) error {
	return &httpError{
		cause:  cause,
		status: status,
	}
}

// BadRequest convenience method to create http bad request error.
func BadRequest(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusBadRequest,
	}
}

// NotFound convenience method to create http not found error.
func NotFound(cause error) error {
	return &httpError{
		cause:  cause,
		status: http.StatusNotFound,
	}
}

// StatusOf maps a contract revert to the http status responded for it.
func StatusOf(err error) int {
	kind, ok := reverts.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case reverts.NotFound:
		return http.StatusNotFound
	case reverts.Unauthorized:
		return http.StatusForbidden
	case reverts.InvalidParameter, reverts.InvalidAddress:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// HandlerFunc like http.HandlerFunc, bu it returns an error.
// If the returned error is httpError type, httpError.status will be responded,
// a contract revert is responded with StatusOf, otherwise http.StatusInternalServerError responded.
type HandlerFunc func(http.ResponseWriter, *http.Request) error

// WrapHandlerFunc convert HandlerFunc to http.HandlerFunc.
func WrapHandlerFunc(f HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := f(w, r)
		if err == nil {
			return
		}
		var he *httpError
		if errors.As(err, &he) {
			if he.cause != nil {
				http.Error(w, he.cause.Error(), he.status)
			} else {
				w.WriteHeader(he.status)
			}
			return
		}
		http.Error(w, err.Error(), StatusOf(err))
	}
}

// content types
const (
	JSONContentType = "application/json; charset=utf-8"
)

// ParseJSON parse a JSON object using strict mode.
func ParseJSON(r io.Reader, v any) error {
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteJSON response an object in JSON encoding.
func WriteJSON(w http.ResponseWriter, obj any) error {
	w.Header().Set("Content-Type", JSONContentType)
	return json.NewEncoder(w).Encode(obj)
}

// ParseAddress parses a path or query parameter, name is used in the error.
func ParseAddress(s, name string) (poe.Address, error) {
	addr, err := poe.ParseAddress(s)
	if err != nil {
		return poe.Address{}, BadRequest(errors.WithMessage(err, name))
	}
	return addr, nil
}

// ParseOptionalAddress returns nil for an empty parameter.
func ParseOptionalAddress(s, name string) (*poe.Address, error) {
	if s == "" {
		return nil, nil
	}
	addr, err := ParseAddress(s, name)
	if err != nil {
		return nil, err
	}
	return &addr, nil
}

// ParseLimit reads the optional "limit" query parameter.
func ParseLimit(r *http.Request) (*uint32, error) {
	s := r.URL.Query().Get("limit")
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, BadRequest(errors.WithMessage(err, "limit"))
	}
	limit := uint32(n)
	return &limit, nil
}

// M shortcut for type map[string]any.
type M map[string]any
