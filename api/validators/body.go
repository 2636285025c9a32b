package validators

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	pkgerrors "github.com/angelmondragon/stockroom-backend/pkg/errors"
	"github.com/angelmondragon/stockroom-backend/pkg/validation"
)

// MaxBodyBytes caps request bodies read by the decoders.
const MaxBodyBytes = 1 << 20

// DecodeJSONBody decodes a single JSON value into dest, rejecting unknown fields
// and trailing data, then runs struct validation.
func DecodeJSONBody(r *http.Request, dest any) error {
	if err := decodeStrict(r, dest); err != nil {
		return err
	}
	return validation.Struct(dest)
}

// DecodeJSONArray decodes a JSON array and validates every element. Validation
// failures carry the offending element index in their details.
func DecodeJSONArray[T any](r *http.Request) ([]T, error) {
	var items []T
	if err := decodeStrict(r, &items); err != nil {
		return nil, err
	}
	if items == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request body must be a JSON array")
	}
	for i := range items {
		if err := validation.Element(i, &items[i]); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func decodeStrict(r *http.Request, dest any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body is required")
	}
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	raw, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body")
	}
	if len(raw) > MaxBodyBytes {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body too large")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body is required")
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
			WithDetails(map[string]any{"error": decodeMessage(err)})
	}
	if decoder.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must contain a single JSON value")
	}
	return nil
}

func decodeMessage(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field != "" {
			return fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type)
		}
		return fmt.Sprintf("body must be of type %s", typeErr.Type)
	}
	return err.Error()
}
