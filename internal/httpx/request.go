package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"educonnect/placement-service/internal/domain"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	maxBodyBytes = 1 << 20
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// List is the paginated envelope for list endpoints.
type List[T any] struct {
	Items         []T  `json:"items"`
	Total         int  `json:"total"`
	Skip          int  `json:"skip"`
	Limit         int  `json:"limit"`
	HasFullAccess bool `json:"has_full_access"`
}

// NewList builds a List, replacing a nil slice with an empty one.
func NewList[T any](items []T, total int, p domain.Page, full bool) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Items: items, Total: total, Skip: p.Skip, Limit: p.Limit, HasFullAccess: full}
}

// Page parses skip/limit query parameters.
func Page(r *http.Request) (domain.Page, error) {
	p := domain.Page{Skip: 0, Limit: DefaultLimit}
	q := r.URL.Query()

	if s := q.Get("skip"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 {
			return p, domain.Invalid("skip must be a non-negative integer")
		}
		p.Skip = v
	}
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			return p, domain.Invalid("limit must be a positive integer")
		}
		if v > MaxLimit {
			v = MaxLimit
		}
		p.Limit = v
	}
	return p, nil
}

// Decode reads a JSON body into dst and validates its `validate` tags.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.Invalid("request body is required")
		}
		return domain.Invalid("invalid JSON body: %v", err)
	}
	return Validate(dst)
}

// Validate runs struct validation and converts failures into a readable
// ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Invalid("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return &domain.ValidationError{Msg: strings.Join(msgs, "; ")}
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "uuid", "uuid4":
		return field + " must be a valid id"
	case "email":
		return field + " must be a valid email address"
	case "url":
		return field + " must be a valid URL"
	}
	return fmt.Sprintf("%s is invalid (%s)", field, fe.Tag())
}

// PathID reads a uuid path value.
func PathID(r *http.Request, name string) (string, error) {
	v := r.PathValue(name)
	if _, err := uuid.Parse(v); err != nil {
		return "", domain.Invalid("%s must be a valid id", name)
	}
	return v, nil
}

// QueryID reads an optional uuid query parameter.
func QueryID(r *http.Request, name string) (string, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return "", nil
	}
	if _, err := uuid.Parse(v); err != nil {
		return "", domain.Invalid("%s must be a valid id", name)
	}
	return v, nil
}
