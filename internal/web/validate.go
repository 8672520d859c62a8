package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/villagegov/portal/internal/comment"
)

// maxBodyBytes caps request bodies; content is bounded well below this.
const maxBodyBytes = 64 << 10

type fieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

type createCommentRequest struct {
	TargetType string `json:"target_type" validate:"required,target_type"`
	Content    string `json:"content" validate:"required,max=5000"`
}

type updateCommentRequest struct {
	Content string `json:"content" validate:"required,max=5000"`
}

// normalizer is implemented by request bodies that clean up their fields
// before validation.
type normalizer interface {
	normalize()
}

func (req *createCommentRequest) normalize() {
	req.TargetType = strings.ToUpper(strings.TrimSpace(req.TargetType))
	req.Content = strings.TrimSpace(req.Content)
}

func (req *updateCommentRequest) normalize() {
	req.Content = strings.TrimSpace(req.Content)
}

func newValidator() (*validator.Validate, error) {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := v.RegisterValidation("target_type", func(fl validator.FieldLevel) bool {
		return comment.TargetType(fl.Field().String()).Valid()
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// decodeBody reads a JSON body into dst and validates it. On failure it
// writes the response and returns false.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		apiFieldErrors(w, []fieldError{{Message: "invalid JSON body"}})
		return false
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			apiError(w, "invalid request", http.StatusBadRequest)
			return false
		}
		apiFieldErrors(w, toFieldErrors(verrs))
		return false
	}
	return true
}

func toFieldErrors(verrs validator.ValidationErrors) []fieldError {
	out := make([]fieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fieldError{Path: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "target_type":
		return "must be one of NEWS, AGENDA, PRODUCT, ACHIEVEMENT"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
