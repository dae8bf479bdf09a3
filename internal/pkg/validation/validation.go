// Package validation registers the custom binding tags used by request DTOs.
package validation

import (
	"fmt"
	"strings"
	"sync"

	xerrors "amayalert-service/internal/pkg/errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var (
	once        sync.Once
	registerErr error
)

// Register installs the custom tags on gin's validator. Safe to call more
// than once; every call reports the outcome of the first.
func Register() error {
	once.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			registerErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		if err := v.RegisterValidation("notblank", NotBlank); err != nil {
			registerErr = fmt.Errorf("failed to register notblank: %w", err)
		}
	})
	return registerErr
}

// NotBlank rejects strings made only of whitespace.
func NotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// UUID rejects a non-empty value that is not a UUID. Empty values pass so
// required checks can report them.
func UUID(field, value string) error {
	if value == "" {
		return nil
	}
	if _, err := uuid.Parse(value); err != nil {
		return xerrors.Invalid(field, field+" must be a valid UUID")
	}
	return nil
}
