package service

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/gradebook-api/internal/models"
	appErrors "github.com/noah-isme/gradebook-api/pkg/errors"
)

func requireCapability(viewer models.Viewer, capability models.Capability) error {
	if !viewer.Can(capability) {
		return appErrors.Clone(appErrors.ErrForbidden, "missing permission "+string(capability))
	}
	return nil
}

func requireClass(viewer models.Viewer, className string) error {
	if !viewer.CanAccessClass(className) {
		return appErrors.Clone(appErrors.ErrForbidden, "class "+className+" is not assigned to you")
	}
	return nil
}

func requireScope(viewer models.Viewer, className, subject string) error {
	if err := requireClass(viewer, className); err != nil {
		return err
	}
	if subject != "" && !viewer.CanAccessSubject(subject) {
		return appErrors.Clone(appErrors.ErrForbidden, "subject "+subject+" is not assigned to you")
	}
	return nil
}

// validationError wraps err as a validation failure, listing the offending fields when err
// comes from the validator.
func validationError(err error, message string) error {
	appErr := appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErr
	}
	fields := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		fields[fieldName(fe.Field())] = fe.Tag()
	}
	return appErr.WithFields(fields)
}

// fieldName turns a Go field name such as ClassName into class_name.
func fieldName(name string) string {
	var b strings.Builder
	prevLower := false
	for _, r := range name {
		upper := r >= 'A' && r <= 'Z'
		if upper {
			if prevLower {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		prevLower = !upper
		b.WriteRune(r)
	}
	return b.String()
}
