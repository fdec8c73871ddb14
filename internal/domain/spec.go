package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// JobSpec describes one knowledge-source group and the sub-sources to ingest.
// Each sub-source id expands into exactly one remote job.
type JobSpec struct {
	GroupID      string   `json:"group_id" validate:"required"`
	SubSourceIDs []string `json:"sub_source_ids" validate:"min=1,unique,dive,required"`
}

// Validate checks that the spec is structurally usable: a group id, at least
// one sub-source id, no empty or duplicate sub-source ids.
// Returns:
//   - error: descriptive error naming the offending field, or nil.
func (s JobSpec) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Namespace())
	case "min":
		return fmt.Sprintf("%s must contain at least %s entry", fe.Namespace(), fe.Param())
	case "unique":
		return fmt.Sprintf("%s contains duplicate ids", fe.Namespace())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Namespace(), fe.Tag())
	}
}

// JobCount returns the number of jobs the spec expands into.
func (s JobSpec) JobCount() int {
	return len(s.SubSourceIDs)
}
