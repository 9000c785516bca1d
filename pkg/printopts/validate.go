package printopts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid print options")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field values and the date range.
func Validate(o *PrintOptions) error {
	if err := validate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %q (got %v)", fe.Namespace(), fe.Tag(), fe.Value()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if o.StartDate != nil && o.EndDate != nil && o.EndDate.Before(*o.StartDate) {
		// Compare days, since the end is stretched to the end of its day.
		sy, sm, sd := o.StartDate.Date()
		ey, em, ed := o.EndDate.Date()
		if ey < sy || (ey == sy && (em < sm || (em == sm && ed < sd))) {
			return fmt.Errorf("%w: endDate before startDate", ErrInvalid)
		}
	}
	return nil
}
