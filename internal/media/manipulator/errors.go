package manipulator

import "github.com/pkg/errors"

// ErrNotApplicableFormat is returned when the container format cannot
// carry the metadata an operation works on.
var ErrNotApplicableFormat = errors.New("manipulator format not applicable")

// ErrNoOrientationSegment is returned for a JPEG without an EXIF segment.
var ErrNoOrientationSegment = errors.New("manipulator no orientation segment")

var ErrMalformedPayload = errors.New("manipulator malformed payload")
var ErrTransformationFailed = errors.New("manipulator transformation failed")

// IsSkippable reports whether err only says the payload has nothing to normalize
func IsSkippable(err error) bool {
	return errors.Is(err, ErrNotApplicableFormat) || errors.Is(err, ErrNoOrientationSegment)
}
