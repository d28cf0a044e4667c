package quotes

import "errors"

func isUnavailable(err error) bool {
	return errors.Is(err, ErrDataUnavailable)
}
