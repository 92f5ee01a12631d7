package testing

import "strings"

// CheckErrors collects the failed checks of a file tree.
type CheckErrors []error

func (e CheckErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "\n")
}

func (e *CheckErrors) add(err error) {
	if err != nil {
		*e = append(*e, err)
	}
}

func (e CheckErrors) errOrNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
