package httperr

import "errors"

// BusinessError is a domain failure the API reports by code. Detail carries
// the offending values (column names, file type) when there are any.
type BusinessError struct {
	Code   string
	Detail string
}

func (e BusinessError) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return e.Code + ": " + e.Detail
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func ErrBusinessDetail(code, detail string) error {
	return BusinessError{Code: code, Detail: detail}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// BusinessCode extracts the code of a wrapped BusinessError.
func BusinessCode(err error) (string, bool) {
	be, ok := asBusiness(err)
	return be.Code, ok
}

// BusinessDetail extracts the detail of a wrapped BusinessError.
func BusinessDetail(err error) string {
	be, _ := asBusiness(err)
	return be.Detail
}

func asBusiness(err error) (BusinessError, bool) {
	var be BusinessError
	ok := errors.As(err, &be)
	return be, ok
}
