//go:build !windows

package dokan

import "github.com/pkg/errors"

func loadDriver() (driver, error) {
	return nil, errors.Wrap(ErrDriverMissing, "dokan1.dll is only available on Windows")
}
