package model

import "github.com/pkg/errors"

// Error kinds. Pipeline errors wrap one of these with errors.Wrapf, adding the
// object, face or vertex that caused them; test with errors.Is.
var (
	// ErrConfiguration marks input the exporter cannot work with, such as a
	// mesh without an active UV layer.
	ErrConfiguration = errors.New("configuration error")

	// ErrDataIntegrity marks inconsistent input: too many skin influences,
	// unparsable curve paths, references to unknown bones.
	ErrDataIntegrity = errors.New("data integrity error")

	// ErrIO marks a destination that cannot be written.
	ErrIO = errors.New("io error")
)
