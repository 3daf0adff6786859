package cli

import "errors"

// Hash function names accepted by --hash and the "hash" config key.
const (
	HashMD5    = "md5"
	HashXXHash = "xxhash"
)

var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigFileRead     = errors.New("cannot read config file")
	errConfigInvalid      = errors.New("invalid config file")
	errSizeNotPositive    = errors.New("size must be a positive integer")
	errUnknownHash        = errors.New("unknown hash function")
	errUnexpectedArg      = errors.New("unexpected argument")
	errStdinRead          = errors.New("cannot read standard input")
)
