package shelter

import "errors"

// Sentinel errors returned by shelter operations.
//
// Callers should use [errors.Is] to check error types. Validation errors
// wrap [ErrInvalidOption] or [ErrUnknownOption] and name the offending
// option and the violated constraint.
var (
	// ErrStrategyNotFound indicates a strategy name is not registered.
	// The error text lists the currently registered names.
	ErrStrategyNotFound = errors.New("shelter: strategy not found")

	// ErrMissingApply indicates a strategy definition without an Apply
	// function was passed to Define.
	ErrMissingApply = errors.New("shelter: strategy definition missing apply")

	// ErrInvalidOption indicates an option value violated its schema
	// (wrong type, out of bounds, not in the enumeration).
	ErrInvalidOption = errors.New("shelter: invalid option")

	// ErrUnknownOption indicates an option name not present in the
	// strategy's schema.
	ErrUnknownOption = errors.New("shelter: unknown option")

	// Configuration file errors.
	ErrConfigFileNotFound = errors.New("shelter: config file not found")
	ErrConfigFileRead     = errors.New("shelter: cannot read config file")
	ErrConfigInvalid      = errors.New("shelter: invalid config file")

	// ErrMaskCharInvalid indicates mask_char is not exactly one character.
	ErrMaskCharInvalid = errors.New("shelter: mask_char must be a single character")

	// ErrDefaultStrategyEmpty indicates default_strategy is empty.
	ErrDefaultStrategyEmpty = errors.New("shelter: default_strategy cannot be empty")

	// ErrCacheCapacityInvalid indicates cache_capacity is below 1.
	ErrCacheCapacityInvalid = errors.New("shelter: cache_capacity must be at least 1")
)
