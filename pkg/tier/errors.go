package tier

import "errors"

var (
	ErrInvalidTier        = errors.New("invalid subscription tier")
	ErrFeatureUnavailable = errors.New("feature is not registered")
	ErrInvalidCatalog     = errors.New("invalid feature catalog")
	ErrFailedToLoad       = errors.New("failed to load feature catalog")
)
