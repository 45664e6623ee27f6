package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrInvalidFrame = &AppError{
		Code:       "INVALID_FRAME",
		Message:    "Frame is not valid Base64",
		StatusCode: 400,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Frame data is not a decodable image",
		StatusCode: 400,
	}

	ErrFrameTooLarge = &AppError{
		Code:       "FRAME_TOO_LARGE",
		Message:    "Frame exceeds the maximum accepted size",
		StatusCode: 413,
	}

	ErrAnalyzerUnavailable = &AppError{
		Code:       "ANALYZER_UNAVAILABLE",
		Message:    "Face analysis backend is unavailable",
		StatusCode: 502,
	}

	ErrPipelineNotLoaded = &AppError{
		Code:       "PIPELINE_NOT_LOADED",
		Message:    "Supplementary classifier pipeline is not loaded",
		StatusCode: 503,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrSampleNotFound = &AppError{
		Code:       "SAMPLE_NOT_FOUND",
		Message:    "Training sample not found",
		StatusCode: 404,
	}

	ErrSampleExists = &AppError{
		Code:       "SAMPLE_ALREADY_EXISTS",
		Message:    "Training sample with this content hash already exists",
		StatusCode: 409,
	}
)
