package deepface

import "errors"

var (
	ErrAnalyzerUnavailable = errors.New("deepface service unavailable")
	ErrInvalidResponse     = errors.New("invalid response from deepface")
	ErrNoFaceInResponse    = errors.New("no face data in deepface response")
	ErrNoEmotionInResponse = errors.New("no emotion data in deepface response")
)
