package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
)

// DetectEmotionBody represents the request body for emotion detection
type DetectEmotionBody struct {
	Frame string `json:"frame" example:"/9j/4AAQSkZJRgABAQAAAQ..."`
}

// DetectEmotionResult represents the response for emotion detection
type DetectEmotionResult struct {
	Emotion      string  `json:"emotion" example:"happy"`
	Confidence   float64 `json:"confidence" example:"0.87"`
	FaceDetected bool    `json:"face_detected" example:"true"`
	Source       string  `json:"source" example:"pretrained"`
}

// HealthResult represents the health check response
type HealthResult struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"INVALID_FRAME"`
	Message string `json:"message" example:"Frame is not valid Base64"`
}

// NewSwagger creates and configures the Swagger documentation
func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Emotion Detection API",
		Version:     "v0.1.0",
		Description: "Facial emotion recognition service. Accepts Base64-encoded webcam frames and returns a bounded emotion label with a confidence score.",
		Host:        "localhost:8000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		endpoint.New(
			endpoint.POST,
			"/detect_emotion",
			endpoint.WithTags("Emotion"),
			endpoint.WithSummary("Detect the emotion on the largest face in a frame"),
			endpoint.WithDescription("Decodes the Base64 frame, finds the largest face, and classifies its emotion. A frame with no face is a successful response with face_detected=false."),
			endpoint.WithBody(DetectEmotionBody{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DetectEmotionResult{}, "200", "Detection completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "INVALID_FRAME", Message: "Frame is not valid Base64"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "FRAME_TOO_LARGE", Message: "Frame exceeds the maximum accepted size"}, "413", "Payload Too Large"),
				response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity"),
				response.New(ErrorResponse{Code: "RATE_LIMIT_EXCEEDED", Message: "Rate limit exceeded"}, "429", "Too Many Requests"),
				response.New(ErrorResponse{Code: "ANALYZER_UNAVAILABLE", Message: "Face analysis backend is unavailable"}, "502", "Bad Gateway"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResult{}, "200", "Service is alive"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("Reports ready once the database, when configured, is reachable."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResult{}, "200", "Service is ready"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResult{Status: "unavailable"}, "503", "Service Unavailable"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}
