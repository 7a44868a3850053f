package request

import "time"

// Outcome is the result of a single dispatch. A response that was received and
// read is a success whatever its status code; StatusCode is informational.
type Outcome struct {
	OK         bool
	Body       string
	Status     string
	StatusCode int
	Message    string
	Duration   time.Duration
}

func Success(body string, statusCode int, status string) Outcome {
	return Outcome{OK: true, Body: body, StatusCode: statusCode, Status: status}
}

func Failure(message string) Outcome {
	return Outcome{Message: message}
}

func (o Outcome) Failed() bool {
	return !o.OK
}
