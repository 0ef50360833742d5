package httpapi

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/pspoerri/fosfix/internal/api"
	"github.com/pspoerri/fosfix/internal/resection"
)

// APIError is the JSON body of every failed request.
type APIError struct {
	api.ErrorResponse
	RequestID string `json:"request_id,omitempty"`
}

// ErrorHandler renders err as an APIError. Engine errors are classified by
// kind; fiber errors keep their status.
func ErrorHandler(c *fiber.Ctx, err error) error {
	resp := api.NewErrorResponse(err)

	var fe *fiber.Error
	if errors.As(err, &fe) {
		resp.Code = fe.Code
		resp.Kind = resection.KindUnknown.String()
		if fe.Code >= 400 && fe.Code < 500 {
			resp.Kind = resection.KindInvalidInput.String()
		}
		resp.Message = fe.Message
	}

	reqID, _ := c.Locals("requestid").(string)
	return c.Status(resp.Code).JSON(APIError{ErrorResponse: resp, RequestID: reqID})
}

func badRequest(format string, args ...any) error {
	return &resection.Error{
		Kind: resection.KindInvalidInput,
		Msg:  "invalid request",
		Err:  fmt.Errorf(format, args...),
	}
}
