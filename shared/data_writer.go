package shared

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

var jsonAPI = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

// JSONEncoder and JSONDecoder are plugged into fiber.Config so the whole app
// serializes through sonic.
func JSONEncoder(v interface{}) ([]byte, error) {
	return jsonAPI.Marshal(v)
}

func JSONDecoder(data []byte, v interface{}) error {
	return jsonAPI.Unmarshal(data, v)
}

func ResponseJSON(c *fiber.Ctx, httpCode int, message string, data interface{}) error {
	return c.Status(httpCode).JSON(Response{
		Code:    httpCode,
		Message: message,
		Data:    data,
	})
}

func ResponseOK(c *fiber.Ctx, data interface{}) error {
	return ResponseJSON(c, fiber.StatusOK, "Success", data)
}

func ResponseCreated(c *fiber.Ctx, data interface{}) error {
	return ResponseJSON(c, fiber.StatusCreated, "Created", data)
}

func ResponseNotFound(c *fiber.Ctx) error {
	return ResponseJSON(c, fiber.StatusNotFound, "Not Found", nil)
}

func ResponseBadRequest(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Bad Request"
	}
	return ResponseJSON(c, fiber.StatusBadRequest, message, nil)
}

func ResponseInternalError(c *fiber.Ctx, err error) error {
	return ResponseJSON(c, fiber.StatusInternalServerError, "Internal Server Error", err.Error())
}
