package httpapi

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pspoerri/fosfix/internal/api"
	"github.com/pspoerri/fosfix/internal/encode"
	"github.com/pspoerri/fosfix/internal/resection"
	"github.com/pspoerri/fosfix/internal/sketch"
)

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"uptime":    time.Since(startedAt).String(),
			"version":   version,
			"system":    deps.Engine.System(),
			"precision": deps.Engine.Precision(),
		})
	}
}

// ResectHandler solves the posted api.ResectRequest and returns the full
// resection.Result.
func ResectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in, err := parseResect(c)
		if err != nil {
			return err
		}
		res, err := deps.Engine.Solve(c.UserContext(), in)
		if err != nil {
			return err
		}
		return c.JSON(res)
	}
}

// SketchHandler solves the posted request and returns a rendered plan.
// Query parameters: format (png, jpeg, webp), size in pixels, quality.
func SketchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		enc, err := encode.NewEncoder(c.Query("format", "png"), c.QueryInt("quality", 0))
		if err != nil {
			return badRequest("%v", err)
		}
		size := c.QueryInt("size", sketch.DefaultSize)
		if size < sketch.MinSize || size > sketch.MaxSize {
			return badRequest("size %d outside %d-%d", size, sketch.MinSize, sketch.MaxSize)
		}

		in, err := parseResect(c)
		if err != nil {
			return err
		}
		res, err := deps.Engine.Solve(c.UserContext(), in)
		if err != nil {
			return err
		}

		img, _, err := sketch.Render(res, in, size)
		if err != nil {
			return err
		}
		defer sketch.PutCanvas(img)

		data, err := enc.Encode(img)
		if err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, enc.ContentType())
		return c.Send(data)
	}
}

// ConvertHandler converts one point between geographic and grid form using
// the engine's default system and precision.
func ConvertHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req api.ConvertRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return badRequest("decode body: %v", err)
		}
		loc, err := api.Convert(req, deps.Engine.System(), deps.Engine.Precision())
		if err != nil {
			return err
		}
		return c.JSON(loc)
	}
}

func parseResect(c *fiber.Ctx) (resection.Input, error) {
	var req api.ResectRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return resection.Input{}, badRequest("decode body: %v", err)
	}
	return req.Input()
}
