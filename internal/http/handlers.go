package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/domain"
	"github.com/ANIKETSHETTY47/cold-chain-monitor/internal/service"
)

func Register(app *fiber.App, svcs *service.Services) {
	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })

	g := app.Group("/")
	g.Get("devices", func(c *fiber.Ctx) error {
		items, err := svcs.Devices.List(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(items)
	})
	g.Get("devices/:id", func(c *fiber.Ctx) error {
		d, err := svcs.Devices.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(d)
	})

	g.Post("readings", func(c *fiber.Ctx) error {
		var p service.ReadingPayload
		if err := c.BodyParser(&p); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid reading: " + err.Error()})
		}
		l, err := svcs.Ingestion.IngestPayload(c.UserContext(), p)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(l)
	})
	g.Post("readings/batch", func(c *fiber.Ctx) error {
		var payloads []service.ReadingPayload
		if err := c.BodyParser(&payloads); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid readings: " + err.Error()})
		}
		report, err := svcs.Ingestion.IngestPayloads(c.UserContext(), payloads)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(batchStatus(report)).JSON(batchBody(report))
	})

	g.Get("dashboard", func(c *fiber.Ctx) error {
		snap, err := svcs.Dashboard.Snapshot(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(snap)
	})
	g.Post("dashboard/export", func(c *fiber.Ctx) error {
		loc, err := svcs.Dashboard.Export(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"location": loc})
	})

	g.Post("logs/:id/acknowledge", func(c *fiber.Ctx) error {
		l, err := svcs.Acknowledgments.Acknowledge(c.UserContext(), c.Params("id"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(l)
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrNotBreach):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, domain.ErrStoreUnavailable), errors.Is(err, service.ErrExportDisabled):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func batchStatus(r service.BatchReport) int {
	switch failed := len(r.Failed()); {
	case failed == 0:
		return fiber.StatusCreated
	case failed == len(r.Chunks):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusMultiStatus
	}
}

func batchBody(r service.BatchReport) fiber.Map {
	chunks := make([]fiber.Map, len(r.Chunks))
	for i, ch := range r.Chunks {
		m := fiber.Map{"index": ch.Index, "start": ch.Start, "end": ch.End, "attempts": ch.Attempts, "stored": ch.Succeeded()}
		if ch.Err != nil {
			m["error"] = ch.Err.Error()
		}
		chunks[i] = m
	}
	return fiber.Map{"total": r.Total, "stored": r.Stored, "chunks": chunks}
}
