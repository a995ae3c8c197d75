package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/pos-api/internal/application/dto"
)

// page lee limit/offset de la query.
func page(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
	p.Normalize()
	return p
}

// queryTime acepta RFC3339 o YYYY-MM-DD (UTC). Si el parámetro no viene devuelve def.
func queryTime(c *fiber.Ctx, key string, def time.Time) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", raw)
}

// timeRange lee from/to; por defecto los últimos 30 días.
func timeRange(c *fiber.Ctx) (time.Time, time.Time, error) {
	now := time.Now().UTC()
	from, err := queryTime(c, "from", now.AddDate(0, 0, -30))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := queryTime(c, "to", now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func attachment(c *fiber.Ctx, contentType, name string, data []byte) error {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename="+strconv.Quote(name))
	return c.Send(data)
}
